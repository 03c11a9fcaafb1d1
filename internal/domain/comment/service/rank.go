package service

import (
	"cmp"
	"slices"
)

// scored pairs a candidate with its ranking score
type scored[T any] struct {
	item  T
	score int64
}

// topK sorts candidates by score descending and keeps the first k.
// The sort is stable: equal scores keep the candidates' input order.
func topK[T any](candidates []scored[T], k int) []T {
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b scored[T]) int {
		return cmp.Compare(b.score, a.score)
	})

	if k > len(ranked) {
		k = len(ranked)
	}

	out := make([]T, 0, k)
	for _, c := range ranked[:k] {
		out = append(out, c.item)
	}
	return out
}

// group is a key with the number of items that produced it
type group struct {
	key   string
	count int
}

// counter accumulates group sizes and remembers first-seen key order
type counter struct {
	index  map[string]int
	groups []group
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.groups[i].count++
		return
	}
	c.index[key] = len(c.groups)
	c.groups = append(c.groups, group{key: key, count: 1})
}

// top returns the k largest groups; ties keep first-seen order
func (c *counter) top(k int) []group {
	candidates := make([]scored[group], 0, len(c.groups))
	for _, g := range c.groups {
		candidates = append(candidates, scored[group]{item: g, score: int64(g.count)})
	}
	return topK(candidates, k)
}

// groupCount groups items by key and returns the k largest groups
func groupCount[T any](items []T, key func(T) string, k int) []group {
	c := newCounter()
	for _, it := range items {
		c.add(key(it))
	}
	return c.top(k)
}
