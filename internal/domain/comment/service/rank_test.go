package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopK(t *testing.T) {
	candidates := []scored[string]{
		{item: "low", score: 1},
		{item: "high", score: 9},
		{item: "mid-a", score: 5},
		{item: "mid-b", score: 5},
	}

	assert.Equal(t, []string{"high", "mid-a", "mid-b"}, topK(candidates, 3))
	assert.Equal(t, []string{"high", "mid-a", "mid-b", "low"}, topK(candidates, 10))
	assert.Empty(t, topK[string](nil, 3))
	// input is not reordered
	assert.Equal(t, "low", candidates[0].item)
}

func TestGroupCount_FirstSeenOrder(t *testing.T) {
	items := []string{"b", "a", "c", "a", "b", "d"}

	groups := groupCount(items, func(s string) string { return s }, 3)

	assert.Equal(t, []group{{key: "b", count: 2}, {key: "a", count: 2}, {key: "c", count: 1}}, groups)
}
