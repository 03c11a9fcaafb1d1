package service

import (
	"context"
	"runtime"
	"strings"
	"unicode/utf16"

	"github.com/vadim/comments-fetcher/internal/domain/comment/entity"
)

const (
	// wordTrimSet is stripped from both ends of every token
	wordTrimSet = ",.;-!?()"
	// minWordLength is exclusive and counted in UTF-16 code units
	minWordLength = 3
)

// Tokenize splits comment text into normalized words. It splits on single
// spaces and "<br>" markup, drops anchor-tag fragments and short tokens and
// lowercases the rest. It is a heuristic markup filter, not a real tokenizer.
func Tokenize(text string) []string {
	parts := strings.Split(strings.ReplaceAll(text, "<br>", " "), " ")

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		w := strings.Trim(p, wordTrimSet)
		if len(utf16.Encode([]rune(w))) <= minWordLength {
			continue
		}
		lower := strings.ToLower(w)
		if strings.Contains(lower, "href") {
			continue
		}
		words = append(words, lower)
	}
	return words
}

// countWords counts word frequencies in batches. The context is checked
// before every batch and the goroutine yields after every other batch.
func (a *Analyzer) countWords(ctx context.Context, comments []entity.Comment) (*counter, error) {
	words := newCounter()

	for i := 0; i < len(comments); i += a.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(i+a.batchSize, len(comments))
		for _, c := range comments[i:end] {
			for _, w := range Tokenize(c.TextDisplay) {
				words.add(w)
			}
		}

		if i%(a.batchSize*2) == 0 {
			runtime.Gosched()
		}
	}

	return words, nil
}

// topWords returns the most used words across comments
func (a *Analyzer) topWords(ctx context.Context, comments []entity.Comment) ([]entity.TopWord, error) {
	words, err := a.countWords(ctx, comments)
	if err != nil {
		return nil, err
	}

	groups := words.top(TopWordsCount)
	out := make([]entity.TopWord, 0, len(groups))
	for _, g := range groups {
		out = append(out, entity.TopWord{Word: g.key, Count: g.count})
	}
	return out, nil
}
