package suggest

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

// candidateList adapts candidates to fuzzy.Source.
type candidateList []Candidate

func (c candidateList) String(i int) string { return c[i].Value }
func (c candidateList) Len() int            { return len(c) }

// rank orders items for word: case-insensitive prefix matches first in their
// original order, then fuzzy matches by score. A candidate that equals the
// word is dropped since there is nothing left to complete.
func rank(word string, items []Candidate, limit int) []Candidate {
	items = lo.UniqBy(items, func(c Candidate) string { return c.Value })
	items = lo.Reject(items, func(c Candidate, _ int) bool {
		return c.Value == word || c.Value == word+"("
	})

	if word == "" {
		return lo.Subset(items, 0, uint(limit))
	}

	lowerWord := strings.ToLower(word)
	var out []Candidate
	taken := make(map[int]bool)
	for i, c := range items {
		if strings.HasPrefix(strings.ToLower(c.Value), lowerWord) {
			out = append(out, c)
			taken[i] = true
		}
	}

	for _, match := range fuzzy.FindFrom(word, candidateList(items)) {
		if taken[match.Index] {
			continue
		}
		out = append(out, items[match.Index])
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
