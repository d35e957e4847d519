// Package fuzzy ranks registered names by edit distance so that a mistyped
// token can be answered with a "did you mean" suggestion
package fuzzy

import (
	"iter"
	"slices"
	"strings"
)

// DefaultDistance is the largest edit distance still offered as a suggestion
const DefaultDistance = 2

// Matcher ranks candidates against a mistyped input
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a matcher accepting candidates up to maxDistance edits away
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{
		maxDistance: maxDistance,
		minLength:   2, // single characters match too much
	}
}

// Match is one ranked candidate
type Match struct {
	Value    string
	Distance int
	Prefix   int // length of the prefix shared with the input
}

// Best returns the closest candidate, or "" when none is close enough
func (m *Matcher) Best(input string, candidates iter.Seq[string]) string {
	matches := m.Rank(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// Rank returns every candidate within range, closest first. Ties keep
// the longer shared prefix first, then the candidate order.
func (m *Matcher) Rank(input string, candidates iter.Seq[string]) []Match {
	if len(input) < m.minLength {
		return nil
	}

	input = strings.ToLower(input)
	var matches []Match
	for candidate := range candidates {
		lower := strings.ToLower(candidate)
		if lower == input {
			continue
		}
		d := m.distance(input, lower)
		if d > m.maxDistance {
			continue
		}
		matches = append(matches, Match{Value: candidate, Distance: d, Prefix: commonPrefix(input, lower)})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return b.Prefix - a.Prefix
	})
	return matches
}

// distance is the Levenshtein distance between a and b, cut short at
// maxDistance+1 once no cheaper alignment is possible
func (m *Matcher) distance(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) == 0 {
		return len(b)
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(b); i++ {
		curr[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
			rowMin = min(rowMin, curr[j])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// Suggest returns the closest of candidates within maxDistance edits
func Suggest(input string, candidates []string, maxDistance int) string {
	return NewMatcher(maxDistance).Best(input, slices.Values(candidates))
}

// Suggestions returns up to limit candidates within maxDistance edits, closest first
func Suggestions(input string, candidates []string, maxDistance, limit int) []string {
	matches := NewMatcher(maxDistance).Rank(input, slices.Values(candidates))
	out := make([]string, 0, min(len(matches), limit))
	for _, match := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, match.Value)
	}
	return out
}
