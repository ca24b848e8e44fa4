// Package ranker orders candidate strings by fuzzy match quality against a
// query, with usage weight as the secondary key and arrival order last.
package ranker

import (
	"cmp"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Match is a candidate that contains the query as a subsequence
type Match struct {
	Index   int    // Position of the candidate in the pool
	Text    string // Candidate text
	Score   int    // Higher is better
	Weight  uint8  // Usage weight, zero for unweighted pools
	Matched []int  // Rune positions of the matched characters in Text
}

// WeightFunc returns the usage weight of the candidate at index i
type WeightFunc func(i int) uint8

// Rank scores texts against a non-empty query and returns the matching
// candidates best first. Candidates that do not contain the query as a
// case-insensitive subsequence are left out. weight may be nil.
//
// Ordering: score descending, then weight descending, then index ascending.
// Weight never lifts a candidate over one with a strictly better score.
func Rank(query string, texts []string, weight WeightFunc) []Match {
	if query == "" || len(texts) == 0 {
		return nil
	}

	q := fold(query)
	found := fuzzy.FindFrom(query, source(texts))
	matches := make([]Match, 0, len(found))
	for _, f := range found {
		matched := Window(q, fold(f.Str))
		if matched == nil {
			matched = runePositions(f.Str, f.MatchedIndexes)
		}
		m := Match{
			Index:   f.Index,
			Text:    f.Str,
			Score:   Score(matched),
			Matched: matched,
		}
		if weight != nil {
			m.Weight = weight(f.Index)
		}
		matches = append(matches, m)
	}

	slices.SortFunc(matches, Compare)
	return matches
}

// Compare orders two matches, best first
func Compare(a, b Match) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// Score rates how compact a match is. Every character skipped between the
// first and the last matched position costs more than any start offset, so
// contiguous matches always beat scattered ones and, among equally compact
// matches, the one starting earlier wins. Only the positions matter, so two
// candidates matched at the same positions score the same whatever their length.
func Score(matched []int) int {
	if len(matched) == 0 {
		return minScore
	}

	first := matched[0]
	last := matched[len(matched)-1]
	gaps := last - first + 1 - len(matched)

	return -(min(gaps, maxGaps)*startRange + min(first, startRange-1))
}

const (
	startRange = 1 << 16
	maxGaps    = 1 << 14
	minScore   = -(maxGaps*startRange + startRange)
)

// Window returns the rune positions of the tightest occurrence of query as a
// subsequence of text: the one skipping the fewest characters, the earliest
// among equally tight ones. It returns nil when text does not contain query.
//
// Each occurrence of the first query rune is tried in turn. A greedy forward
// scan finds where the match can end at the earliest, then a backward scan
// from that end finds the latest start, which gives the shortest window
// ending there.
func Window(query, text []rune) []int {
	if len(query) == 0 {
		return nil
	}

	var best []int
	bestGaps := -1
	for start, r := range text {
		if r != query[0] {
			continue
		}

		end, ok := forward(query, text, start)
		if !ok {
			// No later start can complete the match either
			break
		}

		positions := backward(query, text, end)
		gaps := positions[len(positions)-1] - positions[0] + 1 - len(positions)
		if bestGaps < 0 || gaps < bestGaps {
			best, bestGaps = positions, gaps
			if gaps == 0 {
				break
			}
		}
	}
	return best
}

// forward matches query greedily from start and reports the position of the
// last matched rune.
func forward(query, text []rune, start int) (int, bool) {
	qi := 0
	for ti := start; ti < len(text); ti++ {
		if text[ti] == query[qi] {
			qi++
			if qi == len(query) {
				return ti, true
			}
		}
	}
	return 0, false
}

// backward matches query right to left from end, which is known to hold the
// last query rune.
func backward(query, text []rune, end int) []int {
	positions := make([]int, len(query))
	qi := len(query) - 1
	for ti := end; ti >= 0 && qi >= 0; ti-- {
		if text[ti] == query[qi] {
			positions[qi] = ti
			qi--
		}
	}
	return positions
}

func fold(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

// runePositions converts byte offsets into s to rune positions
func runePositions(s string, offsets []int) []int {
	positions := make([]int, 0, len(offsets))
	pos, next := 0, 0
	for _, off := range offsets {
		for next < off && next < len(s) {
			_, size := utf8.DecodeRuneInString(s[next:])
			next += size
			pos++
		}
		positions = append(positions, pos)
	}
	return positions
}

// source adapts a string slice to fuzzy.Source
type source []string

func (s source) String(i int) string {
	return s[i]
}

func (s source) Len() int {
	return len(s)
}
