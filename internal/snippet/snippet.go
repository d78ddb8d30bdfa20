// Package snippet produces bounded, highlightable excerpts for search hits.
package snippet

import (
	"strings"
	"unicode"
)

// Span marks one highlighted term occurrence, as rune offsets relative to
// the snippet text. Callers render the markup themselves.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Snippet is a bounded excerpt with its highlight spans.
type Snippet struct {
	Text       string `json:"text"`
	Highlights []Span `json:"highlights,omitempty"`
}

// Extractor finds the best excerpt window for a query.
type Extractor struct {
	maxLen int
}

// NewExtractor builds an Extractor with the given maximum snippet length in
// runes.
func NewExtractor(maxLen int) *Extractor {
	if maxLen <= 0 {
		maxLen = 200
	}
	return &Extractor{maxLen: maxLen}
}

type match struct {
	start int // rune offset in body
	end   int
	term  string
}

// Extract returns the shortest window (bounded by the configured maximum)
// containing the highest count of distinct query-term occurrences, ties
// broken by earliest start. When no query term occurs in the body, the
// leading substring up to the bound is returned with no highlights.
func (e *Extractor) Extract(body string, queryTerms []string) Snippet {
	runes := []rune(body)
	matches := findMatches(runes, queryTerms)
	if len(matches) == 0 {
		return Snippet{Text: string(leading(runes, e.maxLen))}
	}

	lo, hi := bestWindow(matches, e.maxLen)

	begin, end := matches[lo].start, matches[hi].end
	if end-begin > e.maxLen {
		// A single match longer than the bound: keep its leading part.
		end = begin + e.maxLen
	}

	// Pad the match window with surrounding context up to the bound.
	pad := e.maxLen - (end - begin)
	begin -= pad / 2
	if begin < 0 {
		begin = 0
	}
	end = begin + e.maxLen
	if end > len(runes) {
		end = len(runes)
		if begin = end - e.maxLen; begin < 0 {
			begin = 0
		}
	}
	begin, end = alignToWords(runes, begin, end, matches[lo].start, matches[hi].end)

	snip := Snippet{Text: string(runes[begin:end])}
	for _, m := range matches {
		if m.start >= begin && m.end <= end {
			snip.Highlights = append(snip.Highlights, Span{Start: m.start - begin, End: m.end - begin})
		}
	}
	return snip
}

// bestWindow picks the match range [lo, hi] whose span fits maxLen with the
// most distinct terms, preferring shorter spans and then earlier starts. A
// window never shrinks below a single match, so one match longer than maxLen
// stays a degenerate candidate rather than an empty range.
func bestWindow(matches []match, maxLen int) (int, int) {
	bestLo, bestHi := 0, 0
	bestDistinct := 0
	bestSpan := 0

	counts := make(map[string]int)
	distinct := 0
	lo := 0
	for hi := 0; hi < len(matches); hi++ {
		counts[matches[hi].term]++
		if counts[matches[hi].term] == 1 {
			distinct++
		}
		for lo < hi && matches[hi].end-matches[lo].start > maxLen {
			counts[matches[lo].term]--
			if counts[matches[lo].term] == 0 {
				distinct--
			}
			lo++
		}
		span := matches[hi].end - matches[lo].start
		if distinct > bestDistinct || (distinct == bestDistinct && span < bestSpan) {
			bestLo, bestHi = lo, hi
			bestDistinct = distinct
			bestSpan = span
		}
	}
	return bestLo, bestHi
}

// findMatches scans body runes for whole-token, case-insensitive occurrences
// of the query terms, in document order.
func findMatches(runes []rune, queryTerms []string) []match {
	want := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		if t != "" {
			want[strings.ToLower(t)] = struct{}{}
		}
	}
	if len(want) == 0 {
		return nil
	}

	var matches []match
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && isWordRune(runes[j]) {
			j++
		}
		token := strings.ToLower(string(runes[i:j]))
		if _, ok := want[token]; ok {
			matches = append(matches, match{start: i, end: j, term: token})
		}
		i = j
	}
	return matches
}

// alignToWords nudges the context bounds off the middle of words without
// ever cutting into the matched range itself.
func alignToWords(runes []rune, begin, end, matchStart, matchEnd int) (int, int) {
	for begin > 0 && begin < matchStart && isWordRune(runes[begin]) && isWordRune(runes[begin-1]) {
		begin++
	}
	for end < len(runes) && end > matchEnd && isWordRune(runes[end-1]) && isWordRune(runes[end]) {
		end--
	}
	return begin, end
}

func leading(runes []rune, maxLen int) []rune {
	if len(runes) <= maxLen {
		return runes
	}
	cut := maxLen
	for cut > 0 && isWordRune(runes[cut]) && isWordRune(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = maxLen
	}
	return runes[:cut]
}

func isWordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsNumber(c)
}
