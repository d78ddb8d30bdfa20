// Package token normalizes text into index terms.
package token

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercased alphanumeric terms, filtered by
// length and an optional stopword set.
type Tokenizer struct {
	minLen    int
	maxLen    int
	stopwords map[string]struct{}
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithLengthBounds sets the accepted term length range in runes.
func WithLengthBounds(minLen, maxLen int) Option {
	return func(t *Tokenizer) {
		t.minLen = minLen
		t.maxLen = maxLen
	}
}

// WithStopwords replaces the stopword set. An empty slice disables removal.
func WithStopwords(words []string) Option {
	return func(t *Tokenizer) {
		t.stopwords = make(map[string]struct{}, len(words))
		for _, w := range words {
			t.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// New builds a Tokenizer with the default English stopwords and length
// bounds of 2..50 runes.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{minLen: 2, maxLen: 50}
	WithStopwords(DefaultStopwords)(t)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize returns the ordered sequence of normalized terms in text.
func (t *Tokenizer) Tokenize(text string) []string {
	var terms []string
	split := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	}
	for _, raw := range strings.FieldsFunc(text, split) {
		term := strings.ToLower(raw)
		n := len([]rune(term))
		if n < t.minLen || n > t.maxLen {
			continue
		}
		if _, stop := t.stopwords[term]; stop {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
