// Package rank scores candidate documents against tokenized queries.
package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/pagehound/pagehound/internal/index"
)

// Result is one scored document.
type Result struct {
	DocID int64
	Score float64
}

// Strategy is a pluggable ranking algorithm. Adding an algorithm means
// adding a variant, not branching on strings at call sites.
type Strategy interface {
	Name() string
	Score(queryTerms []string, ix *index.Index) []Result
}

// NewStrategy resolves a configured algorithm name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "tfidf":
		return TFIDF{}, nil
	default:
		return nil, fmt.Errorf("unknown ranking algorithm %q", name)
	}
}

// TFIDF ranks by term frequency × inverse document frequency. Field boosts
// are applied through the posting weights computed at index time, so a
// posting's Weight already folds tf and the per-field multipliers together.
type TFIDF struct{}

// Name implements Strategy.
func (TFIDF) Name() string { return "tfidf" }

// Score builds the candidate set as the union of the query terms' postings
// (OR semantics) and scores each candidate as Σ weight(t, doc) × idf(t) with
// idf = ln(N/df). Query term duplicates are meaningful and contribute again.
// A term present in every document has idf 0 and simply contributes nothing;
// it is not special-cased.
func (TFIDF) Score(queryTerms []string, ix *index.Index) []Result {
	total := ix.DocumentCount()
	if total == 0 {
		return nil
	}
	n := float64(total)

	scores := make(map[int64]float64)
	for _, term := range queryTerms {
		df := ix.DocumentFrequency(term)
		if df == 0 {
			continue
		}
		idf := math.Log(n / float64(df))
		for _, p := range ix.Lookup(term) {
			scores[p.DocID] += p.Weight * idf
		}
	}
	if len(scores) == 0 {
		return nil
	}

	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		results = append(results, Result{DocID: docID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].DocID < results[j].DocID
		}
		return results[i].Score > results[j].Score
	})
	return results
}

// Paginate applies limit/offset over an already sorted result list.
func Paginate(results []Result, limit, offset int) []Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return nil
	}
	results = results[offset:]
	if limit >= 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}
