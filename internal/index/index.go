// Package index implements the in-memory inverted index. It is storage and
// structure only: tokenization and field segmentation happen upstream.
package index

import (
	"fmt"
	"sort"
	"sync"
)

// Posting records one document's occurrences of one term. Positions are
// token offsets in the document's concatenated field order. Weight is the
// summed field-boost contribution of the occurrences.
type Posting struct {
	DocID     int64   `json:"doc_id"`
	Frequency int     `json:"frequency"`
	Positions []int   `json:"positions"`
	Weight    float64 `json:"weight"`
}

// Field is one ordered token sequence with its boost multiplier.
type Field struct {
	Name   string
	Tokens []string
	Boost  float64
}

// Index maps terms to posting lists sorted by ascending DocID with no
// duplicates. Writes take the exclusive lock; reads share it.
type Index struct {
	mu    sync.RWMutex
	terms map[string][]Posting
	docs  map[int64]struct{}
}

// New constructs an empty Index.
func New() *Index {
	return &Index{
		terms: make(map[string][]Posting),
		docs:  make(map[int64]struct{}),
	}
}

// AddDocument inserts postings for docID across every term in the given
// fields. Any prior postings for docID are removed first, so re-indexing a
// document is idempotent.
func (ix *Index) AddDocument(docID int64, fields []Field) {
	type occurrence struct {
		positions []int
		weight    float64
	}
	occ := make(map[string]*occurrence)

	pos := 0
	for _, f := range fields {
		boost := f.Boost
		if boost <= 0 {
			boost = 1
		}
		for _, term := range f.Tokens {
			o, ok := occ[term]
			if !ok {
				o = &occurrence{}
				occ[term] = o
			}
			o.positions = append(o.positions, pos)
			o.weight += boost
			pos++
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(docID)
	for term, o := range occ {
		ix.insertLocked(term, Posting{
			DocID:     docID,
			Frequency: len(o.positions),
			Positions: o.positions,
			Weight:    o.weight,
		})
	}
	ix.docs[docID] = struct{}{}
}

// RemoveDocument deletes every posting referencing docID. Terms whose
// posting list drops to zero are pruned.
func (ix *Index) RemoveDocument(docID int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(docID)
	delete(ix.docs, docID)
}

// Lookup returns the term's postings ordered by ascending DocID, or nil.
func (ix *Index) Lookup(term string) []Posting {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	postings := ix.terms[term]
	if len(postings) == 0 {
		return nil
	}
	out := make([]Posting, len(postings))
	copy(out, postings)
	return out
}

// DocumentFrequency returns how many distinct documents contain term.
func (ix *Index) DocumentFrequency(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.terms[term])
}

// DocumentCount returns the number of indexed documents.
func (ix *Index) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// TermCount returns the number of distinct terms.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.terms)
}

func (ix *Index) removeLocked(docID int64) {
	if _, present := ix.docs[docID]; !present {
		return
	}
	for term, postings := range ix.terms {
		i := sort.Search(len(postings), func(i int) bool {
			return postings[i].DocID >= docID
		})
		if i < len(postings) && postings[i].DocID == docID {
			postings = append(postings[:i], postings[i+1:]...)
			if len(postings) == 0 {
				delete(ix.terms, term)
			} else {
				ix.terms[term] = postings
			}
		}
	}
}

// insertLocked places a posting keeping the list sorted by DocID. A
// duplicate DocID here means replace semantics were bypassed; that is a
// programming error, not a recoverable condition.
func (ix *Index) insertLocked(term string, p Posting) {
	postings := ix.terms[term]
	i := sort.Search(len(postings), func(i int) bool {
		return postings[i].DocID >= p.DocID
	})
	if i < len(postings) && postings[i].DocID == p.DocID {
		panic(fmt.Sprintf("index: duplicate posting for term %q doc %d", term, p.DocID))
	}
	postings = append(postings, Posting{})
	copy(postings[i+1:], postings[i:])
	postings[i] = p
	ix.terms[term] = postings
}
