package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func bodyField(tokens ...string) []Field {
	return []Field{{Name: "body", Tokens: tokens, Boost: 1}}
}

func TestAddDocumentAndLookup(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(1, bodyField("quick", "brown", "fox", "quick"))

	postings := ix.Lookup("quick")
	require.Len(t, postings, 1)
	require.Equal(t, int64(1), postings[0].DocID)
	require.Equal(t, 2, postings[0].Frequency)
	require.Equal(t, []int{0, 3}, postings[0].Positions)

	require.Equal(t, 1, ix.DocumentFrequency("quick"))
	require.Equal(t, 0, ix.DocumentFrequency("absent"))
	require.Nil(t, ix.Lookup("absent"))
	require.Equal(t, 1, ix.DocumentCount())
	require.Equal(t, 3, ix.TermCount())
}

func TestDocumentFrequencyTracksPostingCount(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(1, bodyField("shared", "alpha"))
	ix.AddDocument(2, bodyField("shared", "beta"))
	ix.AddDocument(3, bodyField("shared"))

	require.Equal(t, 3, ix.DocumentFrequency("shared"))
	require.Len(t, ix.Lookup("shared"), 3)

	ix.RemoveDocument(2)
	require.Equal(t, 2, ix.DocumentFrequency("shared"))
	require.Equal(t, 0, ix.DocumentFrequency("beta"), "empty terms are pruned")
}

func TestPostingsOrderedByDocID(t *testing.T) {
	t.Parallel()

	ix := New()
	for _, id := range []int64{5, 1, 9, 3} {
		ix.AddDocument(id, bodyField("term"))
	}
	postings := ix.Lookup("term")
	require.Len(t, postings, 4)
	for i := 1; i < len(postings); i++ {
		require.Less(t, postings[i-1].DocID, postings[i].DocID)
	}
}

func TestReindexIsIdempotent(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(1, bodyField("old", "words", "here"))
	ix.AddDocument(1, bodyField("new", "content"))

	fresh := New()
	fresh.AddDocument(1, bodyField("new", "content"))

	require.Equal(t, 0, ix.DocumentFrequency("old"), "stale postings must not survive reindex")
	require.Equal(t, fresh.Lookup("new"), ix.Lookup("new"))
	require.Equal(t, fresh.Lookup("content"), ix.Lookup("content"))
	require.Equal(t, fresh.TermCount(), ix.TermCount())
	require.Equal(t, 1, ix.DocumentCount())
}

func TestFieldWeightsAndPositions(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(7, []Field{
		{Name: "title", Tokens: []string{"fox"}, Boost: 2.0},
		{Name: "heading", Tokens: []string{"fox", "den"}, Boost: 1.5},
		{Name: "body", Tokens: []string{"the", "fox"}, Boost: 1.0},
	})

	postings := ix.Lookup("fox")
	require.Len(t, postings, 1)
	p := postings[0]
	require.Equal(t, 3, p.Frequency)
	require.Equal(t, []int{0, 1, 4}, p.Positions, "positions run across fields in order")
	require.InDelta(t, 2.0+1.5+1.0, p.Weight, 1e-9)
}

func TestRemoveDocumentClearsEverything(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(1, bodyField("alpha", "beta"))
	ix.AddDocument(2, bodyField("beta", "gamma"))

	ix.RemoveDocument(1)
	require.Equal(t, 1, ix.DocumentCount())
	require.Nil(t, ix.Lookup("alpha"))
	require.Equal(t, 1, ix.DocumentFrequency("beta"))

	// Removing an absent document is a no-op.
	ix.RemoveDocument(42)
	require.Equal(t, 1, ix.DocumentCount())
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(1, bodyField("stable"))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < 50; i++ {
				ix.AddDocument(base*100+i+2, bodyField("stable", "churn"))
			}
		}(int64(w))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				postings := ix.Lookup("stable")
				require.NotEmpty(t, postings)
				require.GreaterOrEqual(t, ix.DocumentFrequency("stable"), 1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 201, ix.DocumentCount())
}
