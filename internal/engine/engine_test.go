package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pagehound/pagehound/internal/config"
	"github.com/pagehound/pagehound/internal/store"
	"github.com/pagehound/pagehound/internal/store/memory"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080, MaxResults: 10},
		Crawler: config.CrawlerConfig{
			UserAgent:        "pagehound-test",
			Concurrency:      4,
			MaxDepth:         3,
			MaxPages:         50,
			TimeoutSeconds:   5,
			MaxRetries:       3,
			BackoffInitialMs: 1,
			BackoffMaxMs:     5,
			QueueDepth:       64,
		},
		Politeness: config.PolitenessConfig{
			RespectRobots:  true,
			RobotsTTLHours: 1,
			DelayMs:        1,
		},
		Rank:    config.RankConfig{Algorithm: "tfidf", TitleBoost: 2.0, HeadingBoost: 1.5},
		Snippet: config.SnippetConfig{MaxLength: 120},
	}
}

func newTestEngine(t *testing.T, cfg config.Config) (*Engine, store.DocumentStore) {
	t.Helper()
	docs := memory.New()
	e, err := New(cfg, docs, zap.NewNop())
	require.NoError(t, err)
	return e, docs
}

func htmlPage(title, body string, links ...string) string {
	page := "<html><head><title>" + title + "</title></head><body><h1>" + title + "</h1><p>" + body + "</p>"
	for _, l := range links {
		page += fmt.Sprintf(`<a href=%q>more</a>`, l)
	}
	return page + "</body></html>"
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "User-agent: *\nAllow: /")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, htmlPage("Home", "a tiny site about programming languages", "/go", "/python"))
	})
	mux.HandleFunc("/go", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, htmlPage("Go", "gophers write concurrent services with goroutines"))
	})
	mux.HandleFunc("/python", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, htmlPage("Python", "snakes prefer dynamic typing and indentation"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawlThenSearch(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	e, _ := newTestEngine(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexed, err := e.Crawl(ctx, []string{srv.URL}, 10, 2)
	require.NoError(t, err)
	require.Equal(t, 3, indexed)

	stats := e.Stats()
	require.Equal(t, 3, stats.Documents)
	require.Positive(t, stats.Terms)

	results, err := e.Search(ctx, "gophers", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Go", results[0].Title)
	require.Equal(t, srv.URL+"/go", results[0].URL)
	require.Positive(t, results[0].Score)
	require.Contains(t, results[0].Snippet.Text, "gophers")
	require.NotEmpty(t, results[0].Snippet.Highlights)
}

func TestSearchEmptyQueryAndUnknownTerm(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	results, err := e.Search(ctx, "   ", 10, 0)
	require.NoError(t, err)
	require.Empty(t, results)

	results, err = e.Search(ctx, "the and of", 10, 0)
	require.NoError(t, err)
	require.Empty(t, results, "stopword-only queries have no indexable terms")
}

func TestCrawlRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var failures int32 = 2
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "User-agent: *\nAllow: /")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&failures, -1) >= 0 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, htmlPage("Flaky", "eventually this page settles down"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	e, _ := newTestEngine(t, testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexed, err := e.Crawl(ctx, []string{srv.URL}, 5, 1)
	require.NoError(t, err)
	require.Equal(t, 1, indexed, "a page that fails twice then succeeds is indexed exactly once")
}

func TestCrawlRejectsInvalidSeed(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, testConfig())
	_, err := e.Crawl(context.Background(), []string{"ftp://example.com/"}, 5, 1)
	require.Error(t, err)

	_, err = e.Crawl(context.Background(), nil, 5, 1)
	require.Error(t, err, "no seeds anywhere is an error")
}

func TestSnapshotRoundTripAcrossEngines(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	cfg := testConfig()
	cfg.Index.SnapshotPath = filepath.Join(t.TempDir(), "index.json")
	cfg.Index.SaveEveryDocs = 2

	docs := memory.New()
	first, err := New(cfg, docs, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	indexed, err := first.Crawl(ctx, []string{srv.URL}, 10, 2)
	require.NoError(t, err)
	require.Equal(t, 3, indexed)

	second, err := New(cfg, docs, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, second.LoadSnapshot())
	require.Equal(t, first.Stats(), second.Stats())

	results, err := second.Search(ctx, "gophers", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, srv.URL+"/go", results[0].URL)
}

func TestReindexRebuildsFromStore(t *testing.T) {
	t.Parallel()

	e, docs := newTestEngine(t, testConfig())
	ctx := context.Background()

	for i, doc := range []store.Document{
		{URL: "https://a.test/", Title: "Alpha", Body: "aardvarks eat ants", FetchedAt: time.Now().UTC()},
		{URL: "https://b.test/", Title: "Beta", Body: "badgers dig burrows", FetchedAt: time.Now().UTC()},
	} {
		id, err := docs.Put(ctx, doc)
		require.NoError(t, err)
		require.Equal(t, int64(i+1), id)
	}

	require.Equal(t, 0, e.Stats().Documents)
	indexed, err := e.Reindex(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, indexed)

	results, err := e.Search(ctx, "badgers", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Beta", results[0].Title)

	// Reindex is a rebuild, not a merge: running it twice is idempotent.
	again, err := e.Reindex(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, again)
	require.Equal(t, 2, e.Stats().Documents)
}

func TestDocumentLookup(t *testing.T) {
	t.Parallel()

	e, docs := newTestEngine(t, testConfig())
	ctx := context.Background()

	id, err := docs.Put(ctx, store.Document{URL: "https://a.test/", Title: "Alpha"})
	require.NoError(t, err)

	doc, err := e.Document(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Alpha", doc.Title)

	_, err = e.Document(ctx, 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}
