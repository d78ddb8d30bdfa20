// Package engine wires the crawl pipeline to the index and search path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagehound/pagehound/internal/clock/system"
	"github.com/pagehound/pagehound/internal/config"
	"github.com/pagehound/pagehound/internal/crawler"
	"github.com/pagehound/pagehound/internal/fetch"
	"github.com/pagehound/pagehound/internal/index"
	"github.com/pagehound/pagehound/internal/rank"
	"github.com/pagehound/pagehound/internal/snippet"
	"github.com/pagehound/pagehound/internal/store"
	"github.com/pagehound/pagehound/internal/telemetry"
	"github.com/pagehound/pagehound/internal/token"
	"github.com/pagehound/pagehound/internal/worker"
)

// SearchResult is one ranked hit with its display fields resolved from the
// document store.
type SearchResult struct {
	DocID   int64           `json:"doc_id"`
	URL     string          `json:"url"`
	Title   string          `json:"title"`
	Score   float64         `json:"score"`
	Snippet snippet.Snippet `json:"snippet"`
}

// Stats summarizes index cardinalities.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
}

// Engine owns the index, document store, tokenizer, ranking strategy, and
// snippet extractor. Crawl is the only writer of the index; Search and Stats
// are safe at any time.
type Engine struct {
	cfg      config.Config
	ix       *index.Index
	docs     store.DocumentStore
	tok      *token.Tokenizer
	strategy rank.Strategy
	snippets *snippet.Extractor
	clock    crawler.Clock
	logger   *zap.Logger
}

// New constructs an Engine over the given document store.
func New(cfg config.Config, docs store.DocumentStore, logger *zap.Logger) (*Engine, error) {
	strategy, err := rank.NewStrategy(cfg.Rank.Algorithm)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		ix:       index.New(),
		docs:     docs,
		tok:      token.New(),
		strategy: strategy,
		snippets: snippet.NewExtractor(cfg.Snippet.MaxLength),
		clock:    system.New(),
		logger:   logger,
	}, nil
}

// Crawl runs a full crawl session from the given seeds and indexes every
// fetched page. It returns the number of pages indexed. Zero or negative
// bounds fall back to the configured defaults.
func (e *Engine) Crawl(ctx context.Context, seeds []string, maxPages, maxDepth int) (int, error) {
	if maxPages <= 0 {
		maxPages = e.cfg.Crawler.MaxPages
	}
	if maxDepth < 0 {
		maxDepth = e.cfg.Crawler.MaxDepth
	}
	if len(seeds) == 0 {
		seeds = e.cfg.Crawler.Seeds
	}
	if len(seeds) == 0 {
		return 0, errors.New("no seed urls")
	}

	gate := crawler.NewGate(crawler.GateConfig{
		UserAgent:     e.cfg.Crawler.UserAgent,
		RespectRobots: e.cfg.Politeness.RespectRobots,
		FailOpen:      e.cfg.Politeness.FailOpen,
		CacheTTL:      e.cfg.Politeness.RobotsTTL(),
		DefaultDelay:  e.cfg.Politeness.Delay(),
	}, e.logger)

	frontier := crawler.NewFrontier(crawler.NewVisitedSet(), gate, maxDepth, maxPages, e.logger)
	for _, seed := range seeds {
		canonical, err := crawler.CanonicalURL(seed)
		if err != nil {
			return 0, fmt.Errorf("seed %q: %w", seed, err)
		}
		frontier.Push(canonical, 0)
	}

	fetcher := fetch.New(fetch.Config{
		UserAgent: e.cfg.Crawler.UserAgent,
		Timeout:   e.cfg.Crawler.RequestTimeout(),
	})
	retry := crawler.NewRetryPolicy(
		e.cfg.Crawler.MaxRetries,
		e.cfg.Crawler.BackoffInitial(),
		e.cfg.Crawler.BackoffMax(),
	)
	pool := worker.New(frontier, fetcher, gate, retry, e.clock, worker.Config{
		Workers:        e.cfg.Crawler.Concurrency,
		FollowExternal: e.cfg.Crawler.FollowExternal,
	}, e.logger)

	start := time.Now()
	e.logger.Info("crawl starting",
		zap.Strings("seeds", seeds),
		zap.Int("max_pages", maxPages),
		zap.Int("max_depth", maxDepth))

	queueDepth := e.cfg.Crawler.QueueDepth
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	records := make(chan crawler.PageRecord, queueDepth)
	done := make(chan int, 1)
	go func() {
		done <- e.drainRecords(ctx, records)
	}()

	pool.Run(ctx, records)
	indexed := <-done

	telemetry.SetIndexSize(e.ix.DocumentCount(), e.ix.TermCount())
	if e.cfg.Index.SnapshotPath != "" {
		if err := e.SaveSnapshot(); err != nil {
			e.logger.Warn("final snapshot save failed", zap.Error(err))
		}
	}
	e.logger.Info("crawl finished",
		zap.Int("pages_indexed", indexed),
		zap.Duration("elapsed", time.Since(start)))

	if err := ctx.Err(); err != nil {
		return indexed, fmt.Errorf("crawl interrupted: %w", err)
	}
	return indexed, nil
}

// drainRecords is the single index writer: postings for a page are inserted
// exactly once, by one goroutine, regardless of worker concurrency.
func (e *Engine) drainRecords(ctx context.Context, records <-chan crawler.PageRecord) int {
	indexed := 0
	for rec := range records {
		if err := e.indexRecord(ctx, rec); err != nil {
			e.logger.Error("index page failed", zap.String("url", rec.URL), zap.Error(err))
			continue
		}
		indexed++
		if n := e.cfg.Index.SaveEveryDocs; n > 0 && indexed%n == 0 && e.cfg.Index.SnapshotPath != "" {
			if err := e.SaveSnapshot(); err != nil {
				e.logger.Warn("periodic snapshot save failed", zap.Error(err))
			}
		}
	}
	return indexed
}

func (e *Engine) indexRecord(ctx context.Context, rec crawler.PageRecord) error {
	doc := store.Document{
		URL:         rec.URL,
		Title:       rec.Title,
		Description: rec.Description,
		Body:        rec.Body,
		Headings:    rec.Headings,
		FetchedAt:   rec.FetchedAt,
	}
	id, err := e.docs.Put(ctx, doc)
	if err != nil {
		return fmt.Errorf("store page: %w", err)
	}
	e.ix.AddDocument(id, e.fieldsFor(doc))
	return nil
}

func (e *Engine) fieldsFor(doc store.Document) []index.Field {
	fields := []index.Field{
		{Name: "title", Tokens: e.tok.Tokenize(doc.Title), Boost: e.cfg.Rank.TitleBoost},
		{Name: "heading", Tokens: e.tok.Tokenize(strings.Join(doc.Headings, " ")), Boost: e.cfg.Rank.HeadingBoost},
		{Name: "body", Tokens: e.tok.Tokenize(doc.Body), Boost: 1},
	}
	if doc.Description != "" {
		fields = append(fields, index.Field{
			Name:   "description",
			Tokens: e.tok.Tokenize(doc.Description),
			Boost:  1,
		})
	}
	return fields
}

// Search tokenizes the query, ranks the candidates, and resolves display
// fields plus a snippet for the requested page of results. A query with no
// indexable terms returns no results.
func (e *Engine) Search(ctx context.Context, query string, limit, offset int) ([]SearchResult, error) {
	start := time.Now()
	defer func() { telemetry.ObserveSearch(time.Since(start)) }()

	if limit <= 0 {
		limit = e.cfg.Server.MaxResults
	}
	terms := e.tok.Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	ranked := rank.Paginate(e.strategy.Score(terms, e.ix), limit, offset)
	results := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		doc, err := e.docs.Get(ctx, r.DocID)
		if errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("indexed document missing from store", zap.Int64("doc_id", r.DocID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load document %d: %w", r.DocID, err)
		}
		results = append(results, SearchResult{
			DocID:   r.DocID,
			URL:     doc.URL,
			Title:   doc.Title,
			Score:   r.Score,
			Snippet: e.snippets.Extract(doc.Body, terms),
		})
	}
	return results, nil
}

// Document returns one stored document by ID.
func (e *Engine) Document(ctx context.Context, id int64) (store.Document, error) {
	return e.docs.Get(ctx, id)
}

// Stats returns current index cardinalities.
func (e *Engine) Stats() Stats {
	return Stats{
		Documents: e.ix.DocumentCount(),
		Terms:     e.ix.TermCount(),
	}
}

// Reindex rebuilds the index from the document store, dropping whatever the
// index currently holds. It returns the number of documents indexed.
func (e *Engine) Reindex(ctx context.Context) (int, error) {
	ids, err := e.docs.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	e.ix.Restore(index.Snapshot{})

	indexed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return indexed, fmt.Errorf("reindex interrupted: %w", err)
		}
		doc, err := e.docs.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return indexed, fmt.Errorf("load document %d: %w", id, err)
		}
		e.ix.AddDocument(id, e.fieldsFor(doc))
		indexed++
	}
	telemetry.SetIndexSize(e.ix.DocumentCount(), e.ix.TermCount())
	e.logger.Info("reindex complete", zap.Int("documents", indexed))
	return indexed, nil
}

// SaveSnapshot persists the index to the configured snapshot path.
func (e *Engine) SaveSnapshot() error {
	path := e.cfg.Index.SnapshotPath
	if path == "" {
		return errors.New("index.snapshot_path is not configured")
	}
	if err := e.ix.Save(path); err != nil {
		return err
	}
	e.logger.Debug("snapshot saved",
		zap.String("path", path),
		zap.Int("documents", e.ix.DocumentCount()))
	return nil
}

// LoadSnapshot replaces the index from the configured snapshot path.
func (e *Engine) LoadSnapshot() error {
	path := e.cfg.Index.SnapshotPath
	if path == "" {
		return errors.New("index.snapshot_path is not configured")
	}
	if err := e.ix.Load(path); err != nil {
		return err
	}
	telemetry.SetIndexSize(e.ix.DocumentCount(), e.ix.TermCount())
	e.logger.Info("snapshot loaded",
		zap.String("path", path),
		zap.Int("documents", e.ix.DocumentCount()))
	return nil
}
