// Package worker implements the crawl pipeline execution loop.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/pagehound/pagehound/internal/crawler"
	"github.com/pagehound/pagehound/internal/extract"
	"github.com/pagehound/pagehound/internal/telemetry"
)

// RobotsPolicy answers whether a URL may be fetched at all. A rejection is
// terminal for the task, not an error.
type RobotsPolicy interface {
	Allowed(rawURL string) bool
}

// Config controls Pool behavior.
type Config struct {
	Workers        int
	FollowExternal bool
}

// Pool runs N workers against a shared frontier. Each worker claims tasks,
// applies the robots policy, fetches, extracts, and emits page records while
// feeding discovered links back into the frontier.
type Pool struct {
	frontier *crawler.Frontier
	fetcher  crawler.Fetcher
	robots   RobotsPolicy
	retry    *crawler.RetryPolicy
	clock    crawler.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Pool.
func New(
	frontier *crawler.Frontier,
	fetcher crawler.Fetcher,
	robots RobotsPolicy,
	retry *crawler.RetryPolicy,
	clock crawler.Clock,
	cfg Config,
	logger *zap.Logger,
) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Pool{
		frontier: frontier,
		fetcher:  fetcher,
		robots:   robots,
		retry:    retry,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run blocks until the frontier is exhausted or the context ends, then
// closes records. Exactly one record is emitted per successfully fetched
// page.
func (p *Pool) Run(ctx context.Context, records chan<- crawler.PageRecord) {
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.loop(ctx, id, records)
		}(i)
	}
	wg.Wait()
	close(records)
}

func (p *Pool) loop(ctx context.Context, id int, records chan<- crawler.PageRecord) {
	for {
		task, err := p.frontier.Next(ctx)
		if err != nil {
			if !errors.Is(err, crawler.ErrExhausted) && ctx.Err() == nil {
				p.logger.Error("frontier next failed", zap.Int("worker", id), zap.Error(err))
			}
			return
		}
		p.processTask(ctx, task, records)
	}
}

func (p *Pool) processTask(ctx context.Context, task crawler.Task, records chan<- crawler.PageRecord) {
	if p.robots != nil && !p.robots.Allowed(task.URL) {
		telemetry.ObserveRobotsDenied(task.Host)
		p.logger.Info("fetch blocked by robots policy",
			zap.String("url", task.URL), zap.String("host", task.Host))
		p.frontier.Abandon(task)
		return
	}

	resp, err := p.fetcher.Fetch(ctx, task.URL)
	if resp.StatusCode != 0 {
		telemetry.ObservePageFetched(resp.StatusCode)
	}
	if err != nil {
		p.handleFailure(task, err)
		return
	}

	content, err := extract.Extract(resp.Body, task.URL)
	if err != nil {
		p.logger.Warn("extract failed", zap.String("url", task.URL), zap.Error(err))
		p.frontier.Abandon(task)
		return
	}

	record := crawler.PageRecord{
		URL:         task.URL,
		Title:       content.Title,
		Body:        content.Body,
		Headings:    content.Headings,
		Description: content.Description,
		FetchedAt:   p.clock.Now(),
		Depth:       task.Depth,
	}
	select {
	case records <- record:
	case <-ctx.Done():
		p.frontier.Done(task)
		return
	}

	p.enqueueLinks(task, content.Links)
	p.frontier.Done(task)
	p.logger.Debug("page processed",
		zap.String("url", task.URL),
		zap.Int("depth", task.Depth),
		zap.Int("links", len(content.Links)))
}

func (p *Pool) handleFailure(task crawler.Task, err error) {
	if p.retry != nil && p.retry.ShouldRetry(err, task.Attempt) {
		delay := p.retry.Backoff(task.Attempt)
		telemetry.ObserveFetchRetry()
		p.logger.Warn("fetch failed; will retry",
			zap.String("url", task.URL),
			zap.Int("attempt", task.Attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		p.frontier.Retry(task, delay)
		return
	}
	telemetry.ObserveTaskFailed()
	p.logger.Error("fetch failed permanently",
		zap.String("url", task.URL),
		zap.Int("attempt", task.Attempt),
		zap.Error(err))
	p.frontier.Abandon(task)
}

func (p *Pool) enqueueLinks(task crawler.Task, links []string) {
	for _, link := range links {
		canonical, err := crawler.CanonicalURL(link)
		if err != nil {
			continue
		}
		if !crawler.ShouldFollow(task.URL, canonical, p.cfg.FollowExternal) {
			continue
		}
		p.frontier.Push(canonical, task.Depth+1)
	}
}
