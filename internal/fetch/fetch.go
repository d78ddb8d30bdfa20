// Package fetch implements the page Fetcher using gocolly.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/pagehound/pagehound/internal/crawler"
)

// ErrHTTPStatus reports a fetch that completed with a non-success status.
var ErrHTTPStatus = errors.New("unexpected http status")

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Client implements crawler.Fetcher using a Colly collector. Robots handling
// is owned by the politeness gate, so the collector's own robots support is
// disabled.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// URL dedup is owned by crawler.VisitedSet; clones share the collector's
	// visited store, so revisits must stay legal for retries to refetch.
	c.AllowURLRevisit = true
	return &Client{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET. The context bounds the whole request;
// an in-flight fetch is abandoned (not forcibly killed) when it ends.
func (c *Client) Fetch(ctx context.Context, url string) (crawler.FetchResponse, error) {
	var (
		result   crawler.FetchResponse
		fetchErr error
	)
	start := time.Now()

	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		result = crawler.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.URL = url
			result.StatusCode = r.StatusCode
			result.Duration = time.Since(start)
		}
		fetchErr = err
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := collector.Visit(url); err != nil && fetchErr == nil {
			fetchErr = err
		}
		collector.Wait()
	}()

	select {
	case <-ctx.Done():
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s: %w", url, ctx.Err())
	case <-done:
	}

	if fetchErr != nil {
		return result, fmt.Errorf("fetch %s: %w", url, fetchErr)
	}
	if result.StatusCode != http.StatusOK {
		return result, fmt.Errorf("fetch %s: %w: %d", url, ErrHTTPStatus, result.StatusCode)
	}
	return result, nil
}
