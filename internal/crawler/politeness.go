package crawler

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// GateConfig controls robots handling and per-host pacing.
type GateConfig struct {
	UserAgent     string
	RespectRobots bool
	// FailOpen allows fetching when robots.txt itself cannot be retrieved.
	// The default is fail-closed: an unreachable robots.txt blocks the host
	// until the cached failure expires.
	FailOpen     bool
	CacheTTL     time.Duration
	DefaultDelay time.Duration
}

// Gate enforces robots.txt directives and a minimum inter-request interval
// per host. Policies are fetched lazily and cached with a TTL.
type Gate struct {
	cfg    GateConfig
	client *http.Client
	logger *zap.Logger

	mu    sync.Mutex
	hosts map[string]*hostEntry
}

type hostEntry struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	robots   *robotstxt.RobotsData
	fetchErr error
	expires  time.Time
}

// NewGate builds a Gate.
func NewGate(cfg GateConfig, logger *zap.Logger) *Gate {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.DefaultDelay <= 0 {
		cfg.DefaultDelay = 500 * time.Millisecond
	}
	return &Gate{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		hosts:  make(map[string]*hostEntry),
	}
}

// Allowed consults the cached robots policy for the URL's host, fetching and
// parsing robots.txt on first access or after expiry. A rejection here means
// the URL must never be fetched; it is not an error.
func (g *Gate) Allowed(rawURL string) bool {
	if !g.cfg.RespectRobots {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	entry := g.host(parsed.Host)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	g.refreshLocked(entry, parsed)

	if entry.robots == nil {
		if g.cfg.FailOpen {
			return true
		}
		g.logger.Warn("robots unavailable; failing closed",
			zap.String("host", parsed.Host), zap.Error(entry.fetchErr))
		return false
	}
	group := entry.robots.FindGroup(g.cfg.UserAgent)
	if group == nil {
		return true
	}
	return group.Test(parsed.Path)
}

// ReserveHost implements HostGate. It consumes the host's next pacing slot
// when one is available and otherwise returns the remaining wait without
// consuming anything, so callers can defer the task instead of blocking.
func (g *Gate) ReserveHost(host string) time.Duration {
	entry := g.host(host)
	entry.mu.Lock()
	limiter := entry.limiter
	entry.mu.Unlock()

	r := limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return delay
	}
	return 0
}

func (g *Gate) host(host string) *hostEntry {
	key := strings.ToLower(host)
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.hosts[key]
	if !ok {
		entry = &hostEntry{
			limiter: rate.NewLimiter(rate.Every(g.cfg.DefaultDelay), 1),
		}
		g.hosts[key] = entry
	}
	return entry
}

// refreshLocked re-fetches the robots policy when the cached one expired.
// Fetch failures are cached like successes so an unreachable host is not
// hammered once per task.
func (g *Gate) refreshLocked(entry *hostEntry, parsed *url.URL) {
	if time.Now().Before(entry.expires) {
		return
	}
	data, err := g.fetchRobots(parsed)
	entry.robots = data
	entry.fetchErr = err
	entry.expires = time.Now().Add(g.cfg.CacheTTL)
	if err != nil {
		return
	}

	// A crawl-delay directive raises the host interval, never lowers it.
	if group := data.FindGroup(g.cfg.UserAgent); group != nil && group.CrawlDelay > g.cfg.DefaultDelay {
		entry.limiter.SetLimit(rate.Every(group.CrawlDelay))
		g.logger.Debug("crawl-delay applied",
			zap.String("host", parsed.Host),
			zap.Duration("delay", group.CrawlDelay))
	}
}

func (g *Gate) fetchRobots(parsed *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := &url.URL{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   "/robots.txt",
	}
	req, err := http.NewRequest(http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Debug("close robots body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}
