package crawler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGateForServer(t *testing.T, srv *httptest.Server, cfg GateConfig) *Gate {
	t.Helper()
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pagehound-test"
	}
	g := NewGate(cfg, zap.NewNop())
	g.client = srv.Client()
	return g
}

func TestGateAllowsAndDeniesPerRobots(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := newGateForServer(t, srv, GateConfig{RespectRobots: true})
	require.True(t, g.Allowed(srv.URL+"/public/page"))
	require.False(t, g.Allowed(srv.URL+"/private/page"))
}

func TestGateCachesRobotsPerHost(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
		}
	}))
	defer srv.Close()

	g := newGateForServer(t, srv, GateConfig{RespectRobots: true})
	for i := 0; i < 5; i++ {
		require.True(t, g.Allowed(srv.URL+"/page"))
	}
	require.Equal(t, int64(1), robotsHits.Load(), "robots.txt fetched once within TTL")
}

func TestGateRobotsFetchFailureFailClosed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // unreachable host

	g := NewGate(GateConfig{RespectRobots: true, UserAgent: "pagehound-test"}, zap.NewNop())
	require.False(t, g.Allowed(srv.URL+"/page"))
}

func TestGateRobotsFetchFailureFailOpen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	g := NewGate(GateConfig{RespectRobots: true, FailOpen: true, UserAgent: "pagehound-test"}, zap.NewNop())
	require.True(t, g.Allowed(srv.URL+"/page"))
}

func TestGateMissingRobotsAllowsAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	g := newGateForServer(t, srv, GateConfig{RespectRobots: true})
	require.True(t, g.Allowed(srv.URL+"/anything"))
}

func TestGateDisabledSkipsRobots(t *testing.T) {
	t.Parallel()

	g := NewGate(GateConfig{RespectRobots: false, UserAgent: "pagehound-test"}, zap.NewNop())
	require.True(t, g.Allowed("http://never-resolved.invalid/page"))
}

func TestGateReserveHostPacesRequests(t *testing.T) {
	t.Parallel()

	g := NewGate(GateConfig{
		RespectRobots: false,
		UserAgent:     "pagehound-test",
		DefaultDelay:  50 * time.Millisecond,
	}, zap.NewNop())

	require.Zero(t, g.ReserveHost("example.com"), "first reservation is immediate")
	delay := g.ReserveHost("example.com")
	require.Positive(t, delay, "second reservation must wait the host interval")
	require.LessOrEqual(t, delay, 50*time.Millisecond)
	require.Zero(t, g.ReserveHost("other.com"), "pacing is per host")
}

func TestGateCrawlDelayRaisesInterval(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nCrawl-delay: 2\n"))
		}
	}))
	defer srv.Close()

	g := newGateForServer(t, srv, GateConfig{
		RespectRobots: true,
		DefaultDelay:  10 * time.Millisecond,
	})
	require.True(t, g.Allowed(srv.URL+"/page"))

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	require.Zero(t, g.ReserveHost(u.Host))
	delay := g.ReserveHost(u.Host)
	require.Greater(t, delay, time.Second, "crawl-delay directive should win over the default")
}
