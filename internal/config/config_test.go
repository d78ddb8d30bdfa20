package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 10, cfg.Crawler.Concurrency)
	require.Equal(t, 3, cfg.Crawler.MaxDepth)
	require.True(t, cfg.Politeness.RespectRobots)
	require.False(t, cfg.Politeness.FailOpen)
	require.Equal(t, "tfidf", cfg.Rank.Algorithm)
	require.InDelta(t, 2.0, cfg.Rank.TitleBoost, 1e-9)
	require.Equal(t, 200, cfg.Snippet.MaxLength)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
crawler:
  concurrency: 3
  max_pages: 50
politeness:
  fail_open: true
snippet:
  max_length: 120
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Crawler.Concurrency)
	require.Equal(t, 50, cfg.Crawler.MaxPages)
	require.True(t, cfg.Politeness.FailOpen)
	require.Equal(t, 120, cfg.Snippet.MaxLength)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Crawler.Concurrency = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Rank.Algorithm = "bm25"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Snippet.MaxLength = 0
	require.Error(t, bad.Validate())
}
