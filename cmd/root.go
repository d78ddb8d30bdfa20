// Package cmd defines the CLI commands for the pagehound executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pagehound/pagehound/internal/config"
	"github.com/pagehound/pagehound/internal/engine"
	"github.com/pagehound/pagehound/internal/logging"
	"github.com/pagehound/pagehound/internal/store"
	"github.com/pagehound/pagehound/internal/store/memory"
	"github.com/pagehound/pagehound/internal/store/postgres"
)

var cfgFile string

// app bundles the services every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	engine *engine.Engine
	docs   store.DocumentStore
}

func buildApp(ctx context.Context, snapshotOverride string) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if snapshotOverride != "" {
		cfg.Index.SnapshotPath = snapshotOverride
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	docs, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(cfg, docs, logger)
	if err != nil {
		docs.Close()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, engine: eng, docs: docs}, nil
}

func buildStore(ctx context.Context, cfg config.Config) (store.DocumentStore, error) {
	if cfg.DB.DSN == "" {
		return memory.New(), nil
	}
	s, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: int32(cfg.DB.MaxOpenConns),
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres store: %w", err)
	}
	return s, nil
}

func (a *app) close() {
	a.docs.Close()
	// Sync on stderr returns EINVAL on some platforms; nothing to do about it.
	_ = a.logger.Sync()
}

// restoreIndex brings the engine's index up before a read-only command. The
// snapshot is preferred; a populated document store is the fallback when the
// snapshot is missing or unreadable.
func (a *app) restoreIndex(ctx context.Context) error {
	if a.cfg.Index.SnapshotPath != "" {
		err := a.engine.LoadSnapshot()
		if err == nil {
			return nil
		}
		a.logger.Warn("snapshot load failed; trying document store", zap.Error(err))
	}
	n, err := a.engine.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no index available: run a crawl first")
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagehound",
		Short: "A polite concurrent web crawler and search engine.",
		Long: `pagehound crawls the web within configurable page and depth bounds,
builds an inverted index with TF-IDF ranking, and serves search results
over a CLI or an HTTP API.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.AddCommand(newCrawlCmd(), newSearchCmd(), newServeCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
