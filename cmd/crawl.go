package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	var (
		seeds    []string
		maxPages int
		maxDepth int
		snapshot string
	)
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl from seed URLs and build the search index",
		Long: `Runs a crawl session from the given seed URLs, honoring robots.txt
and per-host pacing, and indexes every fetched page. The index is
snapshotted to disk so later search and serve commands can load it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, snapshot)
			if err != nil {
				return err
			}
			defer a.close()

			indexed, err := a.engine.Crawl(ctx, seeds, maxPages, maxDepth)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d pages\n", indexed)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&seeds, "seeds", nil, "seed URLs (defaults to crawler.seeds from config)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum pages to fetch (0 uses config)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum link depth (-1 uses config)")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "index snapshot path override")
	return cmd
}
