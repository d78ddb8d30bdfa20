package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		limit    int
		offset   int
		snapshot string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, snapshot)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.restoreIndex(ctx); err != nil {
				return err
			}

			query := strings.Join(args, " ")
			results, err := a.engine.Search(ctx, query, limit, offset)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			}
			out := cmd.OutOrStdout()
			for i, r := range results {
				fmt.Fprintf(out, "%2d. %s (%.4f)\n    %s\n", offset+i+1, r.Title, r.Score, r.URL)
				if r.Snippet.Text != "" {
					fmt.Fprintf(out, "    %s\n", r.Snippet.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results to print")
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "index snapshot path override")
	return cmd
}
