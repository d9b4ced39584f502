package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print item count and total stored bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, cfg, err := openLibrary(ctx, opts)
			if err != nil {
				return err
			}
			defer lib.Close()

			stats := lib.CurrentStats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Library:     %s\n", cfg.Library.Root)
			fmt.Fprintf(out, "Items:       %s\n", humanize.Comma(int64(stats.ItemCount)))
			fmt.Fprintf(out, "Total size:  %s (%s bytes)\n",
				humanize.IBytes(uint64(stats.TotalBytes)), humanize.Comma(stats.TotalBytes))
			return nil
		},
	}
}
