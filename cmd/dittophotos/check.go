package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var errInconsistent = errors.New("library is inconsistent")

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the catalog against the files on disk",
		Long: `Check reports stored files that are not cataloged (orphans), cataloged items
whose file is gone, and size drift between catalog and disk. With --prune,
orphans are deleted before the report is produced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, _, err := openLibrary(ctx, opts)
			if err != nil {
				return err
			}
			defer lib.Close()

			out := cmd.OutOrStdout()

			if prune {
				n, err := lib.PruneOrphans(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d orphaned files\n", n)
			}

			report, err := lib.Check(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Items:   %d (%s cataloged, %s on disk)\n",
				report.Stats.ItemCount,
				humanize.IBytes(uint64(report.Stats.TotalBytes)),
				humanize.IBytes(uint64(report.StoredBytes)))
			for _, id := range report.Orphans {
				fmt.Fprintf(out, "orphan:  %s\n", id)
			}
			for _, id := range report.Missing {
				fmt.Fprintf(out, "missing: %s\n", id)
			}
			for _, d := range report.SizeDrift {
				fmt.Fprintf(out, "drift:   %s cataloged=%d stored=%d\n", d.ID, d.Cataloged, d.Stored)
			}
			for _, id := range report.StaleEntries {
				fmt.Fprintf(out, "stale:   %s\n", id)
			}

			if !report.Consistent {
				return errInconsistent
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "delete orphaned files first")

	return cmd
}
