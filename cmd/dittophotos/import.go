package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittophotos/pkg/library"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var (
		workers int
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Import image files into the library",
		Long: `Import reads every given file, converts it to the canonical encoding and
stores it under a fresh identifier. Failures are reported per file and never
abort the rest of the batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			lib, _, err := openLibrary(ctx, opts)
			if err != nil {
				return err
			}
			defer lib.Close()

			out := cmd.OutOrStdout()
			ingestOpts := []library.IngestOption{}
			if workers > 0 {
				ingestOpts = append(ingestOpts, library.WithWorkers(workers))
			}
			if !quiet {
				ingestOpts = append(ingestOpts, library.WithProgress(func(p library.Progress) {
					if p.Err != nil {
						fmt.Fprintf(out, "[%d/%d] %s: %v\n", p.Done, p.Total, p.Path, p.Err)
						return
					}
					fmt.Fprintf(out, "[%d/%d] %s -> %s\n", p.Done, p.Total, p.Path, p.ID)
				}))
			}

			result, err := lib.Ingest(ctx, args, ingestOpts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Imported %d of %d files\n", len(result.Succeeded), len(args))
			if len(result.Failures) == 0 {
				return nil
			}

			var b strings.Builder
			for _, f := range result.Failures {
				fmt.Fprintf(&b, "\n  %s (%s): %s", f.Path, f.Kind, f.Message)
			}
			return fmt.Errorf("%d files failed to import:%s", len(result.Failures), b.String())
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel ingest workers (default library.workers)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print per-file progress")

	return cmd
}
