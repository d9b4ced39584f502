package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittophotos/pkg/media"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "export <id|#index> <destination>",
		Short: "Export an item to a file",
		Long: `Export decodes the stored item and writes it to destination. The target
format is taken from --format or, when omitted, from the destination
extension. The stored item is never modified.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			dest := args[1]

			var format media.Format
			if formatName != "" {
				format, err = media.ParseFormat(formatName)
			} else {
				format, err = media.FormatFromPath(dest)
			}
			if err != nil {
				return fmt.Errorf("cannot determine export format: %w", err)
			}

			ctx := cmd.Context()
			lib, _, err := openLibrary(ctx, opts)
			if err != nil {
				return err
			}
			defer lib.Close()

			if t.byID {
				err = lib.Export(ctx, t.id, format, dest)
			} else {
				err = lib.ExportAt(ctx, t.index, format, dest)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s (%s)\n", t, dest, format)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "export format (png, jpeg, gif, tiff, bmp, canonical)")

	return cmd
}
