package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|#index>",
		Aliases: []string{"rm"},
		Short:   "Delete an item from disk and from the catalog",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTarget(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			lib, _, err := openLibrary(ctx, opts)
			if err != nil {
				return err
			}
			defer lib.Close()

			if t.byID {
				err = lib.DeleteID(ctx, t.id)
			} else {
				err = lib.Delete(ctx, t.index)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", t)
			return nil
		},
	}
}
