package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittophotos/pkg/config"
)

func newInitCommand() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path != "" {
				if err := config.InitConfigToPath(path, force); err != nil {
					return err
				}
			} else {
				var err error
				if path, err = config.InitConfig(force); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().StringVarP(&path, "output", "o", "", "write to this path instead of the default location")

	return cmd
}
