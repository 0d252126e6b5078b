package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the config command
func newConfigCommand(opts *cleanOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the configuration a clean would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			data, err := cfg.Marshal()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Path != "" {
				fmt.Fprintf(out, "# Loaded from %s\n", cfg.Path)
			} else {
				fmt.Fprintln(out, "# Built-in defaults")
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}
