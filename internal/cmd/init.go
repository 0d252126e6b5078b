package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ideamans/go-artifact-cleaner/internal/config"
)

// newInitCommand creates the init command
func newInitCommand() *cobra.Command {
	var global, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Long: `Init writes the default configuration to ` + config.ProjectFileName + ` in the
current directory, or to the user configuration directory with --global.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initPath(global)
			if err != nil {
				return err
			}

			if err := config.DefaultConfig().Save(path, force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Write the user-wide configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

func initPath(global bool) (string, error) {
	if global {
		path, err := config.GlobalConfigPath()
		if err != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		return path, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(wd, config.ProjectFileName), nil
}
