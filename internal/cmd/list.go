package cmd

import (
	"github.com/spf13/cobra"

	cleaner "github.com/ideamans/go-artifact-cleaner"
	"github.com/ideamans/go-artifact-cleaner/internal/display"
)

// newListCommand creates the list command
func newListCommand(opts *cleanOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List the items a clean would remove",
		Long: `List scans the tree exactly like a clean and prints the pruned items
with their sizes. Nothing is deleted and no safety checks are run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			cc := cfg.CleaningConfig()
			cc.DryRun = true
			plan, err := cleaner.Prepare(rootPath(args), cc)
			if err != nil {
				return err
			}

			if jsonOutput {
				items := plan.Items
				if items == nil {
					items = []cleaner.CandidateItem{}
				}
				return display.PrintJSON(cmd.OutOrStdout(), items)
			}
			display.PrintItems(cmd.OutOrStdout(), plan.Items)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print items as a JSON array")

	return cmd
}
