package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/config"
)

var testsCmd = &cobra.Command{
	Use:   "tests [-- test args...]",
	Short: "Run the test suite in the dev image",
	Long: `Run the test command in a throwaway container from image-dev with the
working directory mounted. Arguments after -- are appended to the test
command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return newStack(cmd, cfg).Tests(cmd.Context(), args)
	},
}

var compileRequirementsCmd = &cobra.Command{
	Use:   "compile-requirements",
	Short: "Compile the requirements lock files",
	Long: `Run the lock command for each requirements input in the dev image.
The inputs are compiled in order and the first failure stops the chain.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := newStack(cmd, cfg).CompileRequirements(cmd.Context()); err != nil {
			return err
		}
		if !cfg.DryRun {
			color.Green("✓ Compiled %d requirements files", len(cfg.Requirements))
		}
		return nil
	},
}
