package cli

import (
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/mustang-stock/mustangctl/internal/cleanup"
	"github.com/mustang-stock/mustangctl/internal/config"
	"github.com/mustang-stock/mustangctl/internal/engine"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Remove this checkout's containers",
	Long: `Force-remove every container that belongs to this checkout: containers
created from image-dev or image-prod, containers of the compose project, and
containers that mount the working directory.

Failures to remove a container are reported as warnings and do not fail the
command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		color.Cyan("Stopping containers for project %s...", cfg.Project)

		return connect(func(eng engine.Engine) error {
			report, err := cleanup.New(eng, slog.Default(), cfg.DryRun).Stop(cmd.Context(), scopeOf(cfg))
			if err != nil {
				color.Red("✗ Failed to list containers: %v", err)
				return err
			}

			if len(report.Found) == 0 {
				color.Yellow("No containers found for project %s", cfg.Project)
				return nil
			}

			printRemoved(report)
			printWarnings(report)
			return nil
		})
	},
}

func scopeOf(cfg *config.Config) cleanup.Scope {
	return cleanup.Scope{
		Images:  cfg.Images(),
		Project: cfg.Project,
		WorkDir: cfg.WorkDir,
	}
}

func printRemoved(report *cleanup.Report) {
	verb := "Removed"
	if report.DryRun {
		verb = "Would remove"
	}
	names := make(map[string]string, len(report.Found))
	for _, c := range report.Found {
		names[c.ID] = c.Name
	}
	for _, id := range report.Removed {
		short := engine.Container{ID: id}.ShortID()
		if name := names[id]; name != "" {
			color.Green("✓ %s %s (%s)", verb, short, name)
		} else {
			color.Green("✓ %s %s", verb, short)
		}
	}
	for _, ref := range report.RemovedImages {
		color.Green("✓ %s image %s", verb, ref)
	}
}

func printWarnings(report *cleanup.Report) {
	for _, err := range multierr.Errors(report.Errors) {
		color.Yellow("⚠ %v", err)
	}
}
