package cli

import (
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/cleanup"
	"github.com/mustang-stock/mustangctl/internal/config"
	"github.com/mustang-stock/mustangctl/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show this checkout's containers",
	Long:  `List the containers stop would remove, with their image and state.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		return connect(func(eng engine.Engine) error {
			found, err := cleanup.New(eng, slog.Default(), true).Discover(cmd.Context(), scopeOf(cfg))
			if err != nil {
				color.Red("✗ Failed to get status: %v", err)
				return err
			}

			if len(found) == 0 {
				color.Yellow("No containers found for project %s", cfg.Project)
				return nil
			}

			color.Cyan("Container     Name                     Image                State")
			color.Cyan("──────────────────────────────────────────────────────────────────────")
			for _, c := range found {
				printContainerStatus(c)
			}
			return nil
		})
	},
}

func printContainerStatus(c engine.Container) {
	var stateText string
	switch c.State {
	case "running":
		stateText = color.GreenString("✓ %s", c.State)
	case "exited", "dead":
		stateText = color.RedString("✗ %s", c.State)
	default:
		stateText = color.YellowString("⚠ %s", c.State)
	}

	color.New().Printf("%-13s %-24s %-20s %s\n", c.ShortID(), c.Name, c.Image, stateText)
}
