package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/config"
)

var runserverCmd = &cobra.Command{
	Use:   "runserver",
	Short: "Start the Django development server",
	Long: `Start the Django development server in the compose service with its
ports published. The server runs in the foreground; Ctrl-C stops it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if !cfg.DryRun {
			color.Cyan("Starting %s (project %s)...", cfg.Service, cfg.Project)
			color.Cyan("  App:   %s", cfg.SiteURL)
			color.Cyan("  Admin: %s/admin/", cfg.SiteURL)
		}

		return newStack(cmd, cfg).Runserver(cmd.Context())
	},
}

func init() {
	runserverCmd.Flags().Int("port", config.DefaultPort, "Port the server listens on inside the container")
}
