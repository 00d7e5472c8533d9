package cli

import (
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/cleanup"
	"github.com/mustang-stock/mustangctl/internal/config"
	"github.com/mustang-stock/mustangctl/internal/engine"
)

var cleanAll bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove this checkout's containers and images",
	Long: `Remove the containers stop would remove, then image-dev and image-prod,
then prune unused networks, volumes and build cache.

With --all every container and every image on the host is removed. This
requires CONFIRM=1 or --confirm.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		return connect(func(eng engine.Engine) error {
			cleaner := cleanup.New(eng, slog.Default(), cfg.DryRun)

			var report *cleanup.Report
			if cleanAll {
				color.Yellow("⚠ Removing ALL containers and images on this host")
				report, err = cleaner.CleanAll(cmd.Context(), cfg.Confirm)
			} else {
				color.Cyan("Cleaning project %s...", cfg.Project)
				report, err = cleaner.Clean(cmd.Context(), scopeOf(cfg))
			}
			if err != nil {
				return err
			}

			printRemoved(report)
			if !report.DryRun {
				p := report.Pruned
				color.Cyan("Pruned %d networks, %d volumes, %d build caches (%d bytes reclaimed)",
					len(p.NetworksDeleted), len(p.VolumesDeleted), len(p.CachesDeleted), p.SpaceReclaimed)
			}
			printWarnings(report)
			color.Green("✓ Clean finished")
			return nil
		})
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every container and image on the host")
	cleanCmd.Flags().Bool("confirm", false, "Confirm --all (same as CONFIRM=1)")
}
