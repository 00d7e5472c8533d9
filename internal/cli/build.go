package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/config"
	"github.com/mustang-stock/mustangctl/internal/engine"
)

var buildDevCmd = &cobra.Command{
	Use:   "build-dev",
	Short: "Build the dev image",
	Long: `Build the dev stage of the Dockerfile and tag it as image-dev.

The working directory is sent as build context; .dockerignore is honored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return build(cmd, cfg, "dev", cfg.ImageDev)
	},
}

var buildProdCmd = &cobra.Command{
	Use:   "build-prod",
	Short: "Build the prod image",
	Long:  `Build the prod stage of the Dockerfile and tag it as image-prod.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return build(cmd, cfg, "prod", cfg.ImageProd)
	},
}

func build(cmd *cobra.Command, cfg *config.Config, target, tag string) error {
	if cfg.DryRun {
		fmt.Fprintf(cmd.ErrOrStderr(), "+ docker build --target %s -t %s -f %s %s\n", target, tag, cfg.Dockerfile, cfg.WorkDir)
		return nil
	}

	color.Cyan("Building %s (target %s)...", tag, target)

	err := connect(func(eng engine.Engine) error {
		return eng.BuildImage(cmd.Context(), engine.BuildRequest{
			ContextDir: cfg.WorkDir,
			Dockerfile: cfg.Dockerfile,
			Target:     target,
			Tag:        tag,
		}, cmd.OutOrStdout())
	})
	if err != nil {
		color.Red("✗ Build failed: %v", err)
		return err
	}

	color.Green("✓ Built %s", tag)
	return nil
}
