package cli

import (
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/config"
)

var bashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Open a shell in the prod image",
	Long:  `Open an interactive bash shell in a throwaway container from image-prod. Nothing is mounted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return newStack(cmd, cfg).Shell(cmd.Context())
	},
}

var bashDevCmd = &cobra.Command{
	Use:   "bash-dev",
	Short: "Open a shell in the compose service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return newStack(cmd, cfg).ShellDev(cmd.Context())
	},
}
