package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/config"
)

var migrationsCmd = &cobra.Command{
	Use:   "migrations [app...]",
	Short: "Create new migrations (makemigrations)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return manage(cmd, "makemigrations", args)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [app [migration]]",
	Short: "Apply migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return manage(cmd, "migrate", args)
	},
}

var superuserCmd = &cobra.Command{
	Use:   "superuser",
	Short: "Create the admin user",
	Long: `Create a Django superuser without prompting. The credentials come from
superuser-username, superuser-email and superuser-password
(MUSTANG_SUPERUSER_*).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := newStack(cmd, cfg).Superuser(cmd.Context()); err != nil {
			return err
		}
		if !cfg.DryRun {
			color.Green("✓ Superuser %s created", cfg.Superuser.Username)
		}
		return nil
	},
}

func manage(cmd *cobra.Command, command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return newStack(cmd, cfg).Manage(cmd.Context(), command, args...)
}
