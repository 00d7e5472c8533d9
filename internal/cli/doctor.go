package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/appenv"
	"github.com/mustang-stock/mustangctl/internal/compose"
	"github.com/mustang-stock/mustangctl/internal/config"
	"github.com/mustang-stock/mustangctl/internal/engine"
)

var showAuthURL bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the stack can start",
	Long: `Check the container engine, the Dockerfile and compose file, and the
environment variables the application needs (Google sign-in and Alpha Vantage
keys). Exits non-zero when a required check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		failed := 0
		fail := func(format string, a ...any) {
			failed++
			color.Red("✗ "+format, a...)
		}

		err = connect(func(eng engine.Engine) error {
			return eng.Ping(cmd.Context())
		})
		if err != nil {
			fail("Docker engine: %v", err)
		} else {
			color.Green("✓ Docker engine reachable")
		}

		if _, err := os.Stat(filepath.Join(cfg.WorkDir, cfg.Dockerfile)); err != nil {
			fail("Dockerfile: %v", err)
		} else {
			color.Green("✓ Dockerfile %s", cfg.Dockerfile)
		}

		checkComposeFile(cfg)

		env := appenv.Check(os.Getenv)
		for _, v := range env.Vars {
			switch {
			case v.Present:
				color.Green("✓ %s", v.Name)
			case v.Required:
				fail("%s is not set", v.Name)
			default:
				color.Yellow("⚠ %s is not set (optional)", v.Name)
			}
		}

		if showAuthURL {
			oauth, err := appenv.OAuthConfig(os.Getenv, cfg.SiteURL)
			if err != nil {
				fail("Google sign-in: %v", err)
			} else {
				color.Cyan("\nGoogle authorization URL:")
				fmt.Fprintln(cmd.OutOrStdout(), appenv.AuthURL(oauth, "mustangctl-doctor"))
				color.Cyan("Redirect URI to register: %s", oauth.RedirectURL)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d checks failed", failed)
		}
		color.Green("\n✓ All checks passed")
		return nil
	},
}

// checkComposeFile only warns: compose falls back to its own file discovery
func checkComposeFile(cfg *config.Config) {
	path := cfg.ComposeFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.WorkDir, path)
	}

	file, err := compose.Load(path)
	if err != nil {
		color.Yellow("⚠ Compose file: %v", err)
		return
	}
	if !file.HasService(cfg.Service) {
		color.Yellow("⚠ Compose file %s has no service %q (services: %v)", cfg.ComposeFile, cfg.Service, file.ServiceNames())
		return
	}
	color.Green("✓ Compose file %s (service %s)", cfg.ComposeFile, cfg.Service)
}

func init() {
	doctorCmd.Flags().BoolVar(&showAuthURL, "show-auth-url", false, "Print the Google authorization URL")
}
