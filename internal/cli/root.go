// Package cli implements the mustangctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mustang-stock/mustangctl/internal/config"
	"github.com/mustang-stock/mustangctl/internal/docker"
	"github.com/mustang-stock/mustangctl/internal/engine"
)

var configFile string

// newEngine connects to the container engine. Tests replace it.
var newEngine = func(logger *slog.Logger) (engine.Engine, error) {
	return engine.NewDocker(logger)
}

var rootCmd = &cobra.Command{
	Use:   "mustangctl",
	Short: "Build, run and clean up the mustang Django stack",
	Long: `mustangctl drives the mustang development workflow: building the dev
and prod images, running tests and management commands in containers,
and removing the containers that belong to this checkout.

Configuration is read from flags, then environment (IMAGE_DEV, IMAGE_PROD,
PROJECT, CONFIRM, MUSTANG_*), then mustang.yaml, then defaults.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./mustang.yaml or $HOME/.mustang/mustang.yaml)")
	flags.String("image-dev", config.DefaultImageDev, "Dev image tag")
	flags.String("image-prod", config.DefaultImageProd, "Prod image tag")
	flags.StringP("project", "p", "", "Compose project name (default: compose name or directory name)")
	flags.Bool("dry-run", false, "Print what would be done without doing it")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(
		buildDevCmd,
		buildProdCmd,
		testsCmd,
		compileRequirementsCmd,
		bashCmd,
		bashDevCmd,
		runserverCmd,
		migrationsCmd,
		migrateCmd,
		superuserCmd,
		stopCmd,
		cleanCmd,
		statusCmd,
		configCmd,
		doctorCmd,
		quoteCmd,
		fxCmd,
		versionCmd,
	)
}

// bindFlags wires flags into viper. It runs after config.Init because
// viper.Reset drops bindings.
func bindFlags() {
	for _, key := range []string{"image-dev", "image-prod", "project", "dry-run", "log-level"} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
	viper.BindPFlag("confirm", cleanCmd.Flags().Lookup("confirm"))
	viper.BindPFlag("port", runserverCmd.Flags().Lookup("port"))
}

// Execute runs the root command. A child process failure is returned as
// *docker.ExitError so main can exit with its code.
func Execute(version string) error {
	rootCmd.Version = version
	bindFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	var exitErr *docker.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
	}
	return err
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.UseFile(configFile); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// connect loads the engine and hands it to fn, closing it afterwards
func connect(fn func(engine.Engine) error) error {
	eng, err := newEngine(slog.Default())
	if err != nil {
		return err
	}
	defer eng.Close()
	return fn(eng)
}

// newStack builds a docker CLI stack that uses the command's streams
func newStack(cmd *cobra.Command, cfg *config.Config) *docker.Stack {
	runner := docker.NewRunner(cfg.DryRun, slog.Default())
	runner.Stdin = cmd.InOrStdin()
	runner.Stdout = cmd.OutOrStdout()
	runner.Stderr = cmd.ErrOrStderr()
	return docker.NewStack(cfg, runner)
}
