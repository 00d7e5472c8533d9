// Package docker runs the docker and docker compose CLIs for the commands
// that need an attached, interactive process: shells, test runs and Django
// management commands.
//
// Child processes inherit the terminal, so Ctrl-C reaches them directly.
// Their exit codes are carried back as *ExitError.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ExitError reports a child process that exited non-zero
type ExitError struct {
	Code int
	Cmd  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Cmd, e.Code)
}

// Runner executes the docker CLI. When DryRun is set it only prints the
// command line to Stderr.
type Runner struct {
	Binary string
	DryRun bool
	Env    []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logger *slog.Logger
}

// NewRunner creates a runner wired to the process stdio
func NewRunner(dryRun bool, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Binary: "docker",
		DryRun: dryRun,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logger,
	}
}

// WithEnv returns a copy of r whose children also get env. Values passed this
// way stay out of argv and out of the dry-run echo.
func (r *Runner) WithEnv(env ...string) *Runner {
	c := *r
	c.Env = append(append([]string(nil), r.Env...), env...)
	return &c
}

// Run executes the docker CLI with args and waits for it
func (r *Runner) Run(ctx context.Context, args ...string) error {
	line := r.Binary + " " + strings.Join(args, " ")
	if r.DryRun {
		fmt.Fprintln(r.Stderr, "+ "+line)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.logger.Debug("exec", slog.String("cmd", line))

	cmd := exec.Command(r.Binary, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &ExitError{Code: ee.ExitCode(), Cmd: r.Binary + " " + firstArgs(args)}
		}
		return fmt.Errorf("%s failed: %w", r.Binary, err)
	}
	return nil
}

// firstArgs keeps error messages short: "compose run", "run"
func firstArgs(args []string) string {
	if len(args) == 0 {
		return ""
	}
	if args[0] != "compose" {
		return args[0]
	}
	for _, a := range args[1:] {
		switch a {
		case "run", "up", "exec":
			return "compose " + a
		}
	}
	return "compose"
}
