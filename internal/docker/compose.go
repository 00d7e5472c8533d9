package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moby/term"

	"github.com/mustang-stock/mustangctl/internal/config"
)

// Stack runs the application workflows against the configured images and
// compose project
type Stack struct {
	cfg    *config.Config
	runner *Runner
}

// NewStack creates a stack for cfg
func NewStack(cfg *config.Config, runner *Runner) *Stack {
	return &Stack{cfg: cfg, runner: runner}
}

// Tests runs the test command in an ephemeral dev container with the working
// directory mounted
func (s *Stack) Tests(ctx context.Context, extra []string) error {
	args := append(strings.Fields(s.cfg.TestCommand), extra...)
	return s.runner.Run(ctx, s.devRunArgs(args...)...)
}

// CompileRequirements runs the lock command for every requirements input in
// order and stops at the first failure
func (s *Stack) CompileRequirements(ctx context.Context) error {
	lock := strings.Fields(s.cfg.LockCommand)
	for _, req := range s.cfg.Requirements {
		args := append(append([]string{}, lock...), filepath.ToSlash(req))
		if err := s.runner.Run(ctx, s.devRunArgs(args...)...); err != nil {
			return fmt.Errorf("compile %s: %w", req, err)
		}
	}
	return nil
}

// Shell opens bash in the prod image. Nothing from the host is mounted.
func (s *Stack) Shell(ctx context.Context) error {
	args := []string{"run", "--rm"}
	args = append(args, s.interactiveFlags()...)
	args = append(args, s.cfg.ImageProd, "bash")
	return s.runner.Run(ctx, args...)
}

// ShellDev opens bash in the compose service
func (s *Stack) ShellDev(ctx context.Context) error {
	return s.runner.Run(ctx, s.composeArgs("run", "--rm", s.cfg.Service, "bash")...)
}

// Runserver starts the Django development server with the service ports
// published
func (s *Stack) Runserver(ctx context.Context) error {
	return s.runner.Run(ctx, s.composeArgs(
		"run", "--rm", "--service-ports", s.cfg.Service,
		"python", "manage.py", "runserver", "0.0.0.0:"+strconv.Itoa(s.cfg.Port),
	)...)
}

// Manage runs a Django management command in the compose service
func (s *Stack) Manage(ctx context.Context, command string, extra ...string) error {
	args := []string{"run", "--rm", s.cfg.Service, "python", "manage.py", command}
	return s.runner.Run(ctx, s.composeArgs(append(args, extra...)...)...)
}

// Superuser creates the admin account without prompting. The password is
// forwarded from the environment so it never shows up in the process list.
func (s *Stack) Superuser(ctx context.Context) error {
	su := s.cfg.Superuser
	runner := s.runner.WithEnv("DJANGO_SUPERUSER_PASSWORD=" + su.Password)
	return runner.Run(ctx, s.composeArgs(
		"run", "--rm",
		"-e", "DJANGO_SUPERUSER_USERNAME="+su.Username,
		"-e", "DJANGO_SUPERUSER_EMAIL="+su.Email,
		"-e", "DJANGO_SUPERUSER_PASSWORD",
		s.cfg.Service,
		"python", "manage.py", "createsuperuser", "--noinput",
	)...)
}

func (s *Stack) devRunArgs(command ...string) []string {
	args := []string{
		"run", "--rm",
		"-v", s.cfg.WorkDir + ":" + s.cfg.AppDir,
		"-w", s.cfg.AppDir,
		s.cfg.ImageDev,
	}
	return append(args, command...)
}

// composeArgs pins the project name so containers carry the label that
// stop and clean discover by
func (s *Stack) composeArgs(args ...string) []string {
	all := []string{"compose", "-p", s.cfg.Project}
	if file := s.composeFile(); file != "" {
		all = append(all, "-f", file)
	}
	return append(all, args...)
}

func (s *Stack) composeFile() string {
	if s.cfg.ComposeFile == "" {
		return ""
	}
	path := s.cfg.ComposeFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.WorkDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		// let compose fall back to its own file discovery
		return ""
	}
	return path
}

func (s *Stack) interactiveFlags() []string {
	if _, isTerm := term.GetFdInfo(s.runner.Stdin); isTerm {
		return []string{"-it"}
	}
	return []string{"-i"}
}
