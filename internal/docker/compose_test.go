package docker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustang-stock/mustangctl/internal/config"
)

func testConfig(workDir string) *config.Config {
	return &config.Config{
		ImageDev:     "app:dev",
		ImageProd:    "app:prod",
		Project:      "demo",
		LogLevel:     "info",
		WorkDir:      workDir,
		Dockerfile:   "Dockerfile",
		ComposeFile:  "docker-compose.yml",
		Service:      "web",
		AppDir:       "/app",
		Port:         8000,
		TestCommand:  "python manage.py test",
		LockCommand:  "pip-compile --quiet",
		Requirements: []string{"requirements/base.in", "requirements/dev.in", "requirements/prod.in"},
		Superuser:    config.SuperuserConfig{Username: "admin", Email: "admin@example.com", Password: "admin"},
	}
}

// dryStack returns a stack whose runner prints commands into the returned buffer
func dryStack(cfg *config.Config) (*Stack, *bytes.Buffer) {
	var buf bytes.Buffer
	r := NewRunner(true, nil)
	r.Stdin = strings.NewReader("")
	r.Stderr = &buf
	return NewStack(cfg, r), &buf
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestTestsCommand(t *testing.T) {
	stack, buf := dryStack(testConfig("/src/mustang"))

	require.NoError(t, stack.Tests(context.Background(), []string{"stock"}))
	assert.Equal(t, []string{
		"+ docker run --rm -v /src/mustang:/app -w /app app:dev python manage.py test stock",
	}, lines(buf))
}

func TestCompileRequirementsRunsInOrder(t *testing.T) {
	stack, buf := dryStack(testConfig("/src/mustang"))

	require.NoError(t, stack.CompileRequirements(context.Background()))
	assert.Equal(t, []string{
		"+ docker run --rm -v /src/mustang:/app -w /app app:dev pip-compile --quiet requirements/base.in",
		"+ docker run --rm -v /src/mustang:/app -w /app app:dev pip-compile --quiet requirements/dev.in",
		"+ docker run --rm -v /src/mustang:/app -w /app app:dev pip-compile --quiet requirements/prod.in",
	}, lines(buf))
}

func TestCompileRequirementsStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "calls")
	script := filepath.Join(dir, "fake-docker")
	// fails on the second invocation
	body := "#!/bin/sh\necho \"$@\" >> " + log + "\n[ $(wc -l < " + log + ") -lt 2 ]\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	cfg := testConfig(dir)
	r := NewRunner(false, nil)
	r.Binary = script
	r.Stdin = strings.NewReader("")
	r.Stdout = &bytes.Buffer{}
	r.Stderr = &bytes.Buffer{}

	err := NewStack(cfg, r).CompileRequirements(context.Background())
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "requirements/dev.in")

	calls, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(calls)), "\n"), 2)
}

func TestShellUsesProdImageWithoutMounts(t *testing.T) {
	stack, buf := dryStack(testConfig("/src/mustang"))

	require.NoError(t, stack.Shell(context.Background()))
	assert.Equal(t, []string{"+ docker run --rm -i app:prod bash"}, lines(buf))
}

func TestComposeCommands(t *testing.T) {
	withFile := t.TempDir()
	composePath := filepath.Join(withFile, "docker-compose.yml")
	require.NoError(t, os.WriteFile(composePath, []byte("services:\n  web: {}\n"), 0o644))

	tests := []struct {
		name    string
		workDir string
		run     func(*Stack) error
		want    string
	}{
		{
			name:    "bash-dev",
			workDir: "/nowhere",
			run:     func(s *Stack) error { return s.ShellDev(context.Background()) },
			want:    "+ docker compose -p demo run --rm web bash",
		},
		{
			name:    "bash-dev with compose file",
			workDir: withFile,
			run:     func(s *Stack) error { return s.ShellDev(context.Background()) },
			want:    "+ docker compose -p demo -f " + composePath + " run --rm web bash",
		},
		{
			name:    "runserver",
			workDir: "/nowhere",
			run:     func(s *Stack) error { return s.Runserver(context.Background()) },
			want:    "+ docker compose -p demo run --rm --service-ports web python manage.py runserver 0.0.0.0:8000",
		},
		{
			name:    "migrations",
			workDir: "/nowhere",
			run:     func(s *Stack) error { return s.Manage(context.Background(), "makemigrations", "stock") },
			want:    "+ docker compose -p demo run --rm web python manage.py makemigrations stock",
		},
		{
			name:    "migrate",
			workDir: "/nowhere",
			run:     func(s *Stack) error { return s.Manage(context.Background(), "migrate") },
			want:    "+ docker compose -p demo run --rm web python manage.py migrate",
		},
		{
			name:    "superuser",
			workDir: "/nowhere",
			run:     func(s *Stack) error { return s.Superuser(context.Background()) },
			want: "+ docker compose -p demo run --rm" +
				" -e DJANGO_SUPERUSER_USERNAME=admin" +
				" -e DJANGO_SUPERUSER_EMAIL=admin@example.com" +
				" -e DJANGO_SUPERUSER_PASSWORD" +
				" web python manage.py createsuperuser --noinput",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, buf := dryStack(testConfig(tt.workDir))
			require.NoError(t, tt.run(stack))
			assert.Equal(t, []string{tt.want}, lines(buf))
		})
	}
}

func TestSuperuserPasswordStaysOutOfArgv(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	script := filepath.Join(dir, "fake-docker")
	body := "#!/bin/sh\necho \"args: $*\" > " + out + "\necho \"password: $DJANGO_SUPERUSER_PASSWORD\" >> " + out + "\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	cfg := testConfig(dir)
	cfg.Superuser.Password = "s3cret-pw"
	r := NewRunner(false, nil)
	r.Binary = script
	r.Stdin = strings.NewReader("")
	r.Stdout = &bytes.Buffer{}
	r.Stderr = &bytes.Buffer{}

	require.NoError(t, NewStack(cfg, r).Superuser(context.Background()))
	assert.Empty(t, r.Env, "shared runner must not keep the password")

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	recorded := strings.Split(strings.TrimSpace(string(got)), "\n")
	require.Len(t, recorded, 2)
	assert.NotContains(t, recorded[0], "s3cret-pw")
	assert.Contains(t, recorded[0], "-e DJANGO_SUPERUSER_PASSWORD web")
	assert.Equal(t, "password: s3cret-pw", recorded[1])
}

func TestRunnerPropagatesExitCode(t *testing.T) {
	r := NewRunner(false, nil)
	r.Binary = "sh"
	r.Stdin = strings.NewReader("")
	r.Stdout = &bytes.Buffer{}
	r.Stderr = &bytes.Buffer{}

	err := r.Run(context.Background(), "-c", "exit 3")
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "sh -c exited with code 3", exitErr.Error())
}

func TestRunnerMissingBinary(t *testing.T) {
	r := NewRunner(false, nil)
	r.Binary = "mustangctl-no-such-binary"

	err := r.Run(context.Background(), "version")
	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunner(false, nil).Run(ctx, "version")
	assert.ErrorIs(t, err, context.Canceled)
}
