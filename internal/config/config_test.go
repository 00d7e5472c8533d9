package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ImageDev:     "app:dev",
		ImageProd:    "app:prod",
		Project:      "mustang",
		LogLevel:     "info",
		WorkDir:      "/src/mustang",
		Dockerfile:   "Dockerfile",
		ComposeFile:  "docker-compose.yml",
		Service:      "web",
		AppDir:       "/app",
		Port:         8000,
		TestCommand:  "python manage.py test",
		LockCommand:  "pip-compile",
		Requirements: DefaultRequirements,
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "registry qualified image",
			mutate:  func(c *Config) { c.ImageProd = "registry.example.com:5000/mustang/app:prod" },
			wantErr: false,
		},
		{
			name:    "empty dev image",
			mutate:  func(c *Config) { c.ImageDev = "" },
			wantErr: true,
		},
		{
			name:    "invalid image reference",
			mutate:  func(c *Config) { c.ImageProd = "App:Prod!" },
			wantErr: true,
		},
		{
			name:    "project not normalized",
			mutate:  func(c *Config) { c.Project = "My Project" },
			wantErr: true,
		},
		{
			name:    "empty project",
			mutate:  func(c *Config) { c.Project = "" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name:    "relative app dir",
			mutate:  func(c *Config) { c.AppDir = "app" },
			wantErr: true,
		},
		{
			name:    "invalid port - zero",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "blank test command",
			mutate:  func(c *Config) { c.TestCommand = "   " },
			wantErr: true,
		},
		{
			name:    "no requirements",
			mutate:  func(c *Config) { c.Requirements = nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// chdir moves the test into dir and resets viper around it.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	viper.Reset()
	t.Cleanup(func() {
		_ = os.Chdir(prev)
		viper.Reset()
	})
}

func TestLoadDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Mustang")
	require.NoError(t, os.Mkdir(dir, 0o755))
	chdir(t, dir)

	require.NoError(t, Init())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultImageDev, cfg.ImageDev)
	assert.Equal(t, DefaultImageProd, cfg.ImageProd)
	assert.Equal(t, "mustang", cfg.Project)
	assert.False(t, cfg.Confirm)
	assert.Equal(t, DefaultRequirements, cfg.Requirements)
	assert.Equal(t, []string{"app:dev", "app:prod"}, cfg.Images())
}

func TestLoadMakefileStyleOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("IMAGE_DEV", "mustang:dev")
	t.Setenv("IMAGE_PROD", "mustang:prod")
	t.Setenv("PROJECT", "demo")
	t.Setenv("CONFIRM", "1")
	t.Setenv("MUSTANG_REQUIREMENTS", "base.in,prod.in")
	t.Setenv("MUSTANG_PORT", "9000")

	require.NoError(t, Init())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mustang:dev", cfg.ImageDev)
	assert.Equal(t, "mustang:prod", cfg.ImageProd)
	assert.Equal(t, "demo", cfg.Project)
	assert.True(t, cfg.Confirm)
	assert.Equal(t, []string{"base.in", "prod.in"}, cfg.Requirements)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := "image-dev: team/app:dev\nservice: django\nrequirements:\n  - a.in\n  - b.in\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mustang.yaml"), []byte(content), 0o644))

	require.NoError(t, Init())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "team/app:dev", cfg.ImageDev)
	assert.Equal(t, "django", cfg.Service)
	assert.Equal(t, []string{"a.in", "b.in"}, cfg.Requirements)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("IMAGE_PROD", "from-env:prod")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("IMAGE_PROD=from-file:prod\n"), 0o644))

	require.NoError(t, Init())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env:prod", cfg.ImageProd)
}

func TestUseFileMissing(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, Init())

	err := UseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDisplay(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PROJECT", "demo")
	require.NoError(t, Init())

	out, err := Display()
	require.NoError(t, err)
	assert.Contains(t, out, "project:            demo")
	assert.Contains(t, out, "Config file:        (not found)")
}
