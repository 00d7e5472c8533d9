// Package config provides configuration management for the mustangctl CLI.
//
// It implements the disciplined Viper pattern where Viper stays contained
// in this package and the rest of the codebase receives explicit Config structs.
// Configuration sources are resolved in this order: flags > env > config file > defaults.
//
// The unprefixed variables the Makefile accepted (IMAGE_DEV, IMAGE_PROD,
// PROJECT, CONFIRM) are still honored next to their MUSTANG_* forms.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mustang-stock/mustangctl/internal/compose"
)

// Config is the explicit configuration struct
// This is what the rest of the codebase sees
type Config struct {
	ImageDev  string
	ImageProd string
	Project   string
	Confirm   bool
	DryRun    bool
	LogLevel  string

	WorkDir     string
	Dockerfile  string
	ComposeFile string
	Service     string
	AppDir      string
	Port        int

	TestCommand  string
	LockCommand  string
	Requirements []string

	Superuser SuperuserConfig
	SiteURL   string
}

// SuperuserConfig holds the credentials injected for non-interactive
// createsuperuser.
type SuperuserConfig struct {
	Username string
	Email    string
	Password string
}

// Images returns the dev and prod image references
func (c *Config) Images() []string {
	return []string{c.ImageDev, c.ImageProd}
}

// Default values
const (
	DefaultImageDev    = "app:dev"
	DefaultImageProd   = "app:prod"
	DefaultDockerfile  = "Dockerfile"
	DefaultComposeFile = "docker-compose.yml"
	DefaultService     = "web"
	DefaultAppDir      = "/app"
	DefaultPort        = 8000
	DefaultTestCommand = "python manage.py test"
	DefaultLockCommand = "pip-compile"
	DefaultSiteURL     = "http://localhost:8000"
)

// DefaultRequirements are the dependency inputs compiled by compile-requirements
var DefaultRequirements = []string{
	"requirements/base.in",
	"requirements/dev.in",
	"requirements/prod.in",
}

// envAliases maps config keys to the environment variables that feed them,
// in lookup order.
var envAliases = map[string][]string{
	"image-dev":  {"IMAGE_DEV", "MUSTANG_IMAGE_DEV"},
	"image-prod": {"IMAGE_PROD", "MUSTANG_IMAGE_PROD"},
	"project":    {"PROJECT", "MUSTANG_PROJECT"},
	"confirm":    {"CONFIRM", "MUSTANG_CONFIRM"},
}

// Init initializes viper with defaults and config file paths
func Init() error {
	// .env feeds the application containers; load it without overriding the
	// caller's environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	// Set config file name and type
	viper.SetConfigName("mustang")
	viper.SetConfigType("yaml")

	// Add config file search paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.mustang")
	if path := os.Getenv("MUSTANG_CONFIG"); path != "" {
		viper.SetConfigFile(path)
	}

	// Set defaults
	viper.SetDefault("image-dev", DefaultImageDev)
	viper.SetDefault("image-prod", DefaultImageProd)
	viper.SetDefault("project", "")
	viper.SetDefault("confirm", false)
	viper.SetDefault("dry-run", false)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("dockerfile", DefaultDockerfile)
	viper.SetDefault("compose-file", DefaultComposeFile)
	viper.SetDefault("service", DefaultService)
	viper.SetDefault("app-dir", DefaultAppDir)
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("test-command", DefaultTestCommand)
	viper.SetDefault("lock-command", DefaultLockCommand)
	viper.SetDefault("requirements", DefaultRequirements)
	viper.SetDefault("superuser-username", "admin")
	viper.SetDefault("superuser-email", "admin@example.com")
	viper.SetDefault("superuser-password", "admin")
	viper.SetDefault("site-url", DefaultSiteURL)

	// Bind environment variables with prefix
	viper.SetEnvPrefix("MUSTANG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for key, names := range envAliases {
		if err := viper.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	return readConfigFile()
}

// UseFile points viper at an explicit config file and reads it
func UseFile(path string) error {
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	return readConfigFile()
}

func readConfigFile() error {
	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load reads from all sources and returns explicit Config
func Load() (*Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	cfg := &Config{
		ImageDev:     viper.GetString("image-dev"),
		ImageProd:    viper.GetString("image-prod"),
		Confirm:      viper.GetBool("confirm"),
		DryRun:       viper.GetBool("dry-run"),
		LogLevel:     strings.ToLower(viper.GetString("log-level")),
		WorkDir:      workDir,
		Dockerfile:   viper.GetString("dockerfile"),
		ComposeFile:  viper.GetString("compose-file"),
		Service:      viper.GetString("service"),
		AppDir:       viper.GetString("app-dir"),
		Port:         viper.GetInt("port"),
		TestCommand:  viper.GetString("test-command"),
		LockCommand:  viper.GetString("lock-command"),
		Requirements: splitList(viper.GetStringSlice("requirements")),
		Superuser: SuperuserConfig{
			Username: viper.GetString("superuser-username"),
			Email:    viper.GetString("superuser-email"),
			Password: viper.GetString("superuser-password"),
		},
		SiteURL: viper.GetString("site-url"),
	}

	project, err := compose.ResolveProject(viper.GetString("project"), cfg.ComposeFile, workDir)
	if err != nil {
		return nil, err
	}
	cfg.Project = project

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList accepts both list values and comma separated strings
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate ensures config is sane
func (c *Config) Validate() error {
	if err := validateImage("image-dev", c.ImageDev); err != nil {
		return err
	}
	if err := validateImage("image-prod", c.ImageProd); err != nil {
		return err
	}

	if c.Project == "" || compose.NormalizeProjectName(c.Project) != c.Project {
		return fmt.Errorf("invalid project: %q (must match [a-z0-9][a-z0-9_-]*)", c.Project)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Dockerfile == "" {
		return fmt.Errorf("dockerfile must not be empty")
	}

	if c.Service == "" {
		return fmt.Errorf("service must not be empty")
	}

	if !strings.HasPrefix(c.AppDir, "/") {
		return fmt.Errorf("invalid app-dir: %s (must be an absolute container path)", c.AppDir)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if len(strings.Fields(c.TestCommand)) == 0 {
		return fmt.Errorf("test-command must not be empty")
	}

	if len(strings.Fields(c.LockCommand)) == 0 {
		return fmt.Errorf("lock-command must not be empty")
	}

	if len(c.Requirements) == 0 {
		return fmt.Errorf("requirements must list at least one input file")
	}

	return nil
}

func validateImage(key, ref string) error {
	if ref == "" {
		return fmt.Errorf("%s must not be empty", key)
	}
	if _, err := reference.ParseNormalizedNamed(ref); err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, ref, err)
	}
	return nil
}

// Display shows current config (for mustangctl config)
func Display() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = "(not found)"
	}

	return fmt.Sprintf(`Configuration:
  image-dev:          %s
  image-prod:         %s
  project:            %s
  confirm:            %t
  dry-run:            %t
  log-level:          %s

Workspace:
  work-dir:           %s
  dockerfile:         %s
  compose-file:       %s
  service:            %s
  app-dir:            %s
  port:               %d

Commands:
  test-command:       %s
  lock-command:       %s
  requirements:       %s

Sources:
  Config file:        %s
  Environment:        IMAGE_DEV, IMAGE_PROD, PROJECT, CONFIRM, MUSTANG_*
  Flags:              (per command)
`,
		cfg.ImageDev,
		cfg.ImageProd,
		cfg.Project,
		cfg.Confirm,
		cfg.DryRun,
		cfg.LogLevel,
		cfg.WorkDir,
		cfg.Dockerfile,
		cfg.ComposeFile,
		cfg.Service,
		cfg.AppDir,
		cfg.Port,
		cfg.TestCommand,
		cfg.LockCommand,
		strings.Join(cfg.Requirements, ", "),
		configFile,
	), nil
}
