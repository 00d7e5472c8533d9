// Package compose reads docker compose files and resolves the compose project
// name that scopes labeled containers.
//
// Both YAML (.yaml, .yml) and JSON (.json) compose files are accepted.
package compose

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectLabel is the label compose stamps on every container it creates.
const ProjectLabel = "com.docker.compose.project"

// File represents the parts of a compose file this tool reads
type File struct {
	Name     string             `yaml:"name,omitempty" json:"name,omitempty"`
	Services map[string]Service `yaml:"services" json:"services"`
}

// Service represents a single compose service
type Service struct {
	Image         string `yaml:"image,omitempty" json:"image,omitempty"`
	ContainerName string `yaml:"container_name,omitempty" json:"container_name,omitempty"`
	Build         any    `yaml:"build,omitempty" json:"build,omitempty"`
	Command       any    `yaml:"command,omitempty" json:"command,omitempty"`
}

// Load loads and parses a compose file (supports .yaml, .yml and .json)
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}

	var file File

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse compose JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse compose YAML: %w", err)
		}
	default:
		// compose itself only speaks YAML
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse compose file (unknown extension %s, tried YAML): %w", ext, err)
		}
	}

	return &file, nil
}

// ServiceNames returns the declared service names in sorted order
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasService reports whether the compose file declares the named service
func (f *File) HasService(name string) bool {
	_, ok := f.Services[name]
	return ok
}

var projectNameChars = regexp.MustCompile(`[a-z0-9_-]`)

// NormalizeProjectName applies the same normalization compose uses before
// stamping the project label: lower-case, only [a-z0-9_-], and no leading
// '_' or '-'.
func NormalizeProjectName(name string) string {
	name = strings.ToLower(name)
	name = strings.Join(projectNameChars.FindAllString(name, -1), "")
	return strings.TrimLeft(name, "_-")
}

// ResolveProject picks the project name used for compose invocations and
// label discovery. An explicit name wins, then the compose file's top-level
// name, then the base name of workDir.
func ResolveProject(explicit, composePath, workDir string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return NormalizeProjectName(explicit), nil
	}

	if composePath != "" {
		if !filepath.IsAbs(composePath) {
			composePath = filepath.Join(workDir, composePath)
		}
		file, err := Load(composePath)
		switch {
		case err == nil:
			if n := NormalizeProjectName(file.Name); n != "" {
				return n, nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			return "", err
		}
	}

	name := NormalizeProjectName(filepath.Base(filepath.Clean(workDir)))
	if name == "" {
		return "", fmt.Errorf("cannot derive a project name from %q; set PROJECT", workDir)
	}
	return name, nil
}
