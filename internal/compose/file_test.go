package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCompose = `
name: Mustang_Stock
services:
  web:
    build:
      context: .
      target: dev
    command: python manage.py runserver 0.0.0.0:8000
  db:
    image: postgres:16
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docker-compose.yml", sampleCompose)

	file, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Mustang_Stock", file.Name)
	assert.Equal(t, []string{"db", "web"}, file.ServiceNames())
	assert.True(t, file.HasService("web"))
	assert.False(t, file.HasService("worker"))
	assert.Equal(t, "postgres:16", file.Services["db"].Image)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "compose.json", `{"services":{"web":{"image":"app:dev"}}}`)

	file, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "app:dev", file.Services["web"].Image)
}

func TestLoadInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docker-compose.yml", "services: [\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeProjectName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "demo", want: "demo"},
		{in: "Mustang", want: "mustang"},
		{in: "my.project name", want: "myprojectname"},
		{in: "_-leading", want: "leading"},
		{in: "keep_under-score", want: "keep_under-score"},
		{in: "...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeProjectName(tt.in))
		})
	}
}

func TestResolveProject(t *testing.T) {
	withName := t.TempDir()
	writeFile(t, withName, "docker-compose.yml", sampleCompose)

	withoutName := filepath.Join(t.TempDir(), "Mustang")
	require.NoError(t, os.Mkdir(withoutName, 0o755))
	writeFile(t, withoutName, "docker-compose.yml", "services:\n  web:\n    image: app:dev\n")

	noFile := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, os.Mkdir(noFile, 0o755))

	tests := []struct {
		name     string
		explicit string
		workDir  string
		want     string
	}{
		{name: "explicit wins", explicit: "demo", workDir: withName, want: "demo"},
		{name: "compose name", workDir: withName, want: "mustang_stock"},
		{name: "directory name", workDir: withoutName, want: "mustang"},
		{name: "missing compose file", workDir: noFile, want: "checkout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveProject(tt.explicit, "docker-compose.yml", tt.workDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveProjectBrokenComposeFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docker-compose.yml", "services: [\n")

	_, err := ResolveProject("", "docker-compose.yml", dir)
	assert.Error(t, err)
}
