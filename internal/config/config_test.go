package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.example.com/graphql", cfg.Endpoint)
	assert.Empty(t, cfg.ProjectID)
	assert.NotEmpty(t, cfg.CachePath)
	assert.NotEmpty(t, cfg.LogPath)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
endpoint: https://tasks.internal/graphql
project: proj_42
sprint: sprint_7
cache_path: /tmp/td/snapshots.sqlite
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taskdeck.yaml"), content, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.internal/graphql", cfg.Endpoint)
	assert.Equal(t, "proj_42", cfg.ProjectID)
	assert.Equal(t, "sprint_7", cfg.SprintID)
	assert.Equal(t, "/tmp/td/snapshots.sqlite", cfg.CachePath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("project: from_file\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taskdeck.yaml"), content, 0o644))

	t.Setenv("TASKDECK_PROJECT", "from_env")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.ProjectID)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taskdeck.yaml"), []byte("{{nope"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		cfg := &Config{Endpoint: "https://x/graphql", ProjectID: "p"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing project", func(t *testing.T) {
		cfg := &Config{Endpoint: "https://x/graphql"}
		assert.ErrorContains(t, cfg.Validate(), "project")
	})

	t.Run("missing endpoint", func(t *testing.T) {
		cfg := &Config{ProjectID: "p"}
		assert.ErrorContains(t, cfg.Validate(), "endpoint")
	})
}
