package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Import.TimeoutSeconds)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
neo4j:
  uri: bolt://graph:7687
  username: admin
  database: topology
import:
  timeout_seconds: 5
server:
  port: "9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "admin", cfg.Neo4j.Username)
	assert.Equal(t, "topology", cfg.Neo4j.Database)
	assert.Equal(t, 5, cfg.Import.TimeoutSeconds)
	assert.Equal(t, "9090", cfg.Server.Port)
	// Untouched fields keep defaults.
	assert.Equal(t, "password", cfg.Neo4j.Password)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://env:7687")
	t.Setenv("IMPORT_TIMEOUT_SECONDS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bolt://env:7687", cfg.Neo4j.URI)
	assert.Equal(t, 7, cfg.Import.TimeoutSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
