// Package config loads pipeline configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ensworks/prodgraph/pkg/neo"
)

// ImportConfig tunes the importer.
type ImportConfig struct {
	// TimeoutSeconds bounds each store round-trip.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ServerConfig holds REST server settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Config is the full application configuration.
type Config struct {
	Neo4j  neo.Config   `yaml:"neo4j"`
	Import ImportConfig `yaml:"import"`
	Server ServerConfig `yaml:"server"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Neo4j: neo.Config{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Password: "password",
			Database: "neo4j",
		},
		Import: ImportConfig{TimeoutSeconds: 30},
		Server: ServerConfig{Port: "8080"},
	}
}

// Load reads the YAML file at path (skipped when path is empty) and then
// applies environment overrides. Environment always wins.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		c.Neo4j.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Neo4j.Password = v
	}
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		c.Neo4j.Database = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("IMPORT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Import.TimeoutSeconds = n
		}
	}
}
