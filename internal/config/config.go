// Package config loads taskdeck configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds everything the client needs to reach the work-item service
// and where to keep its local state.
type Config struct {
	Endpoint  string // GraphQL endpoint of the work-item service
	Token     string // bearer token; usually set via TASKDECK_TOKEN instead
	ProjectID string
	SprintID  string
	CachePath string // SQLite snapshot database
	LogPath   string // logrus output file (the TUI owns the terminal)
}

// defaultConfig returns a Config populated with sensible defaults.
func defaultConfig() *Config {
	stateDir := defaultStateDir()
	return &Config{
		Endpoint:  "https://tasks.example.com/graphql",
		CachePath: filepath.Join(stateDir, "snapshots.sqlite"),
		LogPath:   filepath.Join(stateDir, "taskdeck.log"),
	}
}

// Load reads taskdeck.yaml from the given directory (or the standard config
// directories when dir is empty), applying TASKDECK_* environment overrides.
// A missing config file is not an error; defaults are returned.
func Load(dir string) (*Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName("taskdeck")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		if confDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(confDir, "taskdeck"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TASKDECK")
	v.AutomaticEnv()

	// Defaults so missing keys fall back gracefully.
	v.SetDefault("endpoint", cfg.Endpoint)
	v.SetDefault("token", "")
	v.SetDefault("project", "")
	v.SetDefault("sprint", "")
	v.SetDefault("cache_path", cfg.CachePath)
	v.SetDefault("log_path", cfg.LogPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file found - env overrides and defaults still apply.
	}

	cfg.Endpoint = v.GetString("endpoint")
	cfg.Token = v.GetString("token")
	cfg.ProjectID = v.GetString("project")
	cfg.SprintID = v.GetString("sprint")
	cfg.CachePath = v.GetString("cache_path")
	cfg.LogPath = v.GetString("log_path")

	return cfg, nil
}

// Validate checks that the fields required to open a board are present.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required (config key 'endpoint' or TASKDECK_ENDPOINT)")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("project is required (--project, config key 'project', or TASKDECK_PROJECT)")
	}
	return nil
}

func defaultStateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "taskdeck")
	}
	return ".taskdeck"
}
