// Package config loads and watches TaskPilot configuration from
// .taskpilot/config.json. This is the single source of truth for
// configuration; environment variables override individual fields.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Backend names accepted in the "backend" field.
const (
	BackendLocal  = "local"  // SQLite at db_path (default)
	BackendRemote = "remote" // REST API at api_base_url
	BackendMemory = "memory" // In-process, nothing persisted
)

// UserConfig holds all TaskPilot configuration from .taskpilot/config.json.
type UserConfig struct {
	// Backend selection: "local" (default), "remote", "memory"
	Backend string `json:"backend,omitempty"`

	// SQLite database path for the local backend.
	// Default: <workspace>/.taskpilot/tasks.db
	DBPath string `json:"db_path,omitempty"`

	// Remote backend settings
	APIBaseURL string `json:"api_base_url,omitempty"`
	APIToken   string `json:"api_token,omitempty"`

	// Theme for the TUI ("light" or "dark")
	Theme string `json:"theme,omitempty"`

	// ThinkDelayMS is the simulated thinking pause before each assistant
	// reply, in milliseconds. nil means the default; 0 disables the pause.
	ThinkDelayMS *int `json:"think_delay_ms,omitempty"`

	// Logging configuration
	Logging *LoggingConfig `json:"logging,omitempty"`
}

// LoggingConfig controls the category file logger.
type LoggingConfig struct {
	Level      string          `json:"level,omitempty"`
	DebugMode  bool            `json:"debug_mode,omitempty"`
	JSONFormat bool            `json:"json_format,omitempty"`
	Categories map[string]bool `json:"categories,omitempty"`
}

// GetBackend returns the configured backend, defaulting to local.
func (c *UserConfig) GetBackend() string {
	switch c.Backend {
	case BackendLocal, BackendRemote, BackendMemory:
		return c.Backend
	case "":
		return BackendLocal
	default:
		return BackendLocal
	}
}

// GetDBPath returns the SQLite path, defaulting to .taskpilot/tasks.db under
// the workspace root.
func (c *UserConfig) GetDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	root, err := FindWorkspaceRoot()
	if err != nil {
		return filepath.Join(".taskpilot", "tasks.db")
	}
	return filepath.Join(root, ".taskpilot", "tasks.db")
}

// GetAPIBaseURL returns the remote API base URL, defaulting to the local
// development server.
func (c *UserConfig) GetAPIBaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return "http://localhost:5000"
}

// GetTheme returns the configured theme, defaulting to dark.
func (c *UserConfig) GetTheme() string {
	if c.Theme == "" {
		return "dark"
	}
	return c.Theme
}

// GetThinkDelayMS returns the simulated thinking pause in milliseconds.
// The default matches the feel of a short assistant "thinking" beat.
func (c *UserConfig) GetThinkDelayMS() int {
	if c.ThinkDelayMS != nil && *c.ThinkDelayMS >= 0 {
		return *c.ThinkDelayMS
	}
	return 800
}

// GetLogging returns logging settings with defaults.
func (c *UserConfig) GetLogging() LoggingConfig {
	if c.Logging != nil {
		cfg := *c.Logging
		if cfg.Level == "" {
			cfg.Level = "info"
		}
		return cfg
	}
	return LoggingConfig{
		Level:     "info",
		DebugMode: false, // Production mode by default
	}
}

// applyEnvOverrides lets environment variables win over file values.
func (c *UserConfig) applyEnvOverrides() {
	if v := os.Getenv("TASKPILOT_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("TASKPILOT_API_URL"); v != "" {
		c.APIBaseURL = v
		if c.Backend == "" {
			c.Backend = BackendRemote
		}
	}
	if v := os.Getenv("TASKPILOT_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("TASKPILOT_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("TASKPILOT_THINK_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.ThinkDelayMS = &ms
		}
	}
}

// DefaultUserConfigPath returns the default path to .taskpilot/config.json.
func DefaultUserConfigPath() string {
	root, err := FindWorkspaceRoot()
	if err != nil {
		return filepath.Join(".taskpilot", "config.json")
	}
	return filepath.Join(root, ".taskpilot", "config.json")
}

// FindWorkspaceRoot attempts to find the project root by looking for
// .taskpilot or go.mod. If not found, returns the current working directory.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".taskpilot")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}

// LoadUserConfig loads configuration from the given path and applies
// environment overrides. A missing file yields an empty config whose Get*
// methods return defaults.
func LoadUserConfig(path string) (*UserConfig, error) {
	cfg := &UserConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as indented JSON, creating the directory if
// needed.
func (c *UserConfig) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}

	return nil
}

// GlobalConfig loads config from the default path.
func GlobalConfig() (*UserConfig, error) {
	return LoadUserConfig(DefaultUserConfigPath())
}
