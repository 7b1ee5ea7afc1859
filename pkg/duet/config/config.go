// Package config loads and persists duet configuration: the engine
// location and options, sync defaults, filter defaults, logging, cache
// and history settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/duetcmp/duet/pkg/duet/engine"
)

// Defaults.
const (
	DefaultEngineBinary  = "rcompare"
	DefaultDiffExitCode  = 1
	DefaultRetentionDays = 90
)

// EngineConfig locates and configures the external comparison engine.
type EngineConfig struct {
	// Path is the engine binary; bare names are resolved on PATH.
	Path string `mapstructure:"path"`

	// DiffExitCode is the exit code meaning "differences found".
	DiffExitCode int `mapstructure:"diff_exit_code"`

	// Options are the default scan options for new sessions.
	Options engine.Options `mapstructure:",squash"`
}

// SyncConfig holds synchronization defaults.
type SyncConfig struct {
	// UseTrash moves deletions into a side-local trash folder.
	UseTrash bool `mapstructure:"use_trash"`

	// Local forces the local planner/executor instead of delegating
	// sync to the engine.
	Local bool `mapstructure:"local"`
}

// FilterConfig holds the initial visibility flags for a new comparison.
type FilterConfig struct {
	ShowIdentical bool `mapstructure:"show_identical"`
	ShowDifferent bool `mapstructure:"show_different"`
	ShowLeftOnly  bool `mapstructure:"show_left_only"`
	ShowRightOnly bool `mapstructure:"show_right_only"`
	ShowFilesOnly bool `mapstructure:"show_files_only"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// CacheConfig configures the report cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HistoryConfig configures the operation history log.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config is the application configuration. The orchestrator receives an
// explicit value; nothing in the core reads configuration ambiently.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
	History HistoryConfig `mapstructure:"history"`
}

// SetDefaults installs the default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.path", DefaultEngineBinary)
	v.SetDefault("engine.diff_exit_code", DefaultDiffExitCode)
	v.SetDefault("engine.follow_symlinks", false)
	v.SetDefault("engine.verify_hashes", false)
	v.SetDefault("engine.ignore", []string{})
	v.SetDefault("engine.image_tolerance", 1)

	v.SetDefault("sync.use_trash", true)
	v.SetDefault("sync.local", false)

	v.SetDefault("filter.show_identical", true)
	v.SetDefault("filter.show_different", true)
	v.SetDefault("filter.show_left_only", true)
	v.SetDefault("filter.show_right_only", true)
	v.SetDefault("filter.show_files_only", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", map[string]string{
		"engine":  "info",
		"session": "info",
		"sync":    "info",
		"tui":     "info",
	})

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryDir())
	v.SetDefault("history.retention_days", DefaultRetentionDays)
}

// Load reads configuration from file and environment.
// Config file: $XDG_CONFIG_HOME/duet/config.yaml, then
// $HOME/.config/duet/config.yaml. Environment variables use the DUET_
// prefix (e.g. DUET_ENGINE_PATH).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "duet"))
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "duet"))

	v.SetEnvPrefix("DUET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "duet"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "duet"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault creates the config file with commented defaults if it
// does not already exist.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	content := `# duet configuration
engine:
  # Engine binary; bare names are resolved on PATH.
  path: ` + DefaultEngineBinary + `
  # Exit code meaning "differences found".
  diff_exit_code: 1
  follow_symlinks: false
  verify_hashes: false
  ignore: []

sync:
  # Move deletions into a side-local trash folder.
  use_trash: true
  # Force the built-in executor instead of delegating to the engine.
  local: false

filter:
  show_identical: true
  show_different: true
  show_left_only: true
  show_right_only: true
  show_files_only: false

logging:
  level: info
  # path: defaults to $XDG_STATE_HOME/duet/duet.log

cache:
  enabled: true

history:
  enabled: true
  retention_days: 90
`
	return os.WriteFile(path, []byte(content), 0o644)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DefaultCachePath returns $XDG_CACHE_HOME/duet/reports for the report cache.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "duet", "reports")
}

// DefaultHistoryDir returns $XDG_DATA_HOME/duet/history for operation logs.
func DefaultHistoryDir() string {
	return filepath.Join(xdg.DataHome, "duet", "history")
}

// DefaultLogPath returns $XDG_STATE_HOME/duet/duet.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "duet", "duet.log")
}
