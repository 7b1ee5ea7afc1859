package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/duetcmp/duet/pkg/duet/cache"
	"github.com/duetcmp/duet/pkg/duet/config"
	"github.com/duetcmp/duet/pkg/duet/engine"
	"github.com/duetcmp/duet/pkg/duet/filter"
	"github.com/duetcmp/duet/pkg/duet/history"
	"github.com/duetcmp/duet/pkg/duet/logging"
	"github.com/duetcmp/duet/pkg/duet/session"
)

// loadConfig unmarshals the merged viper state (defaults, file, env,
// flags) into a Config.
func loadConfig() (*config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// initLogging starts the log file and optional console output. In TUI
// mode console output stays off; the TUI owns the terminal.
func initLogging(cfg *config.Config, tuiMode bool) error {
	consoleLevel := ""
	if getVerbose() {
		consoleLevel = "debug"
	}
	return logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel,
		TUIMode:      tuiMode,
	})
}

// resolveRoots expands and absolutizes the two root arguments, verifying
// both are directories.
func resolveRoots(args []string) (left, right string, err error) {
	roots := make([]string, 2)
	for i, arg := range args {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return "", "", fmt.Errorf("failed to expand path %q: %w", arg, err)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve path %q: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return "", "", fmt.Errorf("path does not exist: %s", abs)
			}
			return "", "", fmt.Errorf("cannot access path: %w", err)
		}
		if !info.IsDir() {
			return "", "", fmt.Errorf("path is not a directory: %s", abs)
		}
		roots[i] = abs
	}
	return roots[0], roots[1], nil
}

// buildEngine constructs the engine handle from configuration.
func buildEngine(cfg *config.Config) *engine.Engine {
	path := cfg.Engine.Path
	if path == "" {
		path = config.DefaultEngineBinary
	}
	return engine.New(path, cfg.Engine.DiffExitCode)
}

// filterFromConfig converts configured visibility defaults into flags.
func filterFromConfig(cfg *config.Config) filter.Flags {
	return filter.Flags{
		ShowIdentical: cfg.Filter.ShowIdentical,
		ShowDifferent: cfg.Filter.ShowDifferent,
		ShowLeftOnly:  cfg.Filter.ShowLeftOnly,
		ShowRightOnly: cfg.Filter.ShowRightOnly,
		ShowFilesOnly: cfg.Filter.ShowFilesOnly,
	}
}

// buildSession wires a session with its cache and history collaborators.
// The returned cleanup closes what was opened.
func buildSession(left, right string, cfg *config.Config) (*session.Session, func(), error) {
	var (
		reportCache *cache.Cache
		histLog     *history.Log
	)

	if cfg.Cache.Enabled && !viper.GetBool("no_cache") {
		path := cfg.Cache.Path
		if path == "" {
			path = config.DefaultCachePath()
		}
		c, err := cache.Open(path)
		if err != nil {
			// A broken cache never blocks a comparison.
			printVerbose("report cache unavailable: %v", err)
		} else {
			reportCache = c
		}
	}

	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path = config.DefaultHistoryDir()
		}
		h, err := history.New(path)
		if err != nil {
			printVerbose("history unavailable: %v", err)
		} else {
			histLog = h
		}
	}

	sess, err := session.New(left, right, session.Config{
		Engine:  buildEngine(cfg),
		Cache:   reportCache,
		History: histLog,
		Options: cfg.Engine.Options,
		Filter:  filterFromConfig(cfg),
	})
	if err != nil {
		if reportCache != nil {
			_ = reportCache.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		_ = sess.Close()
		if reportCache != nil {
			_ = reportCache.Close()
		}
		_ = logging.Close()
	}
	return sess, cleanup, nil
}

// getHistory returns a history log with the configured directory.
func getHistory() (*history.Log, error) {
	cfg, err := config.Load()
	if err != nil {
		return history.New(config.DefaultHistoryDir())
	}
	path := cfg.History.Path
	if path == "" {
		path = config.DefaultHistoryDir()
	}
	return history.New(path)
}
