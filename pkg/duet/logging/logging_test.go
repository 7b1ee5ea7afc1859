package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/logging"
)

func initLogging(t *testing.T, cfg logging.Config) string {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "duet.log")
	}
	require.NoError(t, logging.Init(cfg))
	t.Cleanup(func() { _ = logging.Close() })
	return cfg.Path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logging.Level
	}{
		{"debug", logging.LevelDebug},
		{"info", logging.LevelInfo},
		{"warn", logging.LevelWarn},
		{"warning", logging.LevelWarn},
		{"error", logging.LevelError},
		{"ERROR", logging.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := logging.ParseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := logging.ParseLevel("verbose")
		assert.ErrorIs(t, err, logging.ErrInvalidLevel)
	})
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", logging.LevelDebug.String())
	assert.Equal(t, "info", logging.LevelInfo.String())
	assert.Equal(t, "warn", logging.LevelWarn.String())
	assert.Equal(t, "error", logging.LevelError.String())
}

func TestGetBeforeInit(t *testing.T) {
	// Loggers created before Init write to io.Discard and must not panic.
	logger := logging.Get("preinit")
	require.NotNil(t, logger)
	logger.Info("goes nowhere")
	logger.With("key", "value").Error("still nowhere")
}

func TestInitWritesToFile(t *testing.T) {
	path := initLogging(t, logging.Config{Level: "info"})

	logger := logging.Get("session")
	logger.Info("comparison started", "left", "/l", "right", "/r")

	content := readLog(t, path)
	assert.Contains(t, content, "comparison started")
	assert.Contains(t, content, "session")
	assert.Contains(t, content, "/l")
}

func TestInitRejectsInvalidLevel(t *testing.T) {
	err := logging.Init(logging.Config{Level: "loud"})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestLevelFiltering(t *testing.T) {
	path := initLogging(t, logging.Config{Level: "warn"})

	logger := logging.Get("engine")
	logger.Info("suppressed")
	logger.Warn("surfaced")

	content := readLog(t, path)
	assert.NotContains(t, content, "suppressed")
	assert.Contains(t, content, "surfaced")
}

func TestComponentOverride(t *testing.T) {
	path := initLogging(t, logging.Config{
		Level:      "error",
		Components: map[string]string{"cache": "debug"},
	})

	logging.Get("cache").Debug("cache detail")
	logging.Get("sync").Info("sync detail")

	content := readLog(t, path)
	assert.Contains(t, content, "cache detail")
	assert.NotContains(t, content, "sync detail")
}

func TestConsoleOutput(t *testing.T) {
	captureStderr := func(t *testing.T, cfg logging.Config, component string) string {
		t.Helper()
		stderrPath := filepath.Join(t.TempDir(), "stderr")
		f, err := os.Create(stderrPath)
		require.NoError(t, err)

		old := os.Stderr
		os.Stderr = f
		defer func() {
			os.Stderr = old
			_ = f.Close()
		}()

		initLogging(t, cfg)
		logging.Get(component).Info("console line")
		return readLog(t, stderrPath)
	}

	t.Run("console level enables stderr", func(t *testing.T) {
		out := captureStderr(t, logging.Config{Level: "info", ConsoleLevel: "info"}, "cli")
		assert.Contains(t, out, "console line")
	})

	t.Run("tui mode silences the console", func(t *testing.T) {
		out := captureStderr(t, logging.Config{Level: "info", ConsoleLevel: "info", TUIMode: true}, "tui")
		assert.Empty(t, out)
	})
}

func TestReinitReplacesConfiguration(t *testing.T) {
	first := initLogging(t, logging.Config{Level: "info"})
	logging.Get("history").Info("first file")

	second := initLogging(t, logging.Config{Level: "info"})
	logging.Get("history").Info("second file")

	assert.Contains(t, readLog(t, first), "first file")
	assert.NotContains(t, readLog(t, first), "second file")
	assert.Contains(t, readLog(t, second), "second file")
}

func TestDefaultLogPath(t *testing.T) {
	assert.Contains(t, logging.DefaultLogPath(), filepath.Join("duet", "duet.log"))
}
