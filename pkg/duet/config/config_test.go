package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultEngineBinary, cfg.Engine.Path)
	assert.Equal(t, config.DefaultDiffExitCode, cfg.Engine.DiffExitCode)
	assert.False(t, cfg.Engine.Options.VerifyHashes)
	assert.Equal(t, 1, cfg.Engine.Options.ImageTolerance)

	assert.True(t, cfg.Sync.UseTrash)
	assert.False(t, cfg.Sync.Local)

	assert.True(t, cfg.Filter.ShowIdentical)
	assert.True(t, cfg.Filter.ShowDifferent)
	assert.False(t, cfg.Filter.ShowFilesOnly)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, config.DefaultRetentionDays, cfg.History.RetentionDays)
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	dir := filepath.Join(home, "duet")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
engine:
  path: /opt/compare/rcompare
  diff_exit_code: 3
  verify_hashes: true
  ignore:
    - "*.tmp"
sync:
  use_trash: false
logging:
  level: debug
`), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/opt/compare/rcompare", cfg.Engine.Path)
	assert.Equal(t, 3, cfg.Engine.DiffExitCode)
	assert.True(t, cfg.Engine.Options.VerifyHashes)
	assert.Equal(t, []string{"*.tmp"}, cfg.Engine.Options.Ignore)
	assert.False(t, cfg.Sync.UseTrash)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset keys keep their defaults.
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DUET_ENGINE_PATH", "/usr/local/bin/other-engine")
	t.Setenv("DUET_LOGGING_LEVEL", "warn")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/other-engine", cfg.Engine.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	dir := filepath.Join(home, "duet")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("engine: ["), 0o644))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestConfigDir(t *testing.T) {
	t.Run("honors XDG_CONFIG_HOME", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)

		dir, err := config.ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "duet"), dir)
	})

	t.Run("falls back under the home directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		home, err := os.UserHomeDir()
		require.NoError(t, err)

		dir, err := config.ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "duet"), dir)
	})
}

func TestWriteDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	require.NoError(t, config.WriteDefault())

	path := filepath.Join(home, "duet", "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "path: "+config.DefaultEngineBinary)

	// A second call must not clobber user edits.
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  path: custom\n"), 0o644))
	require.NoError(t, config.WriteDefault())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "path: custom")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := config.ExpandPath("~/projects")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "projects"), expanded)

	unchanged, err := config.ExpandPath("/absolute/path")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path", unchanged)

	relative, err := config.ExpandPath("relative/path")
	require.NoError(t, err)
	assert.Equal(t, "relative/path", relative)
}
