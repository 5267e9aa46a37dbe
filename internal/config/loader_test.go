package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/oxidiff/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 0, cfg.Analysis.Workers)
	require.False(t, cfg.Analysis.FullTree)
	require.False(t, cfg.Cache.Enabled)
	require.Equal(t, ".", cfg.Output.Dir)
	require.True(t, cfg.Output.Pretty)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Empty(t, cfg.Tracing.Endpoint)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oxidiff.yaml")

	content, err := yaml.Marshal(map[string]any{
		"analysis": map[string]any{"workers": 4, "full_tree": true},
		"cache":    map[string]any{"enabled": true, "dir": "/tmp/snapshots"},
		"output":   map[string]any{"dir": "reports", "pretty": false},
		"log":      map[string]any{"level": "debug", "format": "json"},
		"tracing":  map[string]any{"endpoint": "localhost:4317"},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 4, cfg.Analysis.Workers)
	require.True(t, cfg.Analysis.FullTree)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, "/tmp/snapshots", cfg.Cache.Dir)
	require.Equal(t, "reports", cfg.Output.Dir)
	require.False(t, cfg.Output.Pretty)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "localhost:4317", cfg.Tracing.Endpoint)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("OXIDIFF_LOG_LEVEL", "warn")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "warn", cfg.Log.Level)
}
