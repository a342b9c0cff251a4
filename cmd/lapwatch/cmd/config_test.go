package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/lapwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigShowDefaults(t *testing.T) {
	output, err := execute(t, "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(output), &cfg))
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "slow-thinker", cfg.Demo.ID)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfigShowWithFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lapwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n  preload: [a, b]\n"), 0o600))

	output, err := execute(t, "--config", path, "--log-level", "warn", "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(output), &cfg))
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, []string{"a", "b"}, cfg.Server.Preload)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestConfigShowVerboseFlag(t *testing.T) {
	output, err := execute(t, "-v", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "verbose: true")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")

	output, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote default configuration")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, config.DefaultConfig().Server.Port, cfg.Server.Port)

	_, err = execute(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", path, "--force")
	require.NoError(t, err)
}

func TestConfigInitDefaultFilename(t *testing.T) {
	_, err := execute(t, "config", "init")
	require.NoError(t, err)

	_, err = os.Stat("lapwatch.yaml")
	assert.NoError(t, err)
}

func TestConfigInfo(t *testing.T) {
	output, err := execute(t, "config", "info")
	require.NoError(t, err)
	assert.Contains(t, output, "Environment prefix: LAPWATCH")
	assert.Contains(t, output, "/etc/lapwatch")
}
