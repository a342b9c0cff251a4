package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh command tree from an empty working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "lapwatch", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	output, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "lap times")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "Usage:")
}

func TestRootCommandNoArgsShowsHelp(t *testing.T) {
	output, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, output, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	output, err := execute(t, "--version")
	require.NoError(t, err)

	assert.Contains(t, output, "lapwatch version dev")
	assert.Contains(t, output, "Commit: unknown")
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	commandNames := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		commandNames = append(commandNames, sub.Name())
	}

	for _, expected := range []string{"serve", "demo", "bench", "config"} {
		assert.Contains(t, commandNames, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := execute(t, "--no-such-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestRootCommandPersistentFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "verbose", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag %s", name)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCommandInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: shouting\n"), 0o600))

	_, err := execute(t, "--config", path, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading configuration")
}

func TestRootCommandMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
