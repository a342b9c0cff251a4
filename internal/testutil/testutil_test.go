package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestGetProjectRootValidated(t *testing.T) {
	root, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.True(t, DirExists(filepath.Join(root, "internal")))
}

func TestValidateProjectRoot(t *testing.T) {
	err := ValidateProjectRoot(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "go.mod not found")
}

func TestGetFeaturesDir(t *testing.T) {
	dir := GetFeaturesDir(t)
	assert.Contains(t, dir, filepath.Join("test", "integration", "cli", "features"))
	assert.True(t, DirExists(dir))
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	err := EnsureDir(testDir)
	require.NoError(t, err)
	assert.True(t, DirExists(testDir))
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/non/existent/file"))

	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
	assert.False(t, DirExists(filepath.Join(root, "go.mod")))
}

func TestNewFakeRegistry(t *testing.T) {
	reg, fake := NewFakeRegistry(t, "A", "B")
	assert.Equal(t, 2, reg.Len())

	sw, err := reg.Get("A")
	require.NoError(t, err)
	require.NoError(t, sw.Start())
	fake.Advance(120 * time.Millisecond)
	require.NoError(t, sw.Stop())

	assert.Equal(t, []time.Duration{120 * time.Millisecond}, sw.LapTimes())
}
