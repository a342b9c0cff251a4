package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/clock"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/stretchr/testify/require"
)

// GetProjectRoot returns the project root directory by finding go.mod.
func GetProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}
	dir := filepath.Dir(filename)

	// Walk up the directory tree to find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find go.mod file starting from %s", filepath.Dir(filename))
}

// GetFeaturesDir returns the directory holding the Gherkin feature files.
func GetFeaturesDir(t *testing.T) string {
	t.Helper()

	root, err := GetProjectRootValidated()
	require.NoError(t, err, "Failed to find project root")

	return filepath.Join(root, "test", "integration", "cli", "features")
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o750)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return !os.IsNotExist(err) && info.IsDir()
}

// ValidateProjectRoot ensures the directory contains go.mod and required project structure.
func ValidateProjectRoot(root string) error {
	goModPath := filepath.Join(root, "go.mod")
	if !FileExists(goModPath) {
		return fmt.Errorf("go.mod not found at %s", goModPath)
	}

	requiredDirs := []string{"internal", "cmd"}
	for _, dir := range requiredDirs {
		dirPath := filepath.Join(root, dir)
		if !DirExists(dirPath) {
			return fmt.Errorf("required project directory %s not found at %s", dir, dirPath)
		}
	}

	return nil
}

// GetProjectRootValidated returns the project root with validation.
func GetProjectRootValidated() (string, error) {
	root, err := GetProjectRoot()
	if err != nil {
		return "", err
	}

	if err := ValidateProjectRoot(root); err != nil {
		return "", fmt.Errorf("invalid project root %s: %w", root, err)
	}

	return root, nil
}

// NewFakeRegistry returns a registry driven by a fake clock, with the given
// ids already created.
func NewFakeRegistry(t *testing.T, ids ...string) (*stopwatch.Registry, *clock.Fake) {
	t.Helper()

	fake := clock.NewFake(time.Time{})
	reg := stopwatch.NewRegistry(fake)
	for _, id := range ids {
		_, err := reg.Create(id)
		require.NoError(t, err, "Failed to create stopwatch %q", id)
	}
	return reg, fake
}
