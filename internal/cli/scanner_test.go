package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/utils"
)

// scannerTree lays out
//
//	app/app.go
//	app/screens/main.go
//	app/screens/strata_main_scope.go (generated only)
//	store/store.go
//	vendor/dep/dep.go (skipped)
//	docs/ (no Go files)
func scannerTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app/app.go":          "package app\n",
		"app/screens/main.go": "package screens\n",
		"store/store.go":      "package store\n",
		"vendor/dep/dep.go":   "package dep\n",
		"docs/README.md":      "# docs\n",
		"gen/" + utils.GeneratedFileName("MainScope"): utils.GeneratedHeader + "\n\npackage gen\n",
	}
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestDirectoryScanner_BaseDirectories(t *testing.T) {
	root := scannerTree(t)
	scanner := NewDirectoryScanner(root)

	dirs, err := scanner.BaseDirectories([]string{"./...", "./app/...", "./store", "./app/..."})
	require.NoError(t, err)
	assert.Equal(t, []string{root, filepath.Join(root, "app"), filepath.Join(root, "store")}, dirs)
}

func TestDirectoryScanner_ScanDirectories(t *testing.T) {
	root := scannerTree(t)
	scanner := NewDirectoryScanner(root)

	t.Run("recursive pattern", func(t *testing.T) {
		dirs, err := scanner.ScanDirectories([]string{"./..."})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(root, "app"),
			filepath.Join(root, "app", "screens"),
			filepath.Join(root, "store"),
		}, dirs)
	})

	t.Run("single directory", func(t *testing.T) {
		dirs, err := scanner.ScanDirectories([]string{"./store"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "store")}, dirs)
	})

	t.Run("missing directory", func(t *testing.T) {
		dirs, err := scanner.ScanDirectories([]string{"./missing"})
		require.NoError(t, err)
		assert.Empty(t, dirs)
	})
}

func TestCleaner_CleanGeneratedFiles(t *testing.T) {
	root := scannerTree(t)
	generated := filepath.Join(root, "gen", utils.GeneratedFileName("MainScope"))
	lookalike := filepath.Join(root, "app", utils.GeneratedPrefix+"notes.go")
	require.NoError(t, os.WriteFile(lookalike, []byte("package app\n"), 0o644))

	removed, err := NewCleaner(root).CleanGeneratedFiles([]string{"./..."})
	require.NoError(t, err)

	assert.Equal(t, []string{generated}, removed)
	assert.NoFileExists(t, generated)
	assert.FileExists(t, lookalike)
}
