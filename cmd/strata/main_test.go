package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/utils"
)

func launchProject(t *testing.T) string {
	t.Helper()
	src := filepath.Join("..", "..", "internal", "cli", "testdata", "launch")
	dst := t.TempDir()
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(dst, rel), 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dst, rel), data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), &stdout, &stderr, args...)
	return stdout.String(), stderr.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "generate")
	assert.Contains(t, out, "clean")
	assert.Contains(t, out, "inspect")
}

func TestGenerateAndClean(t *testing.T) {
	dir := launchProject(t)
	scope := filepath.Join(dir, utils.GeneratedFileName("ApplicationScope"))

	_, stderr, err := run(t, "generate", "-C", dir)
	require.NoError(t, err, stderr)
	assert.FileExists(t, scope)
	assert.FileExists(t, filepath.Join(dir, utils.GeneratedFileName("Controllers")))
	assert.FileExists(t, filepath.Join(dir, utils.GeneratedFileName("StoreAsync")))

	_, stderr, err = run(t, "clean", "-C", dir)
	require.NoError(t, err, stderr)
	assert.NoFileExists(t, scope)
}

func TestInspectPrintsGraph(t *testing.T) {
	dir := launchProject(t)

	out, stderr, err := run(t, "inspect", "-C", dir)
	require.NoError(t, err, stderr)

	var graph struct {
		OutPkg string `json:"out_pkg"`
		Scopes []struct {
			Name string `json:"name"`
		} `json:"scopes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &graph))
	assert.Equal(t, "example.com/launch", graph.OutPkg)
	require.Len(t, graph.Scopes, 1)
	assert.Equal(t, "ApplicationScope", graph.Scopes[0].Name)

	assert.NoFileExists(t, filepath.Join(dir, utils.GeneratedFileName("ApplicationScope")))
}

func TestInvalidLevel(t *testing.T) {
	dir := launchProject(t)

	_, _, err := run(t, "generate", "-C", dir, "--level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--level")
}

func TestGenerateReportsErrors(t *testing.T) {
	dir := launchProject(t)
	f, err := os.OpenFile(filepath.Join(dir, "launch.go"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\ntype Controllers struct{}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, stderr, err := run(t, "generate", "-C", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "[DuplicateUnit]")
	assert.NoFileExists(t, filepath.Join(dir, utils.GeneratedFileName("ApplicationScope")))
}
