package cli

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/config"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/utils"
)

// copyProject copies testdata/<name> to a temporary directory so passes can
// write into it
func copyProject(t *testing.T, name string) string {
	t.Helper()
	src := filepath.Join("testdata", name)
	dst := t.TempDir()
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

func newTestGenerator(t *testing.T, dir string, edit ...func(*config.Config)) *Generator {
	t.Helper()
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	for _, fn := range edit {
		fn(cfg)
	}
	return NewGenerator(Options{
		Dir:         dir,
		Config:      cfg,
		Diagnostics: utils.NewBufferedDiagnostics(utils.DiagnosticSilent, io.Discard),
	})
}

func readUnit(t *testing.T, dir, unit string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, utils.GeneratedFileName(unit)))
	require.NoError(t, err)
	return string(content)
}

var launchUnits = []string{"BindApp", "BindCounter", "BindStore", "ApplicationScope", "Controllers", "StoreAsync"}

func TestGeneratorRun(t *testing.T) {
	dir := copyProject(t, "launch")
	g := newTestGenerator(t, dir)

	require.NoError(t, g.Run(context.Background()))

	summary := g.Summary()
	assert.Len(t, summary.GeneratedFiles, len(launchUnits))
	assert.Equal(t, 3, summary.Binders)
	assert.Equal(t, 1, summary.Scopes)
	assert.Equal(t, 2, summary.PackagesProcessed)
	assert.Equal(t, 1, summary.Roles["Singleton"])
	assert.Equal(t, 1, summary.Roles["ApplicationRoot"])
	assert.Empty(t, summary.RemovedFiles)

	for _, unit := range launchUnits {
		content := readUnit(t, dir, unit)
		assert.True(t, strings.HasPrefix(content, utils.GeneratedHeader), unit)
		assert.Contains(t, content, "package launch", unit)
	}

	scope := readUnit(t, dir, "ApplicationScope")
	assert.Contains(t, scope, "type ApplicationScope struct")
	assert.Contains(t, scope, `"example.com/launch/store"`)
	assert.Contains(t, readUnit(t, dir, "StoreAsync"), "func (a *StoreAsync) Ready(")
}

func TestGeneratorRunIsStable(t *testing.T) {
	dir := copyProject(t, "launch")
	g := newTestGenerator(t, dir)

	require.NoError(t, g.Run(context.Background()))
	first := readUnit(t, dir, "ApplicationScope")

	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, first, readUnit(t, dir, "ApplicationScope"))
	assert.Empty(t, g.Summary().RemovedFiles)
}

func TestGeneratorPrunesStaleUnits(t *testing.T) {
	dir := copyProject(t, "launch")
	stale := filepath.Join(dir, utils.GeneratedFileName("BindGone"))
	handWritten := filepath.Join(dir, utils.GeneratedPrefix+"notes.go")
	require.NoError(t, os.WriteFile(stale, []byte(utils.GeneratedHeader+"\n\npackage launch\n\nvar _ = gone\n"), 0o644))
	require.NoError(t, os.WriteFile(handWritten, []byte("package launch\n\nconst Notes = 1\n"), 0o644))

	g := newTestGenerator(t, dir)
	require.NoError(t, g.Run(context.Background()))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, handWritten)
	assert.Equal(t, []string{stale}, g.Summary().RemovedFiles)
}

func TestGeneratorOutputDir(t *testing.T) {
	dir := copyProject(t, "launch")
	g := newTestGenerator(t, dir, func(cfg *config.Config) {
		cfg.Output.Dir = "internal/wiring"
		cfg.Output.Package = "wiring"
	})

	require.NoError(t, g.Run(context.Background()))

	out := filepath.Join(dir, "internal", "wiring")
	scope := readUnit(t, out, "ApplicationScope")
	assert.Contains(t, scope, "package wiring")
	assert.Contains(t, scope, `"example.com/launch"`)
	assert.NoFileExists(t, filepath.Join(dir, utils.GeneratedFileName("ApplicationScope")))
}

func TestGeneratorStopsBeforeWriting(t *testing.T) {
	dir := copyProject(t, "launch")
	f, err := os.OpenFile(filepath.Join(dir, "launch.go"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n// Controllers clashes with the generated startup type\ntype Controllers struct{}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	g := newTestGenerator(t, dir)
	err = g.Run(context.Background())
	require.Error(t, err)

	lint, ok := errors.AsLint(err)
	require.True(t, ok)
	assert.Equal(t, errors.DuplicateUnitCode, lint.ErrorCode())
	for _, unit := range launchUnits {
		assert.NoFileExists(t, filepath.Join(dir, utils.GeneratedFileName(unit)))
	}
}

func TestGeneratorInspect(t *testing.T) {
	dir := copyProject(t, "launch")
	g := newTestGenerator(t, dir)

	graph, err := g.Inspect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "example.com/launch", graph.OutPkg)
	assert.Equal(t, []string{"example.com/launch/store.Store"}, graph.Roles["Singleton"])
	require.Len(t, graph.Scopes, 1)
	scope := graph.Scopes[0]
	assert.Equal(t, "ApplicationScope", scope.Name)
	assert.Equal(t, "application", scope.Level)

	var names []string
	for _, a := range scope.Accessors {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, "Store")
	assert.NoFileExists(t, filepath.Join(dir, utils.GeneratedFileName("ApplicationScope")))
}

func TestGeneratorClean(t *testing.T) {
	dir := copyProject(t, "launch")
	g := newTestGenerator(t, dir)
	require.NoError(t, g.Run(context.Background()))

	removed, err := g.Clean()
	require.NoError(t, err)
	assert.Len(t, removed, len(launchUnits))
	for _, unit := range launchUnits {
		assert.NoFileExists(t, filepath.Join(dir, utils.GeneratedFileName(unit)))
	}
	assert.FileExists(t, filepath.Join(dir, "launch.go"))
}

func TestGeneratorWatchDirectories(t *testing.T) {
	dir := copyProject(t, "launch")
	g := newTestGenerator(t, dir)

	dirs, err := g.WatchDirectories()
	require.NoError(t, err)

	root, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "store")}, dirs)
}
