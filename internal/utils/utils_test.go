package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseRegistryKeepsInsertionOrder(t *testing.T) {
	r := NewBaseRegistry[string, int]("unit", "unit file", "unit")
	r.SetValidator(ChainValidators(
		NotEmptyKeyValidator[int]("unit file"),
		NoDuplicateValidator[string, int]("unit file"),
	))

	require.NoError(t, r.Register("zeta", 1))
	require.NoError(t, r.Register("alpha", 2))
	require.NoError(t, r.Register("mid", 3))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.List())
	assert.Equal(t, []int{1, 2, 3}, r.Values())

	err := r.Register("alpha", 9)
	assert.ErrorContains(t, err, "unit registry: unit file 'alpha' is already registered")
	assert.ErrorContains(t, r.Register("", 0), "cannot be empty")

	v, err := r.MustGet("mid")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	_, err = r.MustGet("none")
	assert.ErrorContains(t, err, "unit file 'none' is not registered")
	assert.True(t, r.Has("zeta"))
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ApplicationScope": "application_scope",
		"BindWidget":       "bind_widget",
		"HTTPClient":       "http_client",
		"DbAsync":          "db_async",
		"Controllers":      "controllers",
		"Screen2Scope":     "screen2_scope",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
	assert.Equal(t, "strata_application_scope.go", GeneratedFileName("ApplicationScope"))
}

func TestCleanDirectoriesRemovesOnlyGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) string {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	generated := write("app/strata_application_scope.go", GeneratedHeader+"\n\npackage app\n")
	nested := write("app/screens/strata_main_scope.go", GeneratedHeader+"\npackage screens\n")
	handWritten := write("app/strata_notes.go", "package app\n")
	source := write("app/app.go", "package app\n")
	vendored := write("vendor/x/strata_x.go", GeneratedHeader+"\npackage x\n")

	removed, err := NewFileProcessor().CleanDirectories([]string{root})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{generated, nested}, removed)

	assert.NoFileExists(t, generated)
	assert.NoFileExists(t, nested)
	assert.FileExists(t, handWritten)
	assert.FileExists(t, source)
	assert.FileExists(t, vendored)
}

func TestScanDirectoriesWithGoFiles(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"a/a.go", "a/b/b.go", "c/c_test.go", "d/strata_x.go", ".hidden/h.go"} {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0o644))
	}

	dirs, err := NewFileProcessor().ScanDirectoriesWithGoFiles([]string{root})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(root, "a"), filepath.Join(root, "a", "b")}, dirs)
}

func TestGoModParser(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/launcher\n\ngo 1.25\n"), 0o644))
	pkgDir := filepath.Join(root, "internal", "app")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))

	parser := NewGoModParser(NewFileReader())
	mod, err := parser.FindModule(pkgDir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/launcher", mod.Path)
	assert.Equal(t, "1.25", mod.GoVersion)

	importPath, err := mod.ImportPath(pkgDir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/launcher/internal/app", importPath)

	rootPath, err := mod.ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/launcher", rootPath)

	_, err = mod.ImportPath(filepath.Dir(root))
	assert.ErrorContains(t, err, "outside module")
}

func TestFormatGoSource(t *testing.T) {
	out, err := FormatGoSource("x.go", []byte("package x\nfunc  F( ) int {return 1}\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "func F() int { return 1 }")

	_, err = FormatGoSource("bad.go", []byte("package x\nfunc {"))
	assert.ErrorContains(t, err, "invalid Go syntax in bad.go")
}

func TestWriteGoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen", "strata_x.go")
	require.NoError(t, WriteGoFile(path, []byte(GeneratedHeader+"\npackage x\nvar  A=1\n")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "var A = 1")

	generated, err := NewFileReader().IsGenerated(path)
	require.NoError(t, err)
	assert.True(t, generated)
}

func TestDiagnosticsLevels(t *testing.T) {
	var buf bytes.Buffer
	d := NewBufferedDiagnostics(DiagnosticWarn, &buf)

	d.Info("hidden")
	d.Warn("careful %d", 1)
	d.Error("broken")
	d.StartProgress("Loading")
	d.PhaseItem("loaded %d packages", 3)
	d.EndProgress()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] careful 1")
	assert.Contains(t, out, "[ERROR] broken")
	assert.NotContains(t, out, "Loading")
	assert.Equal(t, 1, d.Warnings())
	assert.Equal(t, 1, d.Errors())

	level, err := ParseDiagnosticLevel("verbose")
	require.NoError(t, err)
	assert.Equal(t, DiagnosticVerbose, level)
	_, err = ParseDiagnosticLevel("loud")
	assert.Error(t, err)
}
