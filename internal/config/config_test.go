package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
patterns: ["./app/...", "./screens/..."]
discovery:
  exhaustive: true
roots:
  screen: ["example.com/launcher/ui.Activity"]
diagnostics:
  level: verbose
watch:
  debounce: 1s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"./app/...", "./screens/..."}, cfg.Patterns)
	assert.True(t, cfg.Discovery.Exhaustive)
	assert.Equal(t, "verbose", cfg.Diagnostics.Level)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "127.0.0.1:7070", cfg.Inspect.Listen)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, []string{ScreenRootInterface, "example.com/launcher/ui.Activity"}, cfg.ScreenRoots())
	assert.Equal(t, []string{ApplicationRootInterface}, cfg.ApplicationRoots())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "patterns: [./...]\nmode: fast\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
}

func TestValidateReportsEveryField(t *testing.T) {
	_, err := Load(writeConfig(t, `
patterns: []
output:
  package: "my-pkg"
roots:
  application: ["NotQualified"]
diagnostics:
  level: chatty
`))
	require.Error(t, err)

	var multi *errors.MultipleErrors
	require.ErrorAs(t, err, &multi)
	assert.Equal(t, 4, multi.Count())
	assert.True(t, multi.HasCode(errors.ConfigurationErrorCode))

	msg := err.Error()
	assert.Contains(t, msg, "patterns")
	assert.Contains(t, msg, "output.package")
	assert.Contains(t, msg, "roots.application[0]")
	assert.Contains(t, msg, "diagnostics.level")
}

func TestIsQualifiedType(t *testing.T) {
	assert.True(t, isQualifiedType("github.com/toyz/strata/pkg/strata.ApplicationRoot"))
	assert.True(t, isQualifiedType("ui.Activity"))
	assert.False(t, isQualifiedType("Activity"))
	assert.False(t, isQualifiedType("ui.activity"))
	assert.False(t, isQualifiedType("ui."))
}
