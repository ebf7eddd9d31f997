package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGoMod(t *testing.T, dir, module string) {
	t.Helper()
	content := "module " + module + "\n\ngo 1.21\n\nrequire github.com/toyz/strata v0.1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(content), 0o644))
}

func TestModuleResolver_ResolveModuleName(t *testing.T) {
	t.Run("custom module name provided", func(t *testing.T) {
		resolver := NewModuleResolver(t.TempDir())
		result, err := resolver.ResolveModuleName("github.com/custom/module")
		require.NoError(t, err)
		assert.Equal(t, "github.com/custom/module", result)
	})

	t.Run("read from go.mod above dir", func(t *testing.T) {
		root := t.TempDir()
		writeGoMod(t, root, "github.com/example/testapp")
		nested := filepath.Join(root, "internal", "app")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		result, err := NewModuleResolver(nested).ResolveModuleName("")
		require.NoError(t, err)
		assert.Equal(t, "github.com/example/testapp", result)
	})

	t.Run("invalid module path", func(t *testing.T) {
		root := t.TempDir()
		writeGoMod(t, root, "not a path")

		_, err := NewModuleResolver(root).ResolveModuleName("")
		assert.Error(t, err)
	})
}

func TestModuleResolver_BuildPackagePath(t *testing.T) {
	root := t.TempDir()
	writeGoMod(t, root, "github.com/example/testapp")
	resolver := NewModuleResolver(root)

	tests := []struct {
		name     string
		module   string
		dir      string
		expected string
	}{
		{"module root", "", root, "github.com/example/testapp"},
		{"nested package", "", filepath.Join(root, "internal", "wiring"), "github.com/example/testapp/internal/wiring"},
		{"custom module", "example.com/fork", filepath.Join(root, "app"), "example.com/fork/app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := resolver.BuildPackagePath(tt.module, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}

	t.Run("outside the module", func(t *testing.T) {
		_, err := resolver.BuildPackagePath("", filepath.Dir(root))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside module")
	})
}
