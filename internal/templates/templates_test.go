package templates

import (
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseName(p string) string {
	return path.Base(p)
}

func TestImportManager_Qualify(t *testing.T) {
	im := NewImportManager("example.com/app", baseName)

	assert.Equal(t, "", im.Qualify("example.com/app"))
	assert.Equal(t, "store", im.Qualify("example.com/app/store"))
	assert.Equal(t, "store", im.Qualify("example.com/app/store"))
	assert.Equal(t, "store2", im.Qualify("example.com/other/store"))

	// reserved identifiers are never used as qualifiers
	assert.Equal(t, "s2", im.Qualify("example.com/s"))
	assert.True(t, im.Taken("store2"))
	assert.False(t, im.Taken("s"))
}

func TestImportManager_GenerateImports(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", NewImportManager("example.com/app", baseName).GenerateImports())
	})

	t.Run("single", func(t *testing.T) {
		im := NewImportManager("example.com/app", baseName)
		im.AddImport("context")
		assert.Equal(t, "import \"context\"\n", im.GenerateImports())
	})

	t.Run("grouped", func(t *testing.T) {
		im := NewImportManager("example.com/app", baseName)
		im.AddImport("github.com/toyz/strata/pkg/strata")
		im.AddImport("sync")
		im.AddImport("context")
		im.Qualify("example.com/app/store")
		im.Qualify("example.com/other/store")

		expected := "import (\n" +
			"\t\"context\"\n" +
			"\t\"sync\"\n" +
			"\n" +
			"\t\"example.com/app/store\"\n" +
			"\tstore2 \"example.com/other/store\"\n" +
			"\t\"github.com/toyz/strata/pkg/strata\"\n" +
			")\n"
		assert.Equal(t, expected, im.GenerateImports())
	})
}

func TestToCamelCase(t *testing.T) {
	tests := map[string]string{
		"Store":      "store",
		"ID":         "id",
		"HTTPClient": "httpClient",
		"store":      "store",
		"":           "",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, ToCamelCase(in), in)
	}
}

func TestIdents_Name(t *testing.T) {
	im := NewImportManager("example.com/app", baseName)
	im.Qualify("example.com/app/store")
	ids := NewIdents(im)

	assert.Equal(t, "config", ids.Name("Config"))
	assert.Equal(t, "config2", ids.Name("Config"))
	assert.Equal(t, "store2", ids.Name("Store"))
	assert.Equal(t, "type_", ids.Name("type"))
	assert.Equal(t, "string_", ids.Name("String"))
	assert.Equal(t, "v2", ids.Name("V"))
	assert.Equal(t, "arg", ids.Name("_"))
}

func TestTemplateRegistry(t *testing.T) {
	reg := NewTemplateRegistry()
	assert.Equal(t, []string{"async", "binder", "controllers", "file", "hooks", "scope"}, reg.Names())

	_, err := reg.Execute("routes", nil)
	assert.Error(t, err)

	out, err := reg.Execute("hooks", HooksData{Hooks: []HookData{
		{Key: "example.com/app/store.Store.open", Method: "(*Store).open"},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, `strata.RegisterMethod("example.com/app/store.Store.open", (*Store).open)`)
}

func TestTemplateRegistry_Scope(t *testing.T) {
	out, err := NewTemplateRegistry().Execute("scope", ScopeData{
		Name:     "ApplicationScope",
		Level:    "application",
		RootName: "App",
		RootType: "*App",
		Slots: []SlotData{
			{Name: "Store", Type: "*store.Store", Expr: "NewBindStore().Provide(s.lifecycle)"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "func NewApplicationScope(root *App, execs *strata.Executors) *ApplicationScope {")
	assert.Contains(t, out, "func (s *ApplicationScope) App() *App {")
	assert.Contains(t, out, "return s.slots.Store.Get(func() *store.Store {")
	assert.NotContains(t, out, "Parent()")
}
