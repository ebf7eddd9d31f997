package templates

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
)

// Reserved are the identifiers generated code declares itself
var Reserved = map[string]bool{
	"a": true, "b": true, "c": true, "l": true, "r": true, "s": true, "v": true, "x": true,
	"ctx": true, "execs": true, "parent": true, "root": true, "scope": true,
}

// ImportManager hands out package qualifiers for one generated file and
// writes the matching import block
type ImportManager struct {
	self  string
	names func(path string) string

	byPath  map[string]string // path -> qualifier
	byAlias map[string]string // qualifier -> path
}

// NewImportManager creates a manager for a file of package self. names
// returns the declared name of an import path.
func NewImportManager(self string, names func(path string) string) *ImportManager {
	return &ImportManager{
		self:    self,
		names:   names,
		byPath:  make(map[string]string),
		byAlias: make(map[string]string),
	}
}

// Qualify returns the qualifier for path, importing it on first use. The
// package being written has the empty qualifier.
func (im *ImportManager) Qualify(path string) string {
	if path == "" || path == im.self {
		return ""
	}
	if alias, ok := im.byPath[path]; ok {
		return alias
	}

	base := im.names(path)
	if base == "" || !token.IsIdentifier(base) {
		base = "pkg"
	}
	alias := base
	for n := 2; ; n++ {
		if _, taken := im.byAlias[alias]; !taken && !Reserved[alias] {
			break
		}
		alias = fmt.Sprintf("%s%d", base, n)
	}
	im.byPath[path] = alias
	im.byAlias[alias] = path
	return alias
}

// Taken reports whether name is used as a package qualifier
func (im *ImportManager) Taken(name string) bool {
	_, ok := im.byAlias[name]
	return ok
}

// AddImport imports path under its own name
func (im *ImportManager) AddImport(path string) {
	im.Qualify(path)
}

// Paths returns the imported paths, sorted
func (im *ImportManager) Paths() []string {
	paths := make([]string, 0, len(im.byPath))
	for p := range im.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// GenerateImports generates the import section, standard library first
func (im *ImportManager) GenerateImports() string {
	if len(im.byPath) == 0 {
		return ""
	}

	var std, others []string
	for _, path := range im.Paths() {
		line := fmt.Sprintf(`"%s"`, path)
		if alias := im.byPath[path]; alias != im.names(path) {
			line = alias + " " + line
		}
		if isStandardLibrary(path) {
			std = append(std, line)
		} else {
			others = append(others, line)
		}
	}

	if len(std)+len(others) == 1 {
		return fmt.Sprintf("import %s\n", append(std, others...)[0])
	}

	var result strings.Builder
	result.WriteString("import (\n")
	for _, imp := range std {
		result.WriteString(fmt.Sprintf("\t%s\n", imp))
	}
	if len(std) > 0 && len(others) > 0 {
		result.WriteString("\n")
	}
	for _, imp := range others {
		result.WriteString(fmt.Sprintf("\t%s\n", imp))
	}
	result.WriteString(")\n")
	return result.String()
}

// isStandardLibrary treats paths without a dot in the first element as
// standard library packages
func isStandardLibrary(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}
