package templates

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// ToCamelCase lowers the leading run of upper-case letters: ID -> id,
// HTTPClient -> httpClient, Store -> store
func ToCamelCase(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// QuoteString wraps a string in quotes for code generation
func QuoteString(s string) string {
	return strconv.Quote(s)
}

// Idents hands out local identifiers that collide neither with each other
// nor with package qualifiers and reserved names
type Idents struct {
	imports *ImportManager
	used    map[string]bool
}

// NewIdents creates an allocator checking against im
func NewIdents(im *ImportManager) *Idents {
	return &Idents{imports: im, used: make(map[string]bool)}
}

// Name returns a fresh identifier derived from hint
func (id *Idents) Name(hint string) string {
	base := ToCamelCase(hint)
	if base == "" || base == "_" || !token.IsIdentifier(base) {
		base = "arg"
	}
	if token.IsKeyword(base) || isPredeclared(base) {
		base += "_"
	}
	name := base
	for n := 2; id.used[name] || Reserved[name] || (id.imports != nil && id.imports.Taken(name)); n++ {
		name = base + strconv.Itoa(n)
	}
	id.used[name] = true
	return name
}

func isPredeclared(name string) bool {
	switch name {
	case "bool", "byte", "complex64", "complex128", "error", "float32", "float64",
		"int", "int8", "int16", "int32", "int64", "rune", "string",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "any",
		"true", "false", "iota", "nil", "append", "cap", "close", "copy",
		"delete", "len", "make", "new", "panic", "print", "println", "recover":
		return true
	}
	return false
}

func joinNames(fields []FieldData) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func joinFields(fields []FieldData) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + " " + f.Type
	}
	return strings.Join(parts, ", ")
}
