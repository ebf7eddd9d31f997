package symbols

import (
	"go/types"
	"regexp"
	"strings"
)

// Placeholders wrap import paths inside TypeRef expressions until an import
// manager decides the package qualifier
const (
	placeholderOpen  = "«"
	placeholderClose = "»"
)

var placeholderPattern = regexp.MustCompile(`«([^»]+)»\.`)

// TypeRef is a type as it appears in a field, parameter or result
type TypeRef struct {
	// Named is the named type at the core of the expression, zero for
	// builtins and composite types
	Named TypeName
	// Pointer is set for *Named
	Pointer bool

	expr string
	typ  types.Type
}

// Named returns the reference to the named type t
func Named(t TypeName) TypeRef {
	return TypeRef{Named: t, expr: qualified(t)}
}

// Ptr returns the reference to *t
func Ptr(t TypeName) TypeRef {
	return TypeRef{Named: t, Pointer: true, expr: "*" + qualified(t)}
}

// Builtin returns a reference to a predeclared type such as int or error
func Builtin(name string) TypeRef {
	return TypeRef{expr: name}
}

// Composite returns a reference to an unnamed type expression. Named types
// inside expr must be written with «import/path».Name placeholders.
func Composite(expr string) TypeRef {
	return TypeRef{expr: expr}
}

// FromTypes converts a go/types type
func FromTypes(t types.Type) TypeRef {
	ref := TypeRef{
		expr: types.TypeString(t, func(p *types.Package) string {
			return placeholderOpen + p.Path() + placeholderClose
		}),
		typ: t,
	}

	core := t
	if ptr, ok := t.(*types.Pointer); ok {
		ref.Pointer = true
		core = ptr.Elem()
	}
	if named, ok := core.(*types.Named); ok && named.Obj().Pkg() != nil {
		ref.Named = TypeName{Pkg: named.Obj().Pkg().Path(), Name: named.Obj().Name()}
	} else {
		ref.Pointer = false
	}
	return ref
}

func qualified(t TypeName) string {
	if t.Pkg == "" {
		return t.Name
	}
	return placeholderOpen + t.Pkg + placeholderClose + "." + t.Name
}

// Key identifies the type expression; equal keys mean identical types
func (r TypeRef) Key() string {
	return r.expr
}

// IsZero reports an empty reference
func (r TypeRef) IsZero() bool {
	return r.expr == ""
}

// IsNamed reports whether r is Named or *Named
func (r TypeRef) IsNamed() bool {
	return !r.Named.IsZero()
}

// IsError reports the predeclared error type
func (r TypeRef) IsError() bool {
	return r.expr == "error"
}

// IsContext reports context.Context
func (r TypeRef) IsContext() bool {
	return !r.Pointer && r.Named == TypeName{Pkg: "context", Name: "Context"}
}

// Elem strips a pointer
func (r TypeRef) Elem() TypeRef {
	if !r.Pointer {
		return r
	}
	out := Named(r.Named)
	if ptr, ok := r.typ.(*types.Pointer); ok {
		out.typ = ptr.Elem()
	}
	return out
}

// Types returns the go/types type when the reference came from a loaded package
func (r TypeRef) Types() types.Type {
	return r.typ
}

// Packages lists every import path referenced by the expression
func (r TypeRef) Packages() []string {
	var paths []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(r.expr, -1) {
		paths = append(paths, m[1])
	}
	return paths
}

// Render writes the expression using qualify to pick each package qualifier.
// An empty qualifier means the package is the one being written.
func (r TypeRef) Render(qualify func(path string) string) string {
	return placeholderPattern.ReplaceAllStringFunc(r.expr, func(m string) string {
		path := strings.TrimSuffix(strings.TrimPrefix(m, placeholderOpen), placeholderClose+".")
		if q := qualify(path); q != "" {
			return q + "."
		}
		return ""
	})
}

// String renders with full import paths, for diagnostics
func (r TypeRef) String() string {
	return placeholderPattern.ReplaceAllString(r.expr, "$1.")
}
