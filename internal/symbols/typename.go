// Package symbols is the read-only query surface over a loaded Go project:
// types, their embedded supertypes, fields, constructors and methods, the
// //strata:: markers on each of them, and assignability between types.
package symbols

import (
	"fmt"
	"go/token"
	"strings"
)

// TypeName identifies a package-level named type by import path and identifier
type TypeName struct {
	Pkg  string
	Name string
}

// NewTypeName builds a TypeName
func NewTypeName(pkg, name string) TypeName {
	return TypeName{Pkg: pkg, Name: name}
}

// ParseTypeName parses "import/path.Name"
func ParseTypeName(s string) (TypeName, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return TypeName{}, fmt.Errorf("type name %q must be import/path.Name", s)
	}
	name := s[i+1:]
	if !token.IsIdentifier(name) {
		return TypeName{}, fmt.Errorf("type name %q: %q is not an identifier", s, name)
	}
	return TypeName{Pkg: s[:i], Name: name}, nil
}

// MustParseTypeName is ParseTypeName for constants
func MustParseTypeName(s string) TypeName {
	t, err := ParseTypeName(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns import/path.Name
func (t TypeName) String() string {
	if t.Pkg == "" {
		return t.Name
	}
	return t.Pkg + "." + t.Name
}

// IsZero reports whether t names nothing
func (t TypeName) IsZero() bool {
	return t.Name == ""
}

// Exported reports whether the identifier is exported
func (t TypeName) Exported() bool {
	return token.IsExported(t.Name)
}

// Less orders type names by package then identifier
func (t TypeName) Less(o TypeName) bool {
	if t.Pkg != o.Pkg {
		return t.Pkg < o.Pkg
	}
	return t.Name < o.Name
}
