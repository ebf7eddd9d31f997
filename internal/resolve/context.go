// Package resolve finds, for a required type and the scope being emitted, the
// expression that yields an instance of that type.
package resolve

import (
	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
)

// AccessorKind says where an accessor's value comes from
type AccessorKind int

const (
	// RootAccessor returns the object the scope wraps
	RootAccessor AccessorKind = iota
	// ElementAccessor calls a //strata::provides method of the root
	ElementAccessor
	// SingletonAccessor materializes a singleton through its binder
	SingletonAccessor
	// BeanAccessor materializes a reachable bean through its binder
	BeanAccessor
)

func (k AccessorKind) String() string {
	switch k {
	case RootAccessor:
		return "root"
	case ElementAccessor:
		return "element"
	case SingletonAccessor:
		return "singleton"
	case BeanAccessor:
		return "bean"
	default:
		return "unknown"
	}
}

// Accessor is a cached slot exposed by a scope
type Accessor struct {
	Name    string          `json:"name"`
	Kind    AccessorKind    `json:"-"`
	Type    symbols.TypeRef `json:"-"`
	Binder  *models.Binder  `json:"-"`
	Element *symbols.Func   `json:"-"`
	// Args are the resolved arguments of an element method
	Args []*Expr `json:"-"`
	// Loc is the declaration the accessor was derived from
	Loc annotations.SourceLocation `json:"-"`
	// Factory is the expression building the slot value, nil for the root
	Factory *Expr `json:"-"`
}

// Context is one scope level in the ownership chain
type Context struct {
	// Name is the generated scope type, e.g. ApplicationScope
	Name string
	// Root is the type the scope wraps
	Root symbols.TypeName
	// Parent is the enclosing scope, nil at the application level
	Parent *Context

	Accessors []*Accessor
}

// NewContext creates a context nested in parent
func NewContext(name string, root symbols.TypeName, parent *Context) *Context {
	return &Context{Name: name, Root: root, Parent: parent}
}

// Add appends an accessor
func (c *Context) Add(a *Accessor) *Accessor {
	c.Accessors = append(c.Accessors, a)
	return a
}

// Accessor returns the accessor with the given name
func (c *Context) Accessor(name string) (*Accessor, bool) {
	for _, a := range c.Accessors {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Depth counts the ancestors of c
func (c *Context) Depth() int {
	n := 0
	for p := c.Parent; p != nil; p = p.Parent {
		n++
	}
	return n
}

// Reach returns the expression reaching target from a method of c whose
// receiver is recv, e.g. s.parent.parent
func (c *Context) Reach(target *Context, recv string) string {
	expr := recv
	for level := c; level != nil && level != target; level = level.Parent {
		expr += ".parent"
	}
	return expr
}

// Find walks from c to the root and returns the first accessor whose type
// is assignable to required, skipping exclude
func (c *Context) Find(r symbols.Resolver, required symbols.TypeRef, exclude *Accessor) (*Context, *Accessor, bool) {
	for level := c; level != nil; level = level.Parent {
		for _, a := range level.Accessors {
			if a == exclude {
				continue
			}
			if r.IsAssignable(a.Type, required) {
				return level, a, true
			}
		}
	}
	return nil, nil, false
}
