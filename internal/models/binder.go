package models

import (
	"strings"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/symbols"
)

// InvocationKind selects how a lifecycle method is called
type InvocationKind int

const (
	// DirectCall names the method in generated code
	DirectCall InvocationKind = iota
	// ReflectiveCall goes through a strata.MethodHandle registered by a hooks
	// file in the declaring package
	ReflectiveCall
)

func (k InvocationKind) String() string {
	if k == ReflectiveCall {
		return "ReflectiveCall"
	}
	return "DirectCall"
}

// Invocation is the strategy resolved once per lifecycle method
type Invocation struct {
	Kind InvocationKind `json:"kind"`
	// Key is the registration key of a ReflectiveCall
	Key string `json:"key,omitempty"`
	// Package declares the method and receives the hooks file
	Package string `json:"package,omitempty"`
}

// LifecycleStep is one post-construct or pre-destroy method
type LifecycleStep struct {
	Method     *symbols.Func `json:"-"`
	Name       string        `json:"name"`
	Priority   int           `json:"priority"`
	Executor   string        `json:"executor"`
	Invocation Invocation    `json:"invocation"`
	// ReturnsError is set when the method returns error
	ReturnsError bool `json:"returns_error"`
}

// CtorArg is one constructor parameter of the chosen construction path
type CtorArg struct {
	Name string          `json:"name"`
	Type symbols.TypeRef `json:"-"`
	// Factory is set for parameters supplied by the caller
	Factory bool `json:"factory"`
}

// FactoryParam is a value supplied from outside the graph, either a
// constructor parameter or a //strata::param field
type FactoryParam struct {
	Name  string          `json:"name"`
	Type  symbols.TypeRef `json:"-"`
	Field string          `json:"field,omitempty"`
}

// StructField is the name of the binder struct field holding the value
func (p FactoryParam) StructField() string {
	if p.Field != "" {
		return p.Field
	}
	return strings.ToUpper(p.Name[:1]) + p.Name[1:]
}

// Requirement is a dependency resolved from the graph: a constructor
// parameter or an injected field
type Requirement struct {
	Name  string                     `json:"name"`
	Type  symbols.TypeRef            `json:"-"`
	Field string                     `json:"field,omitempty"`
	Loc   annotations.SourceLocation `json:"-"`
}

// Binder is the construction recipe of one type
type Binder struct {
	Product symbols.TypeName `json:"product"`
	// Ref is the type a materialization yields, always *Product
	Ref   symbols.TypeRef `json:"-"`
	Roles RoleSet         `json:"roles"`
	// Name is the accessor name, the type name unless -Name overrides it
	Name string `json:"name"`
	// Constructor is nil when the product is built as &T{}
	Constructor *symbols.Func `json:"-"`
	// ReturnsError is set when the constructor returns (T, error)
	ReturnsError bool `json:"returns_error"`
	// Pointer is set when the constructor returns *T
	Pointer bool `json:"pointer"`

	Args          []CtorArg       `json:"args,omitempty"`
	FactoryParams []FactoryParam  `json:"factory_params,omitempty"`
	InjectFields  []Requirement   `json:"inject_fields,omitempty"`
	PostConstruct []LifecycleStep `json:"post_construct,omitempty"`
	PreDestroy    []LifecycleStep `json:"pre_destroy,omitempty"`

	// Screen names the parent screen of a bind target, when given
	Screen string `json:"screen,omitempty"`

	Loc annotations.SourceLocation `json:"-"`
}

// Dependencies lists the constructor arguments resolved from the graph
func (b *Binder) Dependencies() []CtorArg {
	var out []CtorArg
	for _, a := range b.Args {
		if !a.Factory {
			out = append(out, a)
		}
	}
	return out
}

// Requirements lists every graph dependency: constructor dependencies then
// injected fields
func (b *Binder) Requirements() []Requirement {
	var out []Requirement
	for _, a := range b.Dependencies() {
		out = append(out, Requirement{Name: a.Name, Type: a.Type, Loc: b.Loc})
	}
	return append(out, b.InjectFields...)
}

// HasLifecycle reports whether either chain has steps
func (b *Binder) HasLifecycle() bool {
	return len(b.PostConstruct) > 0 || len(b.PreDestroy) > 0
}

// Reflective lists every lifecycle step called through a method handle
func (b *Binder) Reflective() []LifecycleStep {
	var out []LifecycleStep
	for _, steps := range [][]LifecycleStep{b.PostConstruct, b.PreDestroy} {
		for _, s := range steps {
			if s.Invocation.Kind == ReflectiveCall {
				out = append(out, s)
			}
		}
	}
	return out
}
