package resolve

import (
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
)

// ExprKind tags an Expr
type ExprKind int

const (
	// AccessorCall calls an accessor of a scope in the chain
	AccessorCall ExprKind = iota
	// Materialize builds a value through an existing binder
	Materialize
	// Construct calls a constructor, or builds a composite literal when Ctor
	// is nil
	Construct
)

// Expr is a resolved dependency expression
type Expr struct {
	Kind ExprKind
	// Type is the type the expression yields before Deref
	Type symbols.TypeRef
	// Deref is set when a *T value feeds a T requirement
	Deref bool

	// AccessorCall
	Scope    *Context
	Accessor *Accessor

	// Materialize: factory values keyed like Binder.FactoryParams, then the
	// requirements in Binder.Requirements order
	Binder  *models.Binder
	Factory []*Expr

	// Construct
	Product symbols.TypeName
	Ctor    *symbols.Func

	// Args are the constructor arguments of Construct and the requirements
	// of Materialize
	Args []*Expr
}
