package resolve

import (
	"github.com/toyz/strata/internal/binder"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
)

// Resolver implements the dependency resolution procedure: accessors of the
// current scope, then of every ancestor up to the root, then an existing
// binder, then inline construction with the shortest constructor
type Resolver struct {
	symbols symbols.Resolver
	binders map[symbols.TypeName]*models.Binder
	outPkg  string
}

// New creates a resolver over the synthesized binders. outPkg is the import
// path generated code is written to.
func New(r symbols.Resolver, binders []*models.Binder, outPkg string) *Resolver {
	byType := make(map[symbols.TypeName]*models.Binder, len(binders))
	for _, b := range binders {
		byType[b.Product] = b
	}
	return &Resolver{symbols: r, binders: byType, outPkg: outPkg}
}

// Binder returns the binder of t
func (r *Resolver) Binder(t symbols.TypeName) (*models.Binder, bool) {
	b, ok := r.binders[t]
	return b, ok
}

// Request describes one resolution
type Request struct {
	// Required is the type to produce
	Required symbols.TypeRef
	// Origin is the type whose unit is being generated
	Origin symbols.TypeName
	// Site names the requesting member, e.g. Widget.Db
	Site string
	// Exclude is the accessor whose factory is being resolved
	Exclude *Accessor
}

// Resolve finds an expression producing req.Required in ctx
func (r *Resolver) Resolve(ctx *Context, req Request) (*Expr, error) {
	return r.resolve(ctx, req, nil)
}

// Materialize builds the expression materializing b in ctx, resolving its
// factory parameters and requirements the same way as any dependency
func (r *Resolver) Materialize(ctx *Context, b *models.Binder, origin symbols.TypeName, exclude *Accessor) (*Expr, error) {
	return r.materialize(ctx, b, Request{Origin: origin, Site: b.Product.Name, Exclude: exclude}, []symbols.TypeName{b.Product})
}

// Requirements resolves the requirements of b without the factory
// parameters, for callers that supply those themselves
func (r *Resolver) Requirements(ctx *Context, b *models.Binder, origin symbols.TypeName, exclude *Accessor) ([]*Expr, error) {
	return r.requirements(ctx, b, Request{Origin: origin, Exclude: exclude}, []symbols.TypeName{b.Product})
}

func (r *Resolver) resolve(ctx *Context, req Request, stack []symbols.TypeName) (*Expr, error) {
	if scope, a, ok := ctx.Find(r.symbols, req.Required, req.Exclude); ok {
		return &Expr{Kind: AccessorCall, Type: a.Type, Scope: scope, Accessor: a}, nil
	}

	if !req.Required.IsNamed() {
		return nil, r.unresolved(req)
	}
	name := req.Required.Named
	for _, seen := range stack {
		if seen == name {
			path := make([]string, 0, len(stack)+1)
			for _, s := range stack {
				path = append(path, s.Name)
			}
			return nil, errors.NewDependencyCycle(req.Origin.String(), append(path, name.Name))
		}
	}
	stack = append(stack, name)

	if b, ok := r.binders[name]; ok && b.Roles.Has(models.RoleBean) {
		expr, err := r.materialize(ctx, b, req, stack)
		if err != nil {
			return nil, err
		}
		return r.fit(expr, req)
	}

	return r.construct(ctx, req, stack)
}

func (r *Resolver) materialize(ctx *Context, b *models.Binder, req Request, stack []symbols.TypeName) (*Expr, error) {
	expr := &Expr{Kind: Materialize, Type: b.Ref, Binder: b}
	for _, p := range b.FactoryParams {
		v, err := r.resolve(ctx, Request{
			Required: p.Type,
			Origin:   req.Origin,
			Site:     b.Product.Name + "." + p.Name,
			Exclude:  req.Exclude,
		}, stack)
		if err != nil {
			return nil, err
		}
		expr.Factory = append(expr.Factory, v)
	}
	args, err := r.requirements(ctx, b, req, stack)
	if err != nil {
		return nil, err
	}
	expr.Args = args
	return expr, nil
}

func (r *Resolver) requirements(ctx *Context, b *models.Binder, req Request, stack []symbols.TypeName) ([]*Expr, error) {
	var out []*Expr
	for _, dep := range b.Requirements() {
		v, err := r.resolve(ctx, Request{
			Required: dep.Type,
			Origin:   req.Origin,
			Site:     b.Product.Name + "." + dep.Name,
			Exclude:  req.Exclude,
		}, stack)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Resolver) construct(ctx *Context, req Request, stack []symbols.TypeName) (*Expr, error) {
	name := req.Required.Named
	info, ok := r.symbols.Lookup(name)
	if !ok || !info.IsStruct() || info.Generic {
		return nil, r.unresolved(req)
	}

	var usable []*symbols.Func
	for _, c := range r.symbols.MembersOf(name, false).Constructors {
		if c.Exported || name.Pkg == r.outPkg {
			usable = append(usable, c)
		}
	}
	ctor := binder.ShortestConstructor(usable)

	if ctor == nil {
		if !info.Exported() && name.Pkg != r.outPkg {
			return nil, r.unresolved(req)
		}
		expr := &Expr{Kind: Construct, Type: r.symbols.PtrRef(name), Product: name}
		return r.fit(expr, req)
	}

	expr := &Expr{Kind: Construct, Type: ctor.Results[0], Product: name, Ctor: ctor}
	for _, p := range ctor.Params {
		v, err := r.resolve(ctx, Request{
			Required: p.Type,
			Origin:   req.Origin,
			Site:     ctor.Name + "." + p.Name,
			Exclude:  req.Exclude,
		}, stack)
		if err != nil {
			return nil, err
		}
		expr.Args = append(expr.Args, v)
	}
	return r.fit(expr, req)
}

// fit checks that expr satisfies the request, dereferencing a *T for a T
func (r *Resolver) fit(expr *Expr, req Request) (*Expr, error) {
	if r.symbols.IsAssignable(expr.Type, req.Required) {
		return expr, nil
	}
	if expr.Type.Pointer && r.symbols.IsAssignable(expr.Type.Elem(), req.Required) {
		expr.Deref = true
		return expr, nil
	}
	return nil, r.unresolved(req)
}

func (r *Resolver) unresolved(req Request) error {
	return errors.NewUnresolvedDependency(req.Required.String(), req.Origin.String(), req.Site)
}
