// Package scopes lays out the three scope levels and the accessors each one
// exposes, resolving every accessor factory against the chain of enclosing
// scopes.
package scopes

import (
	"fmt"
	"sort"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/binder"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/resolve"
	"github.com/toyz/strata/internal/symbols"
)

// Level is a lifetime level
type Level int

const (
	ApplicationLevel Level = iota
	ScreenLevel
	BindLevel
)

func (l Level) String() string {
	switch l {
	case ApplicationLevel:
		return "application"
	case ScreenLevel:
		return "screen"
	case BindLevel:
		return "bind"
	default:
		return "unknown"
	}
}

// ApplicationScopeName is the generated type of the application level
const ApplicationScopeName = "ApplicationScope"

// Injection assigns a resolved value to a field of the scope root
type Injection struct {
	Field string
	Type  symbols.TypeRef
	Value *resolve.Expr
}

// Scope is one generated scope unit
type Scope struct {
	Level   Level
	Name    string
	Root    symbols.TypeName
	Context *resolve.Context
	Parent  *Scope
	// Binder materializes the root of a bind scope
	Binder *models.Binder
	// Requirements are the resolved requirements of Binder
	Requirements []*resolve.Expr
	// Inject are the root fields assigned on scope creation
	Inject []Injection
}

// Accessors returns the accessors of the scope, root first
func (s *Scope) Accessors() []*resolve.Accessor {
	return s.Context.Accessors
}

// Plan is the scope hierarchy of one generation run
type Plan struct {
	Application *Scope
	Screens     []*Scope
	Binds       []*Scope
	// Singletons are the singleton binders in launch order
	Singletons []*models.Binder
}

// All returns every scope, top-down
func (p *Plan) All() []*Scope {
	if p.Application == nil {
		return nil
	}
	out := []*Scope{p.Application}
	out = append(out, p.Screens...)
	return append(out, p.Binds...)
}

// Planner builds a Plan
type Planner struct {
	symbols  symbols.Resolver
	synth    *binder.Synthesizer
	resolver *resolve.Resolver
	outPkg   string

	binders map[symbols.TypeName]*models.Binder
	errs    *errors.MultipleErrors
}

// NewPlanner creates a planner over the synthesized binders
func NewPlanner(r symbols.Resolver, synth *binder.Synthesizer, res *resolve.Resolver, outPkg string) *Planner {
	return &Planner{symbols: r, synth: synth, resolver: res, outPkg: outPkg}
}

// Plan lays out the hierarchy for d. It returns a nil plan when no
// application root exists and nothing needs one.
func (p *Planner) Plan(d *models.Discovery, binders []*models.Binder) (*Plan, error) {
	p.errs = errors.NewMultipleErrors()
	p.binders = make(map[symbols.TypeName]*models.Binder, len(binders))
	for _, b := range binders {
		p.binders[b.Product] = b
	}

	apps := d.TypesWith(models.RoleApplicationRoot)
	switch {
	case len(apps) > 1:
		names := make([]string, len(apps))
		for i, t := range apps {
			names[i] = t.String()
		}
		return nil, errors.NewRootConflict("ApplicationRoot", names...)
	case len(apps) == 0:
		if len(binders) == 0 && len(d.TypesWith(models.RoleScreenRoot)) == 0 {
			return nil, nil
		}
		return nil, errors.New(errors.ValidationErrorCode,
			"no application root found").
			WithSuggestion("embed strata.Application in the type that owns the application lifetime")
	}

	plan := &Plan{}
	for _, t := range d.TypesWith(models.RoleSingleton) {
		if b, ok := p.binders[t]; ok {
			plan.Singletons = append(plan.Singletons, b)
		}
	}
	sort.SliceStable(plan.Singletons, func(i, j int) bool {
		return plan.Singletons[i].Name < plan.Singletons[j].Name
	})

	app := p.newScope(ApplicationLevel, ApplicationScopeName, apps[0], nil)
	for _, b := range plan.Singletons {
		app.Context.Add(&resolve.Accessor{
			Name:   b.Name,
			Kind:   resolve.SingletonAccessor,
			Type:   b.Ref,
			Binder: b,
			Loc:    b.Loc,
		})
	}
	plan.Application = app

	for _, t := range d.TypesWith(models.RoleScreenRoot) {
		if d.Has(t, models.RoleApplicationRoot) {
			continue
		}
		s := p.newScope(ScreenLevel, t.Name+"Scope", t, app)
		plan.Screens = append(plan.Screens, s)
	}

	for _, t := range d.TypesWith(models.RoleBindTarget) {
		b, ok := p.binders[t]
		if !ok {
			continue
		}
		parent, err := p.parentOf(b, plan)
		if err != nil {
			p.collect(err)
			continue
		}
		s := &Scope{
			Level:   BindLevel,
			Name:    t.Name + "Scope",
			Root:    t,
			Parent:  parent,
			Binder:  b,
			Context: resolve.NewContext(t.Name+"Scope", t, parent.Context),
		}
		s.Context.Add(&resolve.Accessor{Name: t.Name, Kind: resolve.RootAccessor, Type: b.Ref, Binder: b, Loc: b.Loc})
		p.elements(s)
		plan.Binds = append(plan.Binds, s)
	}

	for _, s := range plan.All() {
		p.reachable(s)
	}
	for _, s := range plan.All() {
		p.resolveScope(s)
	}

	if err := p.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *Planner) newScope(level Level, name string, root symbols.TypeName, parent *Scope) *Scope {
	var parentCtx *resolve.Context
	if parent != nil {
		parentCtx = parent.Context
	}
	s := &Scope{
		Level:   level,
		Name:    name,
		Root:    root,
		Parent:  parent,
		Context: resolve.NewContext(name, root, parentCtx),
	}
	info, _ := p.symbols.Lookup(root)
	acc := &resolve.Accessor{Name: root.Name, Kind: resolve.RootAccessor, Type: p.symbols.PtrRef(root)}
	if info != nil {
		acc.Loc = info.Location()
	}
	s.Context.Add(acc)

	fields, err := p.synth.InjectFields(root)
	if err != nil {
		p.collect(err)
	}
	for _, f := range fields {
		s.Inject = append(s.Inject, Injection{Field: f.Field, Type: f.Type})
	}
	p.elements(s)
	return s
}

// parentOf picks the enclosing scope of a bind target: the screen named by
// -Screen, the only screen, or the application scope when there are none
func (p *Planner) parentOf(b *models.Binder, plan *Plan) (*Scope, error) {
	if b.Screen != "" {
		for _, s := range plan.Screens {
			if s.Root.Name == b.Screen || s.Root.String() == b.Screen {
				return s, nil
			}
		}
		return nil, errors.NewUnresolvedDependency(b.Screen, b.Product.String(), "//strata::bind -Screen").
			At(location(b.Loc))
	}
	switch len(plan.Screens) {
	case 0:
		return plan.Application, nil
	case 1:
		return plan.Screens[0], nil
	default:
		names := make([]string, len(plan.Screens))
		for i, s := range plan.Screens {
			names[i] = s.Root.String()
		}
		return nil, errors.NewRootConflict("ScreenRoot of "+b.Product.Name, names...).
			At(location(b.Loc)).
			Hint(fmt.Sprintf("select the parent with //strata::bind -Screen=%s", plan.Screens[0].Root.Name))
	}
}

// elements adds one accessor per //strata::provides method of the root
func (p *Planner) elements(s *Scope) {
	members := p.symbols.MembersOf(s.Root, true)
	for _, m := range members.Methods {
		if !symbols.HasMarker(m, annotations.ProvidesAnnotation) {
			continue
		}
		if problem := elementProblem(m); problem != "" {
			p.errs.Add(errors.NewLifecycleShape(s.Root.String(), m.Name, problem).At(location(m.Location())).
				Hint("scope elements return a value, optionally followed by error"))
			continue
		}
		if !m.Exported && s.Root.Pkg != p.outPkg {
			p.errs.Add(errors.NewInaccessibleMember(s.Root.String(), m.Name, "scope element methods must be exported").
				At(location(m.Location())))
			continue
		}
		s.Context.Add(&resolve.Accessor{
			Name:    m.Name,
			Kind:    resolve.ElementAccessor,
			Type:    m.Results[0],
			Element: m,
			Loc:     m.Location(),
		})
	}
}

func elementProblem(m *symbols.Func) string {
	switch {
	case m.IsStatic():
		return "is a static function"
	case m.Generic:
		return "is generic"
	case m.Variadic:
		return "is variadic"
	case len(m.Results) == 0 || len(m.Results) > 2:
		return fmt.Sprintf("returns %d values", len(m.Results))
	case m.Results[0].IsError():
		return "returns only error"
	case len(m.Results) == 2 && !m.Results[1].IsError():
		return "must return a value and an optional error"
	}
	return ""
}

// reachable adds a bean accessor for every bean the scope needs that is not
// already reachable from an enclosing scope, iterating to a fixpoint
func (p *Planner) reachable(s *Scope) {
	var queue []symbols.TypeRef
	push := func(b *models.Binder) {
		for _, req := range b.Requirements() {
			queue = append(queue, req.Type)
		}
		for _, f := range b.FactoryParams {
			queue = append(queue, f.Type)
		}
	}

	for _, f := range s.Inject {
		queue = append(queue, f.Type)
	}
	for _, a := range s.Accessors() {
		switch a.Kind {
		case resolve.ElementAccessor:
			for _, param := range a.Element.Params {
				queue = append(queue, param.Type)
			}
		case resolve.SingletonAccessor:
			push(a.Binder)
		}
	}
	if s.Binder != nil {
		for _, req := range s.Binder.Requirements() {
			queue = append(queue, req.Type)
		}
	}

	for len(queue) > 0 {
		required := queue[0]
		queue = queue[1:]
		if _, _, ok := s.Context.Find(p.symbols, required, nil); ok {
			continue
		}
		b, ok := p.binders[required.Named]
		if !ok || !required.IsNamed() || !b.Roles.Has(models.RoleBean) {
			continue
		}
		s.Context.Add(&resolve.Accessor{
			Name:   b.Name,
			Kind:   resolve.BeanAccessor,
			Type:   b.Ref,
			Binder: b,
			Loc:    b.Loc,
		})
		push(b)
	}
}

func (p *Planner) resolveScope(s *Scope) {
	seen := map[string]*resolve.Accessor{}
	for _, a := range s.Accessors() {
		if prev, ok := seen[a.Name]; ok {
			p.errs.Add(errors.NewDuplicateUnit(s.Name+"."+a.Name, accessorOrigin(prev), accessorOrigin(a)))
			continue
		}
		seen[a.Name] = a
	}

	for i, f := range s.Inject {
		v, err := p.resolver.Resolve(s.Context, resolve.Request{
			Required: f.Type,
			Origin:   s.Root,
			Site:     s.Root.Name + "." + f.Field,
		})
		if err != nil {
			p.collect(err)
			continue
		}
		s.Inject[i].Value = v
	}

	if s.Binder != nil {
		root := s.Accessors()[0]
		reqs, err := p.resolver.Requirements(s.Context, s.Binder, s.Root, root)
		if err != nil {
			p.collect(err)
		}
		s.Requirements = reqs
	}

	for _, a := range s.Accessors() {
		switch a.Kind {
		case resolve.ElementAccessor:
			for _, param := range a.Element.Params {
				v, err := p.resolver.Resolve(s.Context, resolve.Request{
					Required: param.Type,
					Origin:   s.Root,
					Site:     s.Root.Name + "." + a.Element.Name,
					Exclude:  a,
				})
				if err != nil {
					p.collect(err)
					continue
				}
				a.Args = append(a.Args, v)
			}
		case resolve.SingletonAccessor, resolve.BeanAccessor:
			v, err := p.resolver.Materialize(s.Context, a.Binder, a.Binder.Product, a)
			if err != nil {
				p.collect(err)
				continue
			}
			a.Factory = v
		}
	}
}

func accessorOrigin(a *resolve.Accessor) string {
	if a.Binder != nil {
		return a.Binder.Product.String()
	}
	if a.Element != nil {
		return a.Element.Owner.String() + "." + a.Element.Name
	}
	return a.Type.String()
}

func (p *Planner) collect(err error) {
	switch e := err.(type) {
	case *errors.MultipleErrors:
		for _, inner := range e.Errors {
			p.errs.Add(inner)
		}
	case errors.StrataError:
		p.errs.Add(e)
	default:
		p.errs.Add(errors.Wrap(errors.GenerationErrorCode, "scope planning failed", err))
	}
}

func location(loc annotations.SourceLocation) errors.SourceLocation {
	return errors.SourceLocation{File: loc.File, Line: loc.Line, Column: loc.Column}
}
