// Package generator emits the Go source of one analyzed project: a binder
// per bean-like type, one unit per scope, the Controllers startup
// orchestrator, async wrappers and the hooks files of reflective calls.
package generator

import (
	"sort"

	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/resolve"
	"github.com/toyz/strata/internal/scopes"
	"github.com/toyz/strata/internal/symbols"
	"github.com/toyz/strata/internal/templates"
	"github.com/toyz/strata/internal/utils"
)

// Generator implements the CodeGenerator interface
type Generator struct {
	registry    *templates.TemplateRegistry
	diagnostics *utils.DiagnosticSystem
}

var _ CodeGenerator = (*Generator)(nil)

// scopeMethods are declared by every scope unit and cannot be accessor names
var scopeMethods = []string{"Executors", "PostConstructed", "Close"}

// controllerMethods are declared by the Controllers unit
var controllerMethods = []string{"Start", "Results"}

// NewGenerator creates a new code generator instance
func NewGenerator() *Generator {
	return NewGeneratorWithDiagnostics(nil)
}

// NewGeneratorWithDiagnostics creates a generator reporting progress to diag
func NewGeneratorWithDiagnostics(diag *utils.DiagnosticSystem) *Generator {
	if diag == nil {
		diag = utils.NewQuietDiagnostics()
	}
	return &Generator{
		registry:    templates.DefaultTemplateRegistry,
		diagnostics: diag,
	}
}

// Generate renders every unit of ctx. Nothing is returned for writing
// unless every unit rendered and no name clashes were found.
func (g *Generator) Generate(ctx *Context) ([]*models.Unit, error) {
	if ctx == nil || ctx.Plan == nil {
		return nil, nil
	}

	errs := errors.NewMultipleErrors()
	asyncs := make(map[string]string)
	asyncMethodsOf := make(map[string][]*symbols.Func)
	for _, b := range ctx.Plan.Singletons {
		if methods := asyncMethods(ctx, b); len(methods) > 0 {
			asyncs[b.Name] = asyncName(b)
			asyncMethodsOf[b.Name] = methods
		}
	}

	g.checkNames(ctx, asyncs, errs)
	if !errs.IsEmpty() {
		return nil, errs
	}

	g.diagnostics.StartProgress("Generating units")
	var units []*models.Unit
	add := func(name string, u *models.Unit, err error) {
		if err != nil {
			errs.Add(errors.WrapGenerateError(name, err))
			return
		}
		g.diagnostics.PhaseItem("%s (%s)", u.Name, u.Kind)
		units = append(units, u)
	}

	binders := append([]*models.Binder(nil), ctx.Binders...)
	sort.Slice(binders, func(i, j int) bool { return binders[i].Product.Less(binders[j].Product) })
	for _, b := range binders {
		u, err := g.binderUnit(ctx, b)
		add(binderName(b), u, err)
	}
	for _, s := range ctx.Plan.All() {
		u, err := g.scopeUnit(ctx, s, asyncs)
		add(s.Name, u, err)
	}
	u, err := g.controllersUnit(ctx)
	add(controllersName, u, err)
	for _, b := range ctx.Plan.Singletons {
		if methods, ok := asyncMethodsOf[b.Name]; ok {
			u, err := g.asyncUnit(ctx, b, methods)
			add(asyncName(b), u, err)
		}
	}
	hooks, err := g.hooksUnits(ctx)
	if err != nil {
		errs.Add(errors.WrapGenerateError(hooksName, err))
	}
	units = append(units, hooks...)
	g.diagnostics.EndProgress()

	checkPaths(units, errs)
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return units, nil
}

// checkNames reports generated type names produced twice or clashing with a
// declared type of the output package, and accessor names clashing with the
// methods every scope declares
func (g *Generator) checkNames(ctx *Context, asyncs map[string]string, errs *errors.MultipleErrors) {
	typeOrigins := make(map[string][]string)
	claim := func(name string, origin symbols.TypeName) {
		typeOrigins[name] = append(typeOrigins[name], origin.String())
	}
	for _, b := range ctx.Binders {
		claim(binderName(b), b.Product)
	}
	for _, s := range ctx.Plan.All() {
		claim(s.Name, s.Root)
	}
	claim(controllersName, ctx.Plan.Application.Root)
	for _, b := range ctx.Plan.Singletons {
		if name, ok := asyncs[b.Name]; ok {
			claim(name, b.Product)
		}
	}

	names := make([]string, 0, len(typeOrigins))
	for name := range typeOrigins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		origins := typeOrigins[name]
		if declared, ok := ctx.Symbols.Lookup(symbols.NewTypeName(ctx.OutPkg, name)); ok && !declared.Implicit {
			origins = append(origins, declared.Name.String())
		}
		if len(origins) > 1 {
			errs.Add(errors.NewDuplicateUnit(name, origins...))
		}
	}

	for _, s := range ctx.Plan.All() {
		reserved := append([]string(nil), scopeMethods...)
		if s.Parent != nil {
			reserved = append(reserved, "Parent")
		}
		taken := make(map[string]string)
		for _, a := range s.Accessors() {
			taken[a.Name] = accessorOrigin(a, s)
		}
		if s.Level == scopes.ApplicationLevel {
			for _, b := range ctx.Plan.Singletons {
				if _, ok := asyncs[b.Name]; !ok {
					continue
				}
				name := b.Name + "Async"
				if prev, ok := taken[name]; ok {
					errs.Add(errors.NewDuplicateUnit(s.Name+"."+name, prev, b.Product.String()))
				}
			}
		}
		for _, name := range reserved {
			if origin, ok := taken[name]; ok {
				errs.Add(errors.NewDuplicateUnit(s.Name+"."+name, origin, "the scope method "+name))
			}
		}
	}

	for _, b := range ctx.Plan.Singletons {
		for _, name := range controllerMethods {
			if b.Name == name {
				errs.Add(errors.NewDuplicateUnit(controllersName+"."+name, b.Product.String(), "the Controllers method "+name))
			}
		}
	}
}

func accessorOrigin(a *resolve.Accessor, s *scopes.Scope) string {
	switch {
	case a.Binder != nil:
		return a.Binder.Product.String()
	case a.Element != nil:
		return a.Element.Owner.String() + "." + a.Element.Name
	}
	return s.Root.String()
}

// checkPaths reports two units written to the same file
func checkPaths(units []*models.Unit, errs *errors.MultipleErrors) {
	files := utils.NewBaseRegistry[string, *models.Unit]("unit", "unit file", "unit")
	files.SetValidator(utils.NoDuplicateValidator[string, *models.Unit]("unit file"))
	for _, u := range units {
		if err := files.Register(u.Path, u); err != nil {
			prev, _ := files.Get(u.Path)
			errs.Add(errors.NewDuplicateUnit(u.Path, prev.Origin.String(), u.Origin.String()))
		}
	}
}
