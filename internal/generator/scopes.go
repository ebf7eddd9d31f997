package generator

import (
	"fmt"
	"path/filepath"

	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/resolve"
	"github.com/toyz/strata/internal/scopes"
	"github.com/toyz/strata/internal/templates"
	"github.com/toyz/strata/internal/utils"
)

// scopeUnit emits one scope type. asyncs are the wrapper types exposed by
// the application scope, keyed by singleton accessor name.
func (g *Generator) scopeUnit(ctx *Context, s *scopes.Scope, asyncs map[string]string) (*models.Unit, error) {
	f := ctx.newUnitFile(ctx.OutPkg, "context")
	f.imports.Qualify(s.Root.Pkg)
	for _, inj := range s.Inject {
		f.use(inj.Type)
		f.useExpr(inj.Value)
	}
	for _, req := range s.Requirements {
		f.useExpr(req)
	}
	for _, a := range s.Accessors() {
		f.use(a.Type)
		f.useExpr(a.Factory)
		for _, arg := range a.Args {
			f.useExpr(arg)
		}
	}

	data := templates.ScopeData{
		Name:     s.Name,
		Level:    s.Level.String(),
		RootName: s.Root.Name,
		RootType: f.typ(ctx.Symbols.PtrRef(s.Root)),
	}
	if s.Parent != nil {
		data.Parent = "*" + s.Parent.Name
	}
	if s.Binder != nil {
		data.Binder = binderName(s.Binder)
	}

	for _, inj := range s.Inject {
		data.Inject = append(data.Inject, fmt.Sprintf("s.root.%s = %s", inj.Field, f.expr(s.Context, inj.Value)))
	}

	for _, a := range s.Accessors() {
		if a.Kind == resolve.RootAccessor {
			if s.Binder == nil {
				continue
			}
			data.Slots = append(data.Slots, templates.SlotData{
				Name: a.Name,
				Type: f.typ(a.Type),
				Expr: materializeRoot(f, s),
				Doc:  "returns the " + s.Root.Name + " the scope was created for",
			})
			continue
		}
		data.Slots = append(data.Slots, templates.SlotData{
			Name: a.Name,
			Type: f.typ(a.Type),
			Expr: slotExpr(f, s, a),
			Doc:  slotDoc(a),
		})
	}

	if s.Level == scopes.ApplicationLevel {
		for _, b := range ctx.Plan.Singletons {
			wrapper, ok := asyncs[b.Name]
			if !ok {
				continue
			}
			data.Slots = append(data.Slots, templates.SlotData{
				Name: b.Name + "Async",
				Type: "*" + wrapper,
				Expr: fmt.Sprintf("New%s(s.%s(), s.Executors())", wrapper, b.Name),
				Doc:  "returns the background wrapper of " + b.Name,
			})
		}
	}

	body, err := g.registry.Execute("scope", data)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(ctx.OutDir, utils.GeneratedFileName(s.Name))
	content, err := f.finish(g.registry, path, ctx.OutName, body)
	if err != nil {
		return nil, err
	}
	return &models.Unit{
		Name:    s.Name,
		Kind:    models.UnitScope,
		Origin:  s.Root,
		Package: ctx.OutPkg,
		Path:    path,
		Content: content,
	}, nil
}

func materializeRoot(f *unitFile, s *scopes.Scope) string {
	args := f.exprs(s.Context, s.Requirements)
	if s.Binder.HasLifecycle() {
		if args == "" {
			return "s.binder.Provide(s.lifecycle)"
		}
		return "s.binder.Provide(s.lifecycle, " + args + ")"
	}
	return "s.binder.Materialize(" + args + ")"
}

func slotExpr(f *unitFile, s *scopes.Scope, a *resolve.Accessor) string {
	if a.Kind != resolve.ElementAccessor {
		return f.expr(s.Context, a.Factory)
	}
	recv := "s.root"
	if s.Binder != nil {
		recv = "s." + s.Root.Name + "()"
	}
	call := recv + "." + a.Element.Name + "(" + f.exprs(s.Context, a.Args) + ")"
	if a.Element.ReturnsError() {
		return "strata.Must(" + call + ")"
	}
	return call
}

func slotDoc(a *resolve.Accessor) string {
	switch a.Kind {
	case resolve.ElementAccessor:
		return "is provided by " + a.Element.Owner.Name + "." + a.Element.Name
	case resolve.SingletonAccessor:
		return "returns the " + a.Binder.Product.Name + " singleton"
	}
	return "returns the " + a.Binder.Product.Name + " owned by the scope"
}
