package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/templates"
	"github.com/toyz/strata/internal/utils"
)

// binderUnit emits Bind<Product> into the output package
func (g *Generator) binderUnit(ctx *Context, b *models.Binder) (*models.Unit, error) {
	f := ctx.newUnitFile(ctx.OutPkg)
	f.imports.Qualify(b.Product.Pkg)
	f.use(b.Ref)
	for _, p := range b.FactoryParams {
		f.use(p.Type)
	}
	reqs := b.Requirements()
	for _, r := range reqs {
		f.use(r.Type)
	}

	name := binderName(b)
	data := templates.BinderData{
		Name:         name,
		Product:      b.Product.Name,
		Key:          b.Product.String(),
		Ref:          f.typ(b.Ref),
		HasLifecycle: b.HasLifecycle(),
	}

	factory := make(map[string]string, len(b.FactoryParams))
	for _, p := range b.FactoryParams {
		field := p.StructField()
		data.Fields = append(data.Fields, templates.FieldData{
			Name:  field,
			Type:  f.typ(p.Type),
			Param: f.ident(p.Name),
		})
		if p.Field == "" {
			factory[p.Name] = "b." + field
		}
	}

	params := make([]string, len(reqs))
	for i, r := range reqs {
		params[i] = f.ident(lowerFirst(r.Name))
		data.Params = append(data.Params, templates.FieldData{Name: params[i], Type: f.typ(r.Type)})
	}

	data.Construct = construct(f, b, factory, params)

	next := len(b.Dependencies())
	for _, r := range b.InjectFields {
		data.Assign = append(data.Assign, fmt.Sprintf("v.%s = %s", r.Field, params[next]))
		next++
	}
	for _, p := range b.FactoryParams {
		if p.Field != "" {
			data.Assign = append(data.Assign, fmt.Sprintf("v.%s = b.%s", p.Field, p.StructField()))
		}
	}

	handles := make(map[string]string)
	steps := func(list []models.LifecycleStep) []templates.StepData {
		out := make([]templates.StepData, 0, len(list))
		for _, s := range list {
			out = append(out, templates.StepData{
				Executor: s.Executor,
				Name:     b.Product.Name + "." + s.Name,
				Run:      stepRun(f, &data, handles, b, s),
			})
		}
		return out
	}
	data.PostConstruct = steps(b.PostConstruct)
	data.PreDestroy = steps(b.PreDestroy)

	if b.Roles.Has(models.RoleBindTarget) {
		if s, ok := ctx.ScopeOf(b.Product); ok && s.Parent != nil {
			data.Bind = &templates.BindData{Scope: s.Name, Parent: "*" + s.Parent.Name}
		}
	}

	body, err := g.registry.Execute("binder", data)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(ctx.OutDir, utils.GeneratedFileName(name))
	content, err := f.finish(g.registry, path, ctx.OutName, body)
	if err != nil {
		return nil, err
	}
	return &models.Unit{
		Name:    name,
		Kind:    models.UnitBinder,
		Origin:  b.Product,
		Package: ctx.OutPkg,
		Path:    path,
		Content: content,
	}, nil
}

// construct returns the statements leaving the new instance in v
func construct(f *unitFile, b *models.Binder, factory map[string]string, params []string) []string {
	if b.Constructor == nil {
		return []string{fmt.Sprintf("v := &%s{}", f.qual(b.Product.Pkg, b.Product.Name))}
	}

	args := make([]string, 0, len(b.Args))
	next := 0
	for _, a := range b.Args {
		if a.Factory {
			args = append(args, factory[a.Name])
			continue
		}
		args = append(args, params[next])
		next++
	}
	call := f.qual(b.Product.Pkg, b.Constructor.Name) + "(" + strings.Join(args, ", ") + ")"
	if b.ReturnsError {
		call = "strata.Must(" + call + ")"
	}
	if b.Pointer {
		return []string{"v := " + call}
	}
	return []string{"x := " + call, "v := &x"}
}

// stepRun renders a func() error running one lifecycle method of v
func stepRun(f *unitFile, data *templates.BinderData, handles map[string]string, b *models.Binder, s models.LifecycleStep) string {
	if s.Invocation.Kind == models.ReflectiveCall {
		handle, ok := handles[s.Invocation.Key]
		if !ok {
			handle = f.ident(lowerFirst(b.Product.Name) + upperFirst(s.Name) + "Handle")
			handles[s.Invocation.Key] = handle
			data.Handles = append(data.Handles, templates.HandleData{Var: handle, Key: s.Invocation.Key})
		}
		return fmt.Sprintf("func() error { return %s.Invoke(v) }", handle)
	}
	if s.ReturnsError {
		return "v." + s.Name
	}
	return fmt.Sprintf("func() error { v.%s(); return nil }", s.Name)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
