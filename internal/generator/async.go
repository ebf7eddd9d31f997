package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
	"github.com/toyz/strata/internal/templates"
	"github.com/toyz/strata/internal/utils"
)

// asyncMethods lists the methods of a singleton that get a background
// wrapper: exported, concrete, not variadic or generic, not lifecycle
// methods, not opted out with //strata::noasync, and returning nothing, a
// value, an error, or a value and an error. Methods skipped only for their
// result shape are reported as warnings.
func asyncMethods(ctx *Context, b *models.Binder) []*symbols.Func {
	var out []*symbols.Func
	for _, m := range ctx.Symbols.MembersOf(b.Product, true).Methods {
		if !m.Exported || m.Abstract || m.Variadic || m.Generic || m.IsStatic() {
			continue
		}
		if symbols.HasMarker(m, annotations.NoAsyncAnnotation, annotations.PostConstructAnnotation,
			annotations.PreDestroyAnnotation, annotations.ProvidesAnnotation) {
			continue
		}
		if _, ok := asyncResult(m); !ok {
			loc := m.Location()
			ctx.Diagnostics.Warn("%s:%d: no async wrapper for %s.%s: results must be (), (T), (error) or (T, error)",
				loc.File, loc.Line, b.Product.Name, m.Name)
			continue
		}
		if !accessible(ctx, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// asyncResult returns the task value type of m: its first result, or
// struct{} when m returns nothing or only error
func asyncResult(m *symbols.Func) (symbols.TypeRef, bool) {
	switch len(m.Results) {
	case 0:
		return symbols.TypeRef{}, true
	case 1:
		if m.Results[0].IsError() {
			return symbols.TypeRef{}, true
		}
		return m.Results[0], true
	case 2:
		if !m.Results[0].IsError() && m.Results[1].IsError() {
			return m.Results[0], true
		}
	}
	return symbols.TypeRef{}, false
}

// accessible rejects methods mentioning unexported types of other packages
func accessible(ctx *Context, m *symbols.Func) bool {
	refs := append([]symbols.TypeRef(nil), m.Results...)
	for _, p := range m.Params {
		refs = append(refs, p.Type)
	}
	for _, r := range refs {
		if r.IsNamed() && !r.Named.Exported() && r.Named.Pkg != ctx.OutPkg {
			return false
		}
	}
	return true
}

func asyncName(b *models.Binder) string {
	return b.Name + "Async"
}

// asyncUnit emits the background wrapper of one singleton
func (g *Generator) asyncUnit(ctx *Context, b *models.Binder, methods []*symbols.Func) (*models.Unit, error) {
	f := ctx.newUnitFile(ctx.OutPkg, "context")
	f.use(b.Ref)
	for _, m := range methods {
		f.use(m.Results...)
		for _, p := range m.Params {
			f.use(p.Type)
		}
	}

	name := asyncName(b)
	data := templates.AsyncData{
		Name:       name,
		Target:     f.typ(b.Ref),
		TargetName: b.Product.Name,
	}
	for _, m := range methods {
		data.Methods = append(data.Methods, asyncMethod(ctx, f, m))
	}

	body, err := g.registry.Execute("async", data)
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
		Kind:    models.UnitAsync,
		Origin:  b.Product,
		Package: ctx.OutPkg,
		Path:    path,
		Content: content,
	}, nil
}

func asyncMethod(ctx *Context, f *unitFile, m *symbols.Func) templates.AsyncMethodData {
	md := templates.AsyncMethodData{
		Name:      m.Name,
		Result:    "struct{}",
		Interrupt: "MayInterrupt",
		Cancel:    "DoNotCancelPending",
	}
	if v, ok := ctx.Symbols.AnnotationValue(m, annotations.AsyncAnnotation, "Interrupt"); ok {
		if on, isBool := v.(bool); isBool && !on {
			md.Interrupt = "DoNotInterrupt"
		}
	}
	if v, ok := ctx.Symbols.AnnotationValue(m, annotations.AsyncAnnotation, "CancelPending"); ok {
		if on, isBool := v.(bool); isBool && on {
			md.Cancel = "CancelPending"
		}
	}

	idents := templates.NewIdents(f.imports)
	args := make([]string, 0, len(m.Params))
	for i, p := range m.Params {
		if i == 0 && p.Type.IsContext() {
			args = append(args, "ctx")
			continue
		}
		name := idents.Name(p.Name)
		md.Params = append(md.Params, templates.FieldData{Name: name, Type: f.typ(p.Type)})
		args = append(args, name)
	}
	call := fmt.Sprintf("a.target.%s(%s)", m.Name, strings.Join(args, ", "))

	result, _ := asyncResult(m)
	if !result.IsZero() {
		md.Result = f.typ(result)
	}
	switch {
	case len(m.Results) == 0:
		md.Body = []string{call, "return struct{}{}, nil"}
	case len(m.Results) == 2:
		md.Body = []string{"return " + call}
	case m.Results[0].IsError():
		md.Body = []string{"return struct{}{}, " + call}
	default:
		md.Body = []string{"return " + call + ", nil"}
	}
	return md
}
