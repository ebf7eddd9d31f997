package generator

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/templates"
	"github.com/toyz/strata/internal/utils"
)

const hooksName = "hooks"

// hooksUnits emits one hooks file per package declaring a reflectively
// invoked lifecycle method. The file registers the method expressions from
// init, which is the only place unexported methods can be named.
func (g *Generator) hooksUnits(ctx *Context) ([]*models.Unit, error) {
	byPkg := make(map[string][]templates.HookData)
	origins := make(map[string]*models.Binder)
	for _, b := range ctx.Binders {
		for _, s := range b.Reflective() {
			pkg := s.Invocation.Package
			byPkg[pkg] = append(byPkg[pkg], templates.HookData{
				Key:    s.Invocation.Key,
				Method: fmt.Sprintf("(*%s).%s", b.Product.Name, s.Name),
			})
			if _, ok := origins[pkg]; !ok {
				origins[pkg] = b
			}
		}
	}

	pkgs := make([]string, 0, len(byPkg))
	for pkg := range byPkg {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	var units []*models.Unit
	for _, pkg := range pkgs {
		hooks := dedupeHooks(byPkg[pkg])
		f := ctx.newUnitFile(pkg)
		body, err := g.registry.Execute("hooks", templates.HooksData{Hooks: hooks})
		if err != nil {
			return nil, err
		}
		path := filepath.Join(ctx.Symbols.PackageDir(pkg), utils.GeneratedFileName(hooksName))
		content, err := f.finish(g.registry, path, ctx.Symbols.PackageName(pkg), body)
		if err != nil {
			return nil, err
		}
		units = append(units, &models.Unit{
			Name:    hooksName,
			Kind:    models.UnitHooks,
			Origin:  origins[pkg].Product,
			Package: pkg,
			Path:    path,
			Content: content,
		})
	}
	return units, nil
}

// dedupeHooks drops repeated keys, such as a method that is both a
// post-construct and a pre-destroy step
func dedupeHooks(hooks []templates.HookData) []templates.HookData {
	seen := make(map[string]bool, len(hooks))
	out := hooks[:0]
	for _, h := range hooks {
		if seen[h.Key] {
			continue
		}
		seen[h.Key] = true
		out = append(out, h)
	}
	return out
}
