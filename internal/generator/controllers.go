package generator

import (
	"path/filepath"

	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/scopes"
	"github.com/toyz/strata/internal/templates"
	"github.com/toyz/strata/internal/utils"
)

const controllersName = "Controllers"

// controllersUnit emits the startup orchestrator of the singletons
func (g *Generator) controllersUnit(ctx *Context) (*models.Unit, error) {
	f := ctx.newUnitFile(ctx.OutPkg, "sync", "sync/atomic")
	for _, b := range ctx.Plan.Singletons {
		f.use(b.Ref)
	}

	data := templates.ControllersData{Scope: scopes.ApplicationScopeName}
	for _, b := range ctx.Plan.Singletons {
		data.Singletons = append(data.Singletons, templates.LaunchData{
			Name: b.Name,
			Type: f.typ(b.Ref),
			Key:  b.Product.String(),
		})
	}

	body, err := g.registry.Execute("controllers", data)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(ctx.OutDir, utils.GeneratedFileName(controllersName))
	content, err := f.finish(g.registry, path, ctx.OutName, body)
	if err != nil {
		return nil, err
	}
	return &models.Unit{
		Name:    controllersName,
		Kind:    models.UnitControllers,
		Origin:  ctx.Plan.Application.Root,
		Package: ctx.OutPkg,
		Path:    path,
		Content: content,
	}, nil
}
