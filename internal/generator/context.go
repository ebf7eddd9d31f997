package generator

import (
	"github.com/toyz/strata/internal/binder"
	"github.com/toyz/strata/internal/discovery"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/resolve"
	"github.com/toyz/strata/internal/scopes"
	"github.com/toyz/strata/internal/symbols"
	"github.com/toyz/strata/internal/utils"
)

// Options configures one generation pass
type Options struct {
	Discovery []discovery.Option

	// OutPkg, OutDir and OutName select the package scope units are written
	// to. By default it is the package declaring the application root.
	OutPkg  string
	OutDir  string
	OutName string
}

// Context carries everything one generation pass works against. It is built
// once per pass and never shared between passes.
type Context struct {
	Symbols     symbols.Resolver
	Discovery   *models.Discovery
	Synthesizer *binder.Synthesizer
	Binders     []*models.Binder
	Resolver    *resolve.Resolver
	// Plan is nil when the project declares nothing to generate
	Plan *scopes.Plan

	OutPkg  string
	OutDir  string
	OutName string

	Diagnostics *utils.DiagnosticSystem
}

// NewContext runs discovery, binder synthesis and scope planning over r
func NewContext(r symbols.Resolver, diag *utils.DiagnosticSystem, opts Options) (*Context, error) {
	if diag == nil {
		diag = utils.NewQuietDiagnostics()
	}
	ctx := &Context{Symbols: r, Diagnostics: diag}

	diag.StartProgress("Discovering roles")
	ctx.Discovery = discovery.New(r, opts.Discovery...).Discover()
	for _, t := range ctx.Discovery.Types() {
		diag.PhaseItem("%s: %s", t, ctx.Discovery.RolesOf(t))
	}
	diag.EndProgress()

	ctx.selectOutput(opts)

	diag.StartProgress("Synthesizing binders")
	ctx.Synthesizer = binder.New(r, ctx.OutPkg, diag)
	binders, err := ctx.Synthesizer.SynthesizeAll(ctx.Discovery)
	diag.EndProgress()
	if err != nil {
		return nil, err
	}
	ctx.Binders = binders
	ctx.Resolver = resolve.New(r, binders, ctx.OutPkg)

	diag.StartProgress("Planning scopes")
	plan, err := scopes.NewPlanner(r, ctx.Synthesizer, ctx.Resolver, ctx.OutPkg).Plan(ctx.Discovery, binders)
	diag.EndProgress()
	if err != nil {
		return nil, err
	}
	ctx.Plan = plan
	return ctx, nil
}

func (c *Context) selectOutput(opts Options) {
	c.OutPkg, c.OutDir, c.OutName = opts.OutPkg, opts.OutDir, opts.OutName
	if c.OutPkg == "" {
		if apps := c.Discovery.TypesWith(models.RoleApplicationRoot); len(apps) > 0 {
			c.OutPkg = apps[0].Pkg
		}
	}
	if c.OutPkg == "" {
		return
	}
	if c.OutDir == "" {
		c.OutDir = c.Symbols.PackageDir(c.OutPkg)
	}
	if c.OutName == "" {
		c.OutName = c.Symbols.PackageName(c.OutPkg)
	}
}

// Empty reports whether the pass has nothing to emit
func (c *Context) Empty() bool {
	return c.Plan == nil && len(c.Binders) == 0
}

// ScopeOf returns the planned scope of a bind target
func (c *Context) ScopeOf(product symbols.TypeName) (*scopes.Scope, bool) {
	if c.Plan == nil {
		return nil, false
	}
	for _, s := range c.Plan.All() {
		if s.Root == product {
			return s, true
		}
	}
	return nil, false
}

// Binder returns the binder synthesized for t
func (c *Context) Binder(t symbols.TypeName) (*models.Binder, bool) {
	if c.Resolver == nil {
		return nil, false
	}
	return c.Resolver.Binder(t)
}
