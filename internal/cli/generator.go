package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/toyz/strata/internal/config"
	"github.com/toyz/strata/internal/discovery"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/generator"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
	"github.com/toyz/strata/internal/utils"
)

// Generator coordinates the CLI generation process: load, analyze, render
// and write
type Generator struct {
	opts           Options
	cfg            *config.Config
	scanner        *DirectoryScanner
	moduleResolver *ModuleResolver
	codeGenerator  generator.CodeGenerator
	diagnostics    *utils.DiagnosticSystem
	summary        GenerationSummary
}

// GenerationSummary contains information about the last generation pass
type GenerationSummary struct {
	PackagesProcessed int
	Roles             map[string]int
	Binders           int
	Scopes            int
	GeneratedFiles    []string
	RemovedFiles      []string
	Duration          time.Duration
}

// Stats renders the summary for DiagnosticSystem.Summary
func (s GenerationSummary) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"Packages processed": s.PackagesProcessed,
		"Binders":            s.Binders,
		"Scopes":             s.Scopes,
		"Files written":      len(s.GeneratedFiles),
		"Stale files pruned": len(s.RemovedFiles),
		"Duration":           s.Duration.Round(time.Millisecond),
	}
	for role, n := range s.Roles {
		stats["Role "+role] = n
	}
	return stats
}

// NewGenerator creates a new CLI generator
func NewGenerator(opts Options) *Generator {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = utils.NewQuietDiagnostics()
	}
	return &Generator{
		opts:           opts,
		cfg:            opts.Config,
		scanner:        NewDirectoryScanner(opts.Dir),
		moduleResolver: NewModuleResolver(opts.Dir),
		codeGenerator:  generator.NewGeneratorWithDiagnostics(opts.Diagnostics),
		diagnostics:    opts.Diagnostics,
	}
}

// Summary returns the summary of the last Run
func (g *Generator) Summary() GenerationSummary {
	return g.summary
}

// Patterns returns the load patterns of the generator
func (g *Generator) Patterns() []string {
	return g.opts.patterns()
}

// Analyze loads the project and builds the generation context of one pass
func (g *Generator) Analyze(ctx context.Context) (*generator.Context, error) {
	appRoots, err := parseRoots(g.cfg.ApplicationRoots())
	if err != nil {
		return nil, err
	}
	screenRoots, err := parseRoots(g.cfg.ScreenRoots())
	if err != nil {
		return nil, err
	}

	patterns := g.opts.patterns()
	g.diagnostics.Debug("Loading patterns %v from %s", patterns, g.opts.Dir)
	g.diagnostics.StartProgress("Loading packages")
	loader := symbols.NewLoader(g.opts.Dir,
		symbols.WithSink(g.diagnostics),
		symbols.WithExternalTypes(append(append([]symbols.TypeName(nil), appRoots...), screenRoots...)...),
	)
	model, err := loader.Load(ctx, patterns...)
	g.diagnostics.EndProgress()
	if err != nil {
		return nil, err
	}

	opts, err := g.outputOptions()
	if err != nil {
		return nil, err
	}
	opts.Discovery = []discovery.Option{
		discovery.WithApplicationRoots(appRoots...),
		discovery.WithScreenRoots(screenRoots...),
		discovery.Exhaustive(g.cfg.Discovery.Exhaustive),
	}
	return generator.NewContext(model, g.diagnostics, opts)
}

// outputOptions maps output.dir to the package scope units are written to
func (g *Generator) outputOptions() (generator.Options, error) {
	out := g.cfg.Output
	if out.Dir == "" {
		return generator.Options{}, nil
	}
	dir := out.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(g.opts.Dir, dir)
	}
	moduleName, err := g.moduleResolver.ResolveModuleName(g.opts.ModuleName)
	if err != nil {
		return generator.Options{}, errors.WrapConfigurationError(config.FileName, "resolve output.dir", err)
	}
	pkg, err := g.moduleResolver.BuildPackagePath(moduleName, dir)
	if err != nil {
		return generator.Options{}, errors.WrapConfigurationError(config.FileName, "resolve output.dir", err)
	}
	g.diagnostics.Debug("Output package %s in %s", pkg, dir)
	return generator.Options{OutPkg: pkg, OutDir: dir, OutName: out.Package}, nil
}

// Run executes one complete generation pass. Nothing is written unless the
// whole project analyzed and rendered without errors.
func (g *Generator) Run(ctx context.Context) error {
	start := time.Now()
	g.summary = GenerationSummary{Roles: make(map[string]int)}

	gctx, err := g.Analyze(ctx)
	if err != nil {
		return err
	}
	g.collectSummaryInfo(gctx)
	if gctx.Plan == nil {
		g.diagnostics.Warn("No application root found, nothing to generate")
		return nil
	}

	units, err := g.codeGenerator.Generate(gctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	g.diagnostics.StartProgress("Writing units")
	written := make(map[string]bool, len(units))
	for _, u := range units {
		g.diagnostics.PhaseWrite(u.Path)
		if err := utils.WriteGoFile(u.Path, u.Content); err != nil {
			g.diagnostics.EndProgress()
			return errors.WrapFileSystemError("write", u.Path, err)
		}
		abs, _ := filepath.Abs(u.Path)
		written[abs] = true
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, u.Path)
	}
	g.diagnostics.EndProgress()

	removed, err := g.prune(unitDirs(units, gctx.OutDir), written)
	g.summary.RemovedFiles = removed
	g.summary.Duration = time.Since(start)
	return err
}

// prune removes generated files of dirs that the pass did not rewrite, such
// as the binder of a type that lost its marker
func (g *Generator) prune(dirs []string, written map[string]bool) ([]string, error) {
	reader := utils.NewFileReader()
	filter := utils.GeneratedFileFilter()
	var removed []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if !filter(path, e) {
				continue
			}
			abs, _ := filepath.Abs(path)
			if written[abs] {
				continue
			}
			if generated, err := reader.IsGenerated(path); err != nil || !generated {
				continue
			}
			if err := os.Remove(path); err != nil {
				return removed, errors.WrapFileSystemError("remove", path, err)
			}
			g.diagnostics.Verbose("Removed stale %s", path)
			removed = append(removed, path)
		}
	}
	return removed, nil
}

func (g *Generator) collectSummaryInfo(gctx *generator.Context) {
	for role, types := range gctx.Discovery.ByRole() {
		g.summary.Roles[role.String()] = len(types)
	}
	pkgs := make(map[string]bool)
	for _, t := range gctx.Discovery.Types() {
		pkgs[t.Pkg] = true
	}
	g.summary.PackagesProcessed = len(pkgs)
	g.summary.Binders = len(gctx.Binders)
	if gctx.Plan != nil {
		g.summary.Scopes = len(gctx.Plan.All())
	}
}

// Inspect analyzes the project without writing anything and returns its
// resolved graph
func (g *Generator) Inspect(ctx context.Context) (*generator.Graph, error) {
	gctx, err := g.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return gctx.Graph(), nil
}

// WatchDirectories returns the project directory and every package directory
// covered by the load patterns
func (g *Generator) WatchDirectories() ([]string, error) {
	root, err := filepath.Abs(g.opts.Dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("resolve", g.opts.Dir, err)
	}
	dirs, err := g.scanner.ScanDirectories(g.opts.patterns())
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if d == root {
			return dirs, nil
		}
	}
	return append([]string{root}, dirs...), nil
}

// Clean removes every generated unit covered by the load patterns
func (g *Generator) Clean() ([]string, error) {
	return NewCleaner(g.opts.Dir).CleanGeneratedFiles(g.opts.patterns())
}

func unitDirs(units []*models.Unit, outDir string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir != "" && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	add(outDir)
	for _, u := range units {
		add(filepath.Dir(u.Path))
	}
	sort.Strings(dirs)
	return dirs
}

func parseRoots(names []string) ([]symbols.TypeName, error) {
	roots := make([]symbols.TypeName, 0, len(names))
	for _, name := range names {
		t, err := symbols.ParseTypeName(name)
		if err != nil {
			return nil, errors.WrapConfigurationError(config.FileName, "parse root "+name, err)
		}
		roots = append(roots, t)
	}
	return roots, nil
}
