package generator

import (
	"strings"

	"github.com/toyz/strata/internal/binder"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/resolve"
	"github.com/toyz/strata/internal/symbols"
	"github.com/toyz/strata/internal/templates"
	"github.com/toyz/strata/internal/utils"
)

// unitFile renders names and expressions for one generated file. Every type
// a unit mentions is qualified before the first local identifier is handed
// out, so identifiers never shadow a package qualifier.
type unitFile struct {
	pkg     string
	imports *templates.ImportManager
	idents  *templates.Idents
}

// newUnitFile creates a file of package pkg importing the runtime and std,
// in that order
func (c *Context) newUnitFile(pkg string, std ...string) *unitFile {
	im := templates.NewImportManager(pkg, c.Symbols.PackageName)
	im.AddImport(symbols.RuntimePackage)
	for _, path := range std {
		im.AddImport(path)
	}
	return &unitFile{pkg: pkg, imports: im}
}

func (f *unitFile) use(refs ...symbols.TypeRef) {
	for _, ref := range refs {
		for _, path := range ref.Packages() {
			f.imports.Qualify(path)
		}
	}
}

func (f *unitFile) useExpr(e *resolve.Expr) {
	if e == nil {
		return
	}
	f.use(e.Type)
	if e.Kind == resolve.Construct {
		f.imports.Qualify(e.Product.Pkg)
	}
	for _, sub := range e.Factory {
		f.useExpr(sub)
	}
	for _, sub := range e.Args {
		f.useExpr(sub)
	}
}

func (f *unitFile) ident(hint string) string {
	if f.idents == nil {
		f.idents = templates.NewIdents(f.imports)
	}
	return f.idents.Name(hint)
}

func (f *unitFile) typ(ref symbols.TypeRef) string {
	return ref.Render(f.imports.Qualify)
}

// qual names a package-level identifier of pkg
func (f *unitFile) qual(pkg, name string) string {
	if q := f.imports.Qualify(pkg); q != "" {
		return q + "." + name
	}
	return name
}

// expr renders e as seen from a method of the scope at, whose receiver is s
func (f *unitFile) expr(at *resolve.Context, e *resolve.Expr) string {
	var out string
	switch e.Kind {
	case resolve.AccessorCall:
		out = at.Reach(e.Scope, "s") + "." + e.Accessor.Name + "()"
	case resolve.Materialize:
		out = materialize(e.Binder, "s.lifecycle", f.exprs(at, e.Factory), f.exprs(at, e.Args))
	case resolve.Construct:
		if e.Ctor == nil {
			lit := f.qual(e.Product.Pkg, e.Product.Name) + "{}"
			if e.Deref {
				return lit
			}
			return "&" + lit
		}
		out = f.qual(e.Product.Pkg, e.Ctor.Name) + "(" + f.exprs(at, e.Args) + ")"
		if e.Ctor.ReturnsError() {
			out = "strata.Must(" + out + ")"
		}
	}
	if e.Deref {
		return "*" + out
	}
	return out
}

func (f *unitFile) exprs(at *resolve.Context, list []*resolve.Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = f.expr(at, e)
	}
	return strings.Join(parts, ", ")
}

// materialize renders a binder materialization. Binders with lifecycle
// methods are provided through lifecycle so their chains are tracked.
func materialize(b *models.Binder, lifecycle, factory, args string) string {
	call := "New" + binderName(b) + "(" + factory + ")"
	if b.HasLifecycle() {
		if args == "" {
			return call + ".Provide(" + lifecycle + ")"
		}
		return call + ".Provide(" + lifecycle + ", " + args + ")"
	}
	return call + ".Materialize(" + args + ")"
}

// finish wraps body in the file template and formats the result
func (f *unitFile) finish(r *templates.TemplateRegistry, path, pkgName, body string) ([]byte, error) {
	src, err := r.Execute("file", templates.FileData{
		Header:  utils.GeneratedHeader,
		Package: pkgName,
		Imports: f.imports.GenerateImports(),
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	return utils.FormatGoSource(path, []byte(src))
}

func binderName(b *models.Binder) string {
	return "Bind" + b.Product.Name
}

func lowerFirst(s string) string {
	return binder.LowerFirst(s)
}
