package symbols

import (
	"context"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/utils"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps

// Loader fills a Model from Go packages
type Loader struct {
	dir      string
	parser   *annotations.ParticipleParser
	sink     Sink
	external []TypeName
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithSink routes soft failures to s
func WithSink(s Sink) LoaderOption {
	return func(l *Loader) { l.sink = s }
}

// WithExternalTypes makes types declared outside the loaded patterns, such as
// root interfaces from dependencies, available to Lookup and IsAssignable
func WithExternalTypes(names ...TypeName) LoaderOption {
	return func(l *Loader) { l.external = append(l.external, names...) }
}

// NewLoader creates a loader resolving patterns relative to dir
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:    dir,
		parser: annotations.NewParticipleParser(annotations.DefaultRegistry()),
		sink:   discard{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load type-checks patterns and builds the model. Files previously written by
// strata are replaced by empty stubs so stale output never breaks loading, and
// references to identifiers that only generated files declare are tolerated.
// Syntax, list and other type errors fail the load.
func (l *Loader) Load(ctx context.Context, patterns ...string) (*Model, error) {
	overlay, err := l.generatedOverlay()
	if err != nil {
		return nil, err
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     l.dir,
		Overlay: overlay,
		Tests:   false,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.WrapLoadError(strings.Join(patterns, " "), err)
	}

	var loadErrs []string
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			if pendingGenerated(e) {
				l.sink.Debug("ignoring %s", e)
				continue
			}
			loadErrs = append(loadErrs, e.Error())
		}
	})
	if len(loadErrs) > 0 {
		return nil, errors.WrapLoadError(strings.Join(patterns, " "),
			fmt.Errorf("%s", strings.Join(loadErrs, "\n")))
	}

	model := NewModel()
	model.SetSink(l.sink)
	markerErrs := &annotations.MultipleAnnotationErrors{}
	order := 0
	for _, pkg := range pkgs {
		sc := &pkgScanner{loader: l, model: model, pkg: pkg, errs: markerErrs, order: &order}
		sc.scan()
	}
	l.registerExternal(model, pkgs)

	if err := markerErrs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return model, nil
}

// pendingGenerated reports a type error naming an identifier that does not
// exist yet. Hand-written code calling generated constructors and accessors
// loads with these errors until the pass has written its units.
func pendingGenerated(e packages.Error) bool {
	return e.Kind == packages.TypeError && strings.HasPrefix(e.Msg, "undefined: ")
}

func (l *Loader) generatedOverlay() (map[string][]byte, error) {
	fp := utils.NewFileProcessor()
	files, err := fp.WalkFiles(l.dir, utils.FileWalkOptions{
		FileFilter:      utils.GeneratedFileFilter(),
		DirectoryFilter: utils.DefaultDirectoryFilter(),
		SkipErrors:      true,
	})
	if err != nil {
		return nil, errors.WrapFileSystemError("scan", l.dir, err)
	}

	overlay := make(map[string][]byte)
	reader := fp.GetFileReader()
	for _, path := range files {
		generated, err := reader.IsGenerated(path)
		if err != nil || !generated {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFileSystemError("read", path, err)
		}
		file, err := parser.ParseFile(token.NewFileSet(), path, src, parser.PackageClauseOnly)
		if err != nil {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.WrapFileSystemError("resolve", path, err)
		}
		overlay[abs] = []byte(utils.GeneratedHeader + "\n\npackage " + file.Name.Name + "\n")
	}
	return overlay, nil
}

func (l *Loader) registerExternal(model *Model, roots []*packages.Package) {
	if len(l.external) == 0 {
		return
	}
	byPath := make(map[string]*packages.Package)
	packages.Visit(roots, nil, func(p *packages.Package) {
		byPath[p.PkgPath] = p
	})

	for _, name := range l.external {
		if _, ok := model.types[name]; ok {
			continue
		}
		p, ok := byPath[name.Pkg]
		if !ok || p.Types == nil {
			l.sink.Warn("type %s is not imported by the loaded packages", name)
			continue
		}
		obj, ok := p.Types.Scope().Lookup(name.Name).(*types.TypeName)
		if !ok {
			l.sink.Warn("package %s declares no type %s", name.Pkg, name.Name)
			continue
		}
		info := &TypeInfo{Name: name, Kind: kindOf(obj.Type()), Implicit: true}
		model.addType(info)
		model.addPackage(p.PkgPath, p.Name, packageDir(p))
		model.objects[name] = obj.Type()
	}
}

type pkgScanner struct {
	loader *Loader
	model  *Model
	pkg    *packages.Package
	errs   *annotations.MultipleAnnotationErrors
	order  *int
}

func (s *pkgScanner) scan() {
	s.model.addPackage(s.pkg.PkgPath, s.pkg.Name, packageDir(s.pkg))
	for _, file := range s.pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				s.genDecl(d)
			case *ast.FuncDecl:
				s.funcDecl(d)
			}
		}
	}
}

func (s *pkgScanner) markers(group *ast.CommentGroup, on annotations.Placement) []*annotations.ParsedAnnotation {
	parsed, err := s.loader.parser.ParseCommentGroup(s.pkg.Fset, group, on)
	if err != nil {
		if multi, ok := err.(*annotations.MultipleAnnotationErrors); ok {
			s.errs.Errors = append(s.errs.Errors, multi.Errors...)
		} else if ae, ok := err.(annotations.AnnotationError); ok {
			s.errs.Errors = append(s.errs.Errors, ae)
		}
	}
	return parsed
}

func (s *pkgScanner) loc(pos token.Pos) annotations.SourceLocation {
	p := s.pkg.Fset.Position(pos)
	return annotations.SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}

func (s *pkgScanner) genDecl(d *ast.GenDecl) {
	switch d.Tok {
	case token.TYPE:
		for _, spec := range d.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			s.typeSpec(ts, doc)
		}
	case token.CONST:
		for _, spec := range d.Specs {
			for _, name := range spec.(*ast.ValueSpec).Names {
				obj, ok := s.pkg.TypesInfo.Defs[name].(*types.Const)
				if !ok {
					continue
				}
				if v, ok := constValue(obj.Val()); ok {
					s.model.addConst(s.pkg.PkgPath, name.Name, v)
				}
			}
		}
	}
}

func (s *pkgScanner) typeSpec(ts *ast.TypeSpec, doc *ast.CommentGroup) {
	obj, ok := s.pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok || ts.Assign.IsValid() {
		return
	}
	name := NewTypeName(s.pkg.PkgPath, ts.Name.Name)
	info := &TypeInfo{
		Name:    name,
		Kind:    kindOf(obj.Type()),
		Generic: ts.TypeParams != nil && len(ts.TypeParams.List) > 0,
	}
	info.loc = s.loc(ts.Pos())
	info.markers = s.markers(doc, annotations.OnType)
	s.model.addType(info)
	s.model.objects[name] = obj.Type()

	switch t := ts.Type.(type) {
	case *ast.StructType:
		s.structFields(info, t)
	case *ast.InterfaceType:
		s.interfaceMethods(info, t)
	}
}

func (s *pkgScanner) structFields(info *TypeInfo, st *ast.StructType) {
	for _, field := range st.Fields.List {
		markers := s.markers(field.Doc, annotations.OnField)
		typ := s.pkg.TypesInfo.TypeOf(field.Type)
		if typ == nil {
			continue
		}
		ref := FromTypes(typ)

		if len(field.Names) == 0 {
			info.Embeds = append(info.Embeds, ref)
			name := embeddedName(field.Type)
			f := &Field{Name: name, Type: ref, Owner: info.Name, Embedded: true, Exported: token.IsExported(name)}
			f.loc = s.loc(field.Pos())
			f.markers = markers
			s.model.fields[info.Name] = append(s.model.fields[info.Name], f)
			continue
		}
		for _, ident := range field.Names {
			f := &Field{Name: ident.Name, Type: ref, Owner: info.Name, Exported: ident.IsExported()}
			f.loc = s.loc(ident.Pos())
			f.markers = markers
			s.model.fields[info.Name] = append(s.model.fields[info.Name], f)
		}
	}
}

func (s *pkgScanner) interfaceMethods(info *TypeInfo, it *ast.InterfaceType) {
	for _, m := range it.Methods.List {
		if len(m.Names) == 0 {
			if typ := s.pkg.TypesInfo.TypeOf(m.Type); typ != nil {
				info.Embeds = append(info.Embeds, FromTypes(typ))
			}
			continue
		}
		for _, ident := range m.Names {
			fnObj, ok := s.pkg.TypesInfo.Defs[ident].(*types.Func)
			if !ok {
				continue
			}
			fn := s.newFunc(ident.Name, info.Name, fnObj.Type().(*types.Signature))
			fn.Abstract = true
			fn.Receiver = ValueReceiver
			fn.loc = s.loc(ident.Pos())
			fn.markers = s.markers(m.Doc, annotations.OnMethod)
			s.model.methods[info.Name] = append(s.model.methods[info.Name], fn)
		}
	}
}

func (s *pkgScanner) funcDecl(d *ast.FuncDecl) {
	fnObj, ok := s.pkg.TypesInfo.Defs[d.Name].(*types.Func)
	if !ok {
		return
	}
	sig := fnObj.Type().(*types.Signature)

	if recv := sig.Recv(); recv != nil {
		owner, pointer, ok := receiverType(recv.Type())
		if !ok || owner.Obj().Pkg() != s.pkg.Types {
			return
		}
		name := NewTypeName(s.pkg.PkgPath, owner.Obj().Name())
		fn := s.newFunc(d.Name.Name, name, sig)
		fn.Receiver = ValueReceiver
		if pointer {
			fn.Receiver = PointerReceiver
		}
		fn.loc = s.loc(d.Pos())
		fn.markers = s.markers(d.Doc, annotations.OnMethod)
		s.model.methods[name] = append(s.model.methods[name], fn)
		return
	}

	product, ok := s.constructed(d.Name.Name, sig)
	if !ok {
		if markers := s.markers(d.Doc, annotations.OnFunc); len(markers) > 0 {
			s.loader.sink.Warn("%s: markers on %s are ignored: only New constructors and methods are inspected",
				s.loc(d.Pos()).File, d.Name.Name)
		}
		return
	}
	fn := s.newFunc(d.Name.Name, product, sig)
	fn.loc = s.loc(d.Pos())
	fn.markers = s.markers(d.Doc, annotations.OnFunc)
	fn.Generic = fn.Generic || (d.Type.TypeParams != nil && len(d.Type.TypeParams.List) > 0)
	s.model.ctors[product] = append(s.model.ctors[product], fn)
}

// constructed reports the struct built by a New function returning T, *T,
// (T, error) or (*T, error) for a struct T of the same package
func (s *pkgScanner) constructed(name string, sig *types.Signature) (TypeName, bool) {
	if !strings.HasPrefix(name, "New") {
		return TypeName{}, false
	}
	res := sig.Results()
	switch res.Len() {
	case 1:
	case 2:
		if !FromTypes(res.At(1).Type()).IsError() {
			return TypeName{}, false
		}
	default:
		return TypeName{}, false
	}
	named, _, ok := receiverType(res.At(0).Type())
	if !ok || named.Obj().Pkg() != s.pkg.Types {
		return TypeName{}, false
	}
	if _, isStruct := named.Underlying().(*types.Struct); !isStruct {
		return TypeName{}, false
	}
	return NewTypeName(s.pkg.PkgPath, named.Obj().Name()), true
}

func (s *pkgScanner) newFunc(name string, owner TypeName, sig *types.Signature) *Func {
	*s.order++
	fn := &Func{
		Name:     name,
		Owner:    owner,
		Variadic: sig.Variadic(),
		Generic:  sig.TypeParams().Len() > 0,
		Exported: token.IsExported(name),
		Order:    *s.order,
	}
	for i := 0; i < sig.Params().Len(); i++ {
		p := sig.Params().At(i)
		fn.Params = append(fn.Params, Param{Name: p.Name(), Type: FromTypes(p.Type())})
	}
	for i := 0; i < sig.Results().Len(); i++ {
		fn.Results = append(fn.Results, FromTypes(sig.Results().At(i).Type()))
	}
	return fn
}

func receiverType(t types.Type) (*types.Named, bool, bool) {
	pointer := false
	if p, ok := t.(*types.Pointer); ok {
		pointer = true
		t = p.Elem()
	}
	named, ok := t.(*types.Named)
	return named, pointer, ok
}

func kindOf(t types.Type) Kind {
	switch t.Underlying().(type) {
	case *types.Struct:
		return KindStruct
	case *types.Interface:
		return KindInterface
	default:
		return KindOther
	}
}

func embeddedName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(e.X)
	case *ast.IndexListExpr:
		return embeddedName(e.X)
	case *ast.Ident:
		return e.Name
	}
	return ""
}

func constValue(v constant.Value) (interface{}, bool) {
	switch v.Kind() {
	case constant.String:
		return constant.StringVal(v), true
	case constant.Bool:
		return constant.BoolVal(v), true
	case constant.Int:
		if i, ok := constant.Int64Val(v); ok {
			return int(i), true
		}
	}
	return nil, false
}

func packageDir(p *packages.Package) string {
	if len(p.GoFiles) > 0 {
		return filepath.Dir(p.GoFiles[0])
	}
	if len(p.CompiledGoFiles) > 0 {
		return filepath.Dir(p.CompiledGoFiles[0])
	}
	return ""
}
