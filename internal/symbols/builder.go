package symbols

import (
	"fmt"
	"go/token"

	"github.com/toyz/strata/internal/annotations"
)

// RuntimePackage is the import path of the runtime library generated code calls
const RuntimePackage = "github.com/toyz/strata/pkg/strata"

// Builder assembles a Model by hand. Generator tests use it in place of
// loading real packages.
type Builder struct {
	model *Model
	order int
	line  int
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{model: NewModel()}
}

// Package records the name and directory of an import path
func (b *Builder) Package(path, name, dir string) *Builder {
	b.model.packages[path] = pkgInfo{name: name, dir: dir}
	return b
}

// Struct declares a struct type
func (b *Builder) Struct(pkg, name string) *TypeBuilder {
	return b.declare(pkg, name, KindStruct)
}

// Interface declares an interface type
func (b *Builder) Interface(pkg, name string) *TypeBuilder {
	return b.declare(pkg, name, KindInterface)
}

// Implements records that t satisfies the interface iface
func (b *Builder) Implements(t, iface TypeName) *Builder {
	b.model.implements[t] = append(b.model.implements[t], iface)
	return b
}

// Const declares a package-level constant
func (b *Builder) Const(pkg, name string, value interface{}) *Builder {
	b.model.addConst(pkg, name, value)
	return b
}

// WithRuntime declares the runtime root interfaces and context.Context
func (b *Builder) WithRuntime() *Builder {
	b.Package(RuntimePackage, "strata", "")
	appRoot := b.Interface(RuntimePackage, "ApplicationRoot").implicit()
	screenRoot := b.Interface(RuntimePackage, "ScreenRoot").implicit()
	app := b.Struct(RuntimePackage, "Application").implicit()
	screen := b.Struct(RuntimePackage, "Screen").implicit()
	b.Implements(app.Name(), appRoot.Name())
	b.Implements(screen.Name(), screenRoot.Name())
	b.Interface("context", "Context").implicit()
	return b
}

// Model returns the assembled model
func (b *Builder) Model() *Model {
	return b.model
}

func (b *Builder) declare(pkg, name string, kind Kind) *TypeBuilder {
	tn := NewTypeName(pkg, name)
	if _, exists := b.model.types[tn]; exists {
		panic(fmt.Sprintf("symbols: type %s declared twice", tn))
	}
	b.model.addPackage(pkg, defaultPackageName(pkg), "")
	info := &TypeInfo{Name: tn, Kind: kind}
	info.loc = b.nextLoc(pkg)
	b.model.addType(info)
	return &TypeBuilder{b: b, info: info}
}

func (b *Builder) nextLoc(pkg string) annotations.SourceLocation {
	b.line++
	return annotations.SourceLocation{File: pkg + "/model.go", Line: b.line, Column: 1}
}

func (b *Builder) parse(pkg string, markers []string) []*annotations.ParsedAnnotation {
	out := make([]*annotations.ParsedAnnotation, 0, len(markers))
	for _, m := range markers {
		parsed, err := annotations.Parse(m, b.nextLoc(pkg))
		if err != nil {
			panic(fmt.Sprintf("symbols: marker %q: %v", m, err))
		}
		out = append(out, parsed)
	}
	return out
}

// TypeBuilder adds members to one declared type
type TypeBuilder struct {
	b    *Builder
	info *TypeInfo
}

// Name returns the declared type name
func (t *TypeBuilder) Name() TypeName {
	return t.info.Name
}

// Info returns the type being built
func (t *TypeBuilder) Info() *TypeInfo {
	return t.info
}

// Mark attaches marker comments to the type
func (t *TypeBuilder) Mark(markers ...string) *TypeBuilder {
	t.info.markers = append(t.info.markers, t.b.parse(t.info.Name.Pkg, markers)...)
	return t
}

// Generic flags the type as having type parameters
func (t *TypeBuilder) Generic() *TypeBuilder {
	t.info.Generic = true
	return t
}

// Embed adds an embedded field; for interfaces it embeds another interface
func (t *TypeBuilder) Embed(ref TypeRef) *TypeBuilder {
	t.info.Embeds = append(t.info.Embeds, ref)
	if t.info.IsStruct() {
		t.b.model.fields[t.info.Name] = append(t.b.model.fields[t.info.Name], &Field{
			marked:   marked{loc: t.b.nextLoc(t.info.Name.Pkg)},
			Name:     ref.Named.Name,
			Type:     ref,
			Owner:    t.info.Name,
			Embedded: true,
			Exported: token.IsExported(ref.Named.Name),
		})
	}
	return t
}

// Field declares a named field
func (t *TypeBuilder) Field(name string, typ TypeRef) *FieldBuilder {
	f := &Field{
		marked:   marked{loc: t.b.nextLoc(t.info.Name.Pkg)},
		Name:     name,
		Type:     typ,
		Owner:    t.info.Name,
		Exported: token.IsExported(name),
	}
	t.b.model.fields[t.info.Name] = append(t.b.model.fields[t.info.Name], f)
	return &FieldBuilder{b: t.b, field: f}
}

// Method declares a method with a pointer receiver, or an interface method
func (t *TypeBuilder) Method(name string) *FuncBuilder {
	fn := t.newFunc(name)
	fn.Receiver = PointerReceiver
	fn.Abstract = t.info.IsAbstract()
	t.b.model.methods[t.info.Name] = append(t.b.model.methods[t.info.Name], fn)
	return &FuncBuilder{b: t.b, fn: fn}
}

// Constructor declares a New function returning *T
func (t *TypeBuilder) Constructor(name string) *FuncBuilder {
	fn := t.newFunc(name)
	fn.Results = []TypeRef{Ptr(t.info.Name)}
	t.b.model.ctors[t.info.Name] = append(t.b.model.ctors[t.info.Name], fn)
	return &FuncBuilder{b: t.b, fn: fn}
}

func (t *TypeBuilder) newFunc(name string) *Func {
	t.b.order++
	return &Func{
		marked:   marked{loc: t.b.nextLoc(t.info.Name.Pkg)},
		Name:     name,
		Owner:    t.info.Name,
		Exported: token.IsExported(name),
		Order:    t.b.order,
	}
}

func (t *TypeBuilder) implicit() *TypeBuilder {
	t.info.Implicit = true
	return t
}

// FieldBuilder edits one declared field
type FieldBuilder struct {
	b     *Builder
	field *Field
}

// Mark attaches marker comments to the field
func (f *FieldBuilder) Mark(markers ...string) *FieldBuilder {
	f.field.markers = append(f.field.markers, f.b.parse(f.field.Owner.Pkg, markers)...)
	return f
}

// Field returns the declared field
func (f *FieldBuilder) Field() *Field {
	return f.field
}

// FuncBuilder edits one declared constructor or method
type FuncBuilder struct {
	b  *Builder
	fn *Func
}

// Mark attaches marker comments to the function
func (f *FuncBuilder) Mark(markers ...string) *FuncBuilder {
	f.fn.markers = append(f.fn.markers, f.b.parse(f.fn.Owner.Pkg, markers)...)
	return f
}

// Param appends a parameter
func (f *FuncBuilder) Param(name string, typ TypeRef) *FuncBuilder {
	f.fn.Params = append(f.fn.Params, Param{Name: name, Type: typ})
	return f
}

// Results replaces the result list
func (f *FuncBuilder) Results(results ...TypeRef) *FuncBuilder {
	f.fn.Results = results
	return f
}

// Variadic marks the last parameter as variadic
func (f *FuncBuilder) Variadic() *FuncBuilder {
	f.fn.Variadic = true
	return f
}

// Generic flags the function as having type parameters
func (f *FuncBuilder) Generic() *FuncBuilder {
	f.fn.Generic = true
	return f
}

// ValueReceiver switches a method to a value receiver
func (f *FuncBuilder) ValueReceiver() *FuncBuilder {
	if f.fn.Receiver != NoReceiver {
		f.fn.Receiver = ValueReceiver
	}
	return f
}

// Func returns the declared function
func (f *FuncBuilder) Func() *Func {
	return f.fn
}
