package symbols

import (
	"go/types"
	"sort"
	"strings"

	"github.com/toyz/strata/internal/annotations"
)

// Sink receives soft failures such as unresolvable symbolic marker values
type Sink interface {
	Warn(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type discard struct{}

func (discard) Warn(string, ...interface{})  {}
func (discard) Debug(string, ...interface{}) {}

// Resolver is the query surface the generator works against
type Resolver interface {
	// Types lists every loaded type, sorted by name
	Types() []*TypeInfo
	// Lookup returns the type declared under name
	Lookup(name TypeName) (*TypeInfo, bool)
	// SupertypesOf returns the embedded types of name in declaration order
	SupertypesOf(name TypeName) []TypeName
	// MembersOf returns the fields, constructors and methods of name. With
	// inherit set, members promoted from embedded types are included.
	MembersOf(name TypeName, inherit bool) *Members
	// IsAssignable reports whether a value of type from can be assigned to to
	IsAssignable(from, to TypeRef) bool
	// AnnotationValue returns the value of attr on the first marker of the
	// given type. Symbolic values are looked up among the constants of the
	// declaring package; unresolvable ones are reported to the sink and read
	// as absent.
	AnnotationValue(m Member, marker annotations.AnnotationType, attr string) (interface{}, bool)
	// Ref returns the reference to a named type, carrying its go/types type
	// when the type was loaded
	Ref(name TypeName) TypeRef
	// PtrRef is Ref for *name
	PtrRef(name TypeName) TypeRef
	// PackageName returns the declared name of the package at path
	PackageName(path string) string
	// PackageDir returns the directory holding the package at path
	PackageDir(path string) string
}

type pkgInfo struct {
	name string
	dir  string
}

// Model is the in-memory Resolver filled by Loader or Builder
type Model struct {
	types      map[TypeName]*TypeInfo
	fields     map[TypeName][]*Field
	methods    map[TypeName][]*Func
	ctors      map[TypeName][]*Func
	implements map[TypeName][]TypeName
	consts     map[string]map[string]interface{}
	packages   map[string]pkgInfo
	objects    map[TypeName]types.Type
	sink       Sink
}

var _ Resolver = (*Model)(nil)

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{
		types:      make(map[TypeName]*TypeInfo),
		fields:     make(map[TypeName][]*Field),
		methods:    make(map[TypeName][]*Func),
		ctors:      make(map[TypeName][]*Func),
		implements: make(map[TypeName][]TypeName),
		consts:     make(map[string]map[string]interface{}),
		packages:   make(map[string]pkgInfo),
		objects:    make(map[TypeName]types.Type),
		sink:       discard{},
	}
}

// SetSink routes soft failures to s
func (m *Model) SetSink(s Sink) {
	if s == nil {
		s = discard{}
	}
	m.sink = s
}

func (m *Model) addType(t *TypeInfo) {
	m.types[t.Name] = t
}

func (m *Model) addPackage(path, name, dir string) {
	if _, ok := m.packages[path]; !ok {
		m.packages[path] = pkgInfo{name: name, dir: dir}
	}
}

func (m *Model) addConst(pkg, name string, value interface{}) {
	if m.consts[pkg] == nil {
		m.consts[pkg] = make(map[string]interface{})
	}
	m.consts[pkg][name] = value
}

// Types lists every type that is not implicit, sorted by name
func (m *Model) Types() []*TypeInfo {
	out := make([]*TypeInfo, 0, len(m.types))
	for _, t := range m.types {
		if !t.Implicit {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Less(out[j].Name) })
	return out
}

func (m *Model) Lookup(name TypeName) (*TypeInfo, bool) {
	t, ok := m.types[name]
	return t, ok
}

func (m *Model) SupertypesOf(name TypeName) []TypeName {
	t, ok := m.types[name]
	if !ok {
		return nil
	}
	out := make([]TypeName, 0, len(t.Embeds))
	for _, e := range t.Embeds {
		if e.IsNamed() {
			out = append(out, e.Named)
		}
	}
	return out
}

func (m *Model) MembersOf(name TypeName, inherit bool) *Members {
	members := &Members{
		Fields:       append([]*Field(nil), m.fields[name]...),
		Constructors: append([]*Func(nil), m.ctors[name]...),
		Methods:      append([]*Func(nil), m.methods[name]...),
	}
	sort.SliceStable(members.Constructors, func(i, j int) bool {
		return members.Constructors[i].Order < members.Constructors[j].Order
	})
	if !inherit {
		return members
	}

	declaredField := make(map[string]bool, len(members.Fields))
	for _, f := range members.Fields {
		declaredField[f.Name] = true
	}
	declaredMethod := make(map[string]bool, len(members.Methods))
	for _, f := range members.Methods {
		declaredMethod[f.Name] = true
	}

	promotedFields := make(map[string][]*Field)
	var fieldOrder []string
	promotedMethods := make(map[string][]*Func)
	var methodOrder []string

	for _, super := range m.SupertypesOf(name) {
		info, ok := m.types[super]
		if !ok {
			continue
		}
		if info.IsStruct() {
			for _, f := range m.fields[super] {
				if declaredField[f.Name] {
					continue
				}
				if _, seen := promotedFields[f.Name]; !seen {
					fieldOrder = append(fieldOrder, f.Name)
				}
				promoted := *f
				promoted.Depth = 1
				promotedFields[f.Name] = append(promotedFields[f.Name], &promoted)
			}
		}
		for _, fn := range m.methods[super] {
			if declaredMethod[fn.Name] || declaredField[fn.Name] {
				continue
			}
			if _, seen := promotedMethods[fn.Name]; !seen {
				methodOrder = append(methodOrder, fn.Name)
			}
			promoted := *fn
			promoted.Depth = 1
			promoted.Abstract = fn.Abstract || info.IsAbstract()
			promotedMethods[fn.Name] = append(promotedMethods[fn.Name], &promoted)
		}
	}

	for _, fname := range fieldOrder {
		candidates := promotedFields[fname]
		if len(candidates) == 1 {
			members.Fields = append(members.Fields, candidates[0])
			continue
		}
		owners := make([]TypeName, 0, len(candidates))
		for _, c := range candidates {
			owners = append(owners, c.Owner)
		}
		members.Ambiguous = append(members.Ambiguous, Ambiguity{Name: fname, Owners: owners})
	}
	for _, mname := range methodOrder {
		// a method promoted from two embedded types is not callable
		if candidates := promotedMethods[mname]; len(candidates) == 1 {
			members.Methods = append(members.Methods, candidates[0])
		}
	}
	return members
}

func (m *Model) IsAssignable(from, to TypeRef) bool {
	if from.IsZero() || to.IsZero() {
		return false
	}
	if from.typ != nil && to.typ != nil {
		return types.AssignableTo(from.typ, to.typ)
	}
	if from.Key() == to.Key() {
		return true
	}
	if !to.IsNamed() || to.Pointer || !from.IsNamed() {
		return false
	}
	target, ok := m.types[to.Named]
	if !ok || !target.IsAbstract() {
		return false
	}
	return m.implementsIface(from.Named, to.Named, make(map[TypeName]bool))
}

// implementsIface walks declared implementations and embedding, transitively
func (m *Model) implementsIface(t, iface TypeName, seen map[TypeName]bool) bool {
	if t == iface {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true
	for _, i := range m.implements[t] {
		if m.implementsIface(i, iface, seen) {
			return true
		}
	}
	for _, super := range m.SupertypesOf(t) {
		if m.implementsIface(super, iface, seen) {
			return true
		}
	}
	return false
}

func (m *Model) AnnotationValue(member Member, marker annotations.AnnotationType, attr string) (interface{}, bool) {
	a, ok := Marker(member, marker)
	if !ok {
		return nil, false
	}
	if v, ok := a.Parameters[attr]; ok {
		return v, true
	}
	sym, ok := a.Symbol(attr)
	if !ok {
		return nil, false
	}
	pkg := member.Declarer().Pkg
	if v, ok := m.consts[pkg][sym]; ok {
		return v, true
	}
	loc := a.Location
	m.sink.Warn("%s:%d: //strata::%s -%s=%s: no constant %s in %s, ignoring", loc.File, loc.Line, marker, attr, sym, sym, pkg)
	return nil, false
}

func (m *Model) Ref(name TypeName) TypeRef {
	ref := Named(name)
	ref.typ = m.objects[name]
	return ref
}

// PtrRef is Ref for *name
func (m *Model) PtrRef(name TypeName) TypeRef {
	ref := Ptr(name)
	if t, ok := m.objects[name]; ok {
		ref.typ = types.NewPointer(t)
	}
	return ref
}

func (m *Model) PackageName(path string) string {
	if p, ok := m.packages[path]; ok && p.name != "" {
		return p.name
	}
	return defaultPackageName(path)
}

func (m *Model) PackageDir(path string) string {
	return m.packages[path].dir
}

// defaultPackageName guesses the package name from the last path element,
// skipping a major version suffix
func defaultPackageName(path string) string {
	elems := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(elems) - 1; i >= 0; i-- {
		e := elems[i]
		if len(e) > 1 && e[0] == 'v' && isDigits(e[1:]) && i > 0 {
			continue
		}
		return sanitizeName(e)
	}
	return "pkg"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func sanitizeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			out = append(out, r)
		case r >= '0' && r <= '9' && len(out) > 0:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "pkg"
	}
	return string(out)
}
