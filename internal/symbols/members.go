package symbols

import (
	"github.com/toyz/strata/internal/annotations"
)

// Kind classifies a named type
type Kind int

const (
	KindStruct Kind = iota
	KindInterface
	KindOther
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	default:
		return "other"
	}
}

// Member is anything that can carry markers: a type, field, function or method
type Member interface {
	// MemberName is the identifier of the member
	MemberName() string
	// Declarer is the type that declares the member
	Declarer() TypeName
	// Markers are the parsed //strata:: annotations, in source order
	Markers() []*annotations.ParsedAnnotation
	// Location is where the member is declared
	Location() annotations.SourceLocation
}

type marked struct {
	markers []*annotations.ParsedAnnotation
	loc     annotations.SourceLocation
}

func (m *marked) Markers() []*annotations.ParsedAnnotation {
	return m.markers
}

func (m *marked) Location() annotations.SourceLocation {
	return m.loc
}

// Marker returns the first marker of the given type
func Marker(m Member, t annotations.AnnotationType) (*annotations.ParsedAnnotation, bool) {
	for _, a := range m.Markers() {
		if a.Type == t {
			return a, true
		}
	}
	return nil, false
}

// HasMarker reports whether m carries a marker of any of the given types
func HasMarker(m Member, types ...annotations.AnnotationType) bool {
	for _, t := range types {
		if _, ok := Marker(m, t); ok {
			return true
		}
	}
	return false
}

// TypeInfo describes a package-level named type
type TypeInfo struct {
	marked
	Name     TypeName
	Kind     Kind
	Generic  bool
	Embeds   []TypeRef // embedded fields in declaration order
	Implicit bool      // known only as a dependency, members not loaded
}

func (t *TypeInfo) MemberName() string {
	return t.Name.Name
}

func (t *TypeInfo) Declarer() TypeName {
	return t.Name
}

func (t *TypeInfo) Exported() bool {
	return t.Name.Exported()
}

func (t *TypeInfo) IsAbstract() bool {
	return t.Kind == KindInterface
}

func (t *TypeInfo) IsStruct() bool {
	return t.Kind == KindStruct
}

func (t *TypeInfo) String() string {
	return t.Name.String()
}

// Field is a struct field, declared or promoted through an embedded field
type Field struct {
	marked
	Name     string
	Type     TypeRef
	Owner    TypeName // declaring struct
	Embedded bool
	Exported bool
	Depth    int // 0 when declared on the queried type, 1 when promoted
}

func (f *Field) MemberName() string {
	return f.Name
}

func (f *Field) Declarer() TypeName {
	return f.Owner
}

// Param is a function parameter
type Param struct {
	Name string
	Type TypeRef
}

// Receiver describes how a method is bound
type Receiver int

const (
	NoReceiver Receiver = iota
	ValueReceiver
	PointerReceiver
)

// Func is a constructor, a method or a method of an embedded interface
type Func struct {
	marked
	Name     string
	Owner    TypeName
	Receiver Receiver
	Params   []Param
	Results  []TypeRef
	Variadic bool
	Generic  bool
	Exported bool
	Abstract bool // declared by an interface
	Depth    int  // 0 when declared on the queried type, 1 when promoted
	Order    int  // declaration order within the package
}

func (f *Func) MemberName() string {
	return f.Name
}

func (f *Func) Declarer() TypeName {
	return f.Owner
}

// IsStatic reports a receiverless function
func (f *Func) IsStatic() bool {
	return f.Receiver == NoReceiver && !f.Abstract
}

// ReturnsError reports whether the last result is error
func (f *Func) ReturnsError() bool {
	return len(f.Results) > 0 && f.Results[len(f.Results)-1].IsError()
}

// Ambiguity is a field name promoted from more than one embedded type at the
// same depth and not shadowed by a declared field
type Ambiguity struct {
	Name   string
	Owners []TypeName
}

// Members is the result of MembersOf
type Members struct {
	Fields       []*Field
	Constructors []*Func
	Methods      []*Func
	Ambiguous    []Ambiguity
}

// Field returns the field with the given name
func (m *Members) Field(name string) (*Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Method returns the method with the given name
func (m *Members) Method(name string) (*Func, bool) {
	for _, f := range m.Methods {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// IsAmbiguous reports whether name is an ambiguous promoted field
func (m *Members) IsAmbiguous(name string) (Ambiguity, bool) {
	for _, a := range m.Ambiguous {
		if a.Name == name {
			return a, true
		}
	}
	return Ambiguity{}, false
}
