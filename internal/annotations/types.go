package annotations

import (
	"fmt"
	"strconv"
)

// AnnotationType represents the kind of a //strata:: marker
type AnnotationType int

const (
	SingletonAnnotation AnnotationType = iota
	BeanAnnotation
	InjectAnnotation
	BindAnnotation
	ParamAnnotation
	PostConstructAnnotation
	PreDestroyAnnotation
	ProvidesAnnotation
	AsyncAnnotation
	NoAsyncAnnotation
)

var annotationNames = map[AnnotationType]string{
	SingletonAnnotation:     "singleton",
	BeanAnnotation:          "bean",
	InjectAnnotation:        "inject",
	BindAnnotation:          "bind",
	ParamAnnotation:         "param",
	PostConstructAnnotation: "postconstruct",
	PreDestroyAnnotation:    "predestroy",
	ProvidesAnnotation:      "provides",
	AsyncAnnotation:         "async",
	NoAsyncAnnotation:       "noasync",
}

// String returns the marker name as written after the namespace
func (a AnnotationType) String() string {
	if name, ok := annotationNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAnnotationType converts a marker name to its AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	for t, name := range annotationNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown annotation type: %s", s)
}

// AllAnnotationTypes lists every marker kind in declaration order
func AllAnnotationTypes() []AnnotationType {
	types := make([]AnnotationType, 0, len(annotationNames))
	for t := SingletonAnnotation; t <= NoAsyncAnnotation; t++ {
		types = append(types, t)
	}
	return types
}

// SourceLocation represents the location of an annotation in source code
type SourceLocation struct {
	File   string // File path
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

// ParsedAnnotation represents a fully parsed marker with type-safe parameters
type ParsedAnnotation struct {
	Type       AnnotationType         // Annotation type enum
	Positional []string               // Positional arguments in order
	Parameters map[string]interface{} // Literal parameters converted per schema
	Symbols    map[string]string      // Parameters given as identifiers naming constants
	Location   SourceLocation         // Source location
	Raw        string                 // Original annotation text
}

// GetString returns a string parameter value with optional default
func (p *ParsedAnnotation) GetString(paramName string, defaultValue ...string) string {
	if value, exists := p.Parameters[paramName]; exists {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// HasParameter checks if a parameter was given, literally or symbolically
func (p *ParsedAnnotation) HasParameter(paramName string) bool {
	if _, exists := p.Parameters[paramName]; exists {
		return true
	}
	_, exists := p.Symbols[paramName]
	return exists
}

// Symbol returns the constant name a parameter refers to
func (p *ParsedAnnotation) Symbol(paramName string) (string, bool) {
	name, ok := p.Symbols[paramName]
	return name, ok
}

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	IntType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	default:
		return "unknown"
	}
}

// ParameterSpec defines the specification for an annotation parameter
type ParameterSpec struct {
	Type         ParameterType           // Parameter type
	Required     bool                    // Whether parameter is required
	DefaultValue interface{}             // Value applied when the parameter is absent
	Description  string                  // Parameter description
	AllowSymbol  bool                    // Whether an identifier naming a constant is accepted
	Validator    func(interface{}) error // Custom validator function
}

// CustomValidator represents a custom validation function for annotations
type CustomValidator func(*ParsedAnnotation) error

// Placement is a bit set of the declarations a marker may annotate
type Placement int

const (
	OnType Placement = 1 << iota
	OnField
	OnFunc
	OnMethod
)

// AnnotationSchema defines the schema for an annotation type
type AnnotationSchema struct {
	Type        AnnotationType           // Annotation type enum
	Description string                   // Human-readable description
	Placement   Placement                // Where the marker may appear
	Positional  bool                     // Whether positional arguments are accepted
	Parameters  map[string]ParameterSpec // Parameter specifications
	Validators  []CustomValidator        // Custom validation functions
	Examples    []string                 // Usage examples
}

// ConvertLiteral converts the raw text of a literal to the parameter type
func ConvertLiteral(raw string, kind ParameterType) (interface{}, error) {
	switch kind {
	case StringType:
		return raw, nil
	case IntType:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return v, nil
	case BoolType:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", raw)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown parameter type %d", kind)
	}
}
