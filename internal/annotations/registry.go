package annotations

import (
	"fmt"
	"sort"
	"sync"
)

// AnnotationRegistry holds the schema of every marker the parser accepts
type AnnotationRegistry interface {
	Register(annotationType AnnotationType, schema AnnotationSchema) error
	GetSchema(annotationType AnnotationType) (AnnotationSchema, error)
	// ListTypes returns the registered markers in declaration order
	ListTypes() []AnnotationType
	IsRegistered(annotationType AnnotationType) bool
}

type schemaRegistry struct {
	mu      sync.RWMutex
	schemas map[AnnotationType]AnnotationSchema
}

// NewRegistry creates an empty registry
func NewRegistry() AnnotationRegistry {
	return &schemaRegistry{schemas: make(map[AnnotationType]AnnotationSchema)}
}

var (
	defaultRegistry     AnnotationRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry of the builtin markers
func DefaultRegistry() AnnotationRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewBuiltinRegistry()
	})
	return defaultRegistry
}

// NewBuiltinRegistry returns a registry holding every strata marker schema
func NewBuiltinRegistry() AnnotationRegistry {
	r := NewRegistry()
	if err := RegisterBuiltinSchemas(r); err != nil {
		panic(err)
	}
	return r
}

func (r *schemaRegistry) Register(annotationType AnnotationType, schema AnnotationSchema) error {
	if schema.Type != annotationType {
		return fmt.Errorf("schema type %s does not match annotation type %s", schema.Type, annotationType)
	}
	if err := checkSchema(schema); err != nil {
		return fmt.Errorf("invalid schema for %s: %w", annotationType, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[annotationType]; exists {
		return fmt.Errorf("annotation type %s is already registered", annotationType)
	}
	r.schemas[annotationType] = schema
	return nil
}

func (r *schemaRegistry) GetSchema(annotationType AnnotationType) (AnnotationSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, exists := r.schemas[annotationType]
	if !exists {
		return AnnotationSchema{}, fmt.Errorf("annotation type %s is not registered", annotationType)
	}
	return schema, nil
}

func (r *schemaRegistry) ListTypes() []AnnotationType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]AnnotationType, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (r *schemaRegistry) IsRegistered(annotationType AnnotationType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.schemas[annotationType]
	return exists
}

// checkSchema rejects schemas the parser could not apply consistently
func checkSchema(schema AnnotationSchema) error {
	if schema.Placement == 0 {
		return fmt.Errorf("schema %s declares no placement", schema.Type)
	}
	if schema.Positional && len(schema.Parameters) > 0 {
		return fmt.Errorf("positional schema %s cannot declare named parameters", schema.Type)
	}
	for name, spec := range schema.Parameters {
		if name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if spec.Type < StringType || spec.Type > IntType {
			return fmt.Errorf("invalid parameter type for %s: %d", name, spec.Type)
		}
		if spec.DefaultValue != nil && !defaultMatches(spec.Type, spec.DefaultValue) {
			return fmt.Errorf("default value for %s parameter %s must be %s, got %T", spec.Type, name, spec.Type, spec.DefaultValue)
		}
	}
	return nil
}

func defaultMatches(t ParameterType, value interface{}) bool {
	switch t {
	case StringType:
		_, ok := value.(string)
		return ok
	case BoolType:
		_, ok := value.(bool)
		return ok
	case IntType:
		_, ok := value.(int)
		return ok
	}
	return false
}
