package annotations

import (
	"fmt"
)

// Built-in annotation schemas

// SingletonAnnotationSchema defines the schema for //strata::singleton
var SingletonAnnotationSchema = AnnotationSchema{
	Type:        SingletonAnnotation,
	Description: "Marks a struct as an application-wide singleton constructed at startup",
	Placement:   OnType | OnField,
	Parameters: map[string]ParameterSpec{
		"Name": NameParameterSpec("Accessor name used by the generated scopes"),
	},
	Examples: []string{
		"//strata::singleton",
		"//strata::singleton -Name=\"Database\"",
	},
}

// BeanAnnotationSchema defines the schema for //strata::bean
var BeanAnnotationSchema = AnnotationSchema{
	Type:        BeanAnnotation,
	Description: "Marks a struct as injectable with a generated binder",
	Placement:   OnType | OnField,
	Parameters: map[string]ParameterSpec{
		"Name": NameParameterSpec("Accessor name used by the generated scopes"),
	},
	Examples: []string{
		"//strata::bean",
		"//strata::bean -Name=\"SessionStore\"",
		"//strata::bean -Name=SessionBeanName",
	},
}

// InjectAnnotationSchema defines the schema for //strata::inject
var InjectAnnotationSchema = AnnotationSchema{
	Type:        InjectAnnotation,
	Description: "Marks a field as a dependency resolved after construction",
	Placement:   OnField,
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//strata::inject",
	},
}

// BindAnnotationSchema defines the schema for //strata::bind
var BindAnnotationSchema = AnnotationSchema{
	Type:        BindAnnotation,
	Description: "Marks a struct, or a field of it, as a bind target with its own scope",
	Placement:   OnType | OnField,
	Parameters: map[string]ParameterSpec{
		"Screen": {
			Type:        StringType,
			Required:    false,
			Description: "Screen root type whose scope is the parent of this bind target",
			Validator:   ValidateGoIdentifier,
		},
	},
	Examples: []string{
		"//strata::bind",
		"//strata::bind -Screen=MainScreen",
	},
}

// ParamAnnotationSchema defines the schema for //strata::param
var ParamAnnotationSchema = AnnotationSchema{
	Type:        ParamAnnotation,
	Description: "Marks a field, or named constructor parameters, as factory parameters supplied by the caller",
	Placement:   OnField | OnFunc,
	Positional:  true,
	Parameters:  map[string]ParameterSpec{},
	Validators:  []CustomValidator{ValidateParamNames},
	Examples: []string{
		"//strata::param",
		"//strata::param id title",
	},
}

// PostConstructAnnotationSchema defines the schema for //strata::postconstruct
var PostConstructAnnotationSchema = AnnotationSchema{
	Type:        PostConstructAnnotation,
	Description: "Runs the method after the instance is materialized",
	Placement:   OnMethod | OnFunc,
	Parameters: map[string]ParameterSpec{
		"Priority": PriorityParameterSpec(),
		"Executor": ExecutorParameterSpec(),
	},
	Examples: []string{
		"//strata::postconstruct",
		"//strata::postconstruct -Priority=5 -Executor=background",
	},
}

// PreDestroyAnnotationSchema defines the schema for //strata::predestroy
var PreDestroyAnnotationSchema = AnnotationSchema{
	Type:        PreDestroyAnnotation,
	Description: "Runs the method when the owning scope closes",
	Placement:   OnMethod | OnFunc,
	Parameters: map[string]ParameterSpec{
		"Priority": PriorityParameterSpec(),
		"Executor": ExecutorParameterSpec(),
	},
	Examples: []string{
		"//strata::predestroy",
		"//strata::predestroy -Priority=-1",
	},
}

// ProvidesAnnotationSchema defines the schema for //strata::provides
var ProvidesAnnotationSchema = AnnotationSchema{
	Type:        ProvidesAnnotation,
	Description: "Exposes the result of a root method as a scope element",
	Placement:   OnMethod,
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//strata::provides",
	},
}

// AsyncAnnotationSchema defines the schema for //strata::async
var AsyncAnnotationSchema = AnnotationSchema{
	Type:        AsyncAnnotation,
	Description: "Sets the interruption and cancellation policy of the generated async wrapper",
	Placement:   OnMethod,
	Parameters: map[string]ParameterSpec{
		"Interrupt": {
			Type:         BoolType,
			Required:     false,
			DefaultValue: true,
			Description:  "Whether a running call may be interrupted through its context",
		},
		"CancelPending": {
			Type:         BoolType,
			Required:     false,
			DefaultValue: false,
			Description:  "Whether a new call drops calls still queued",
		},
	},
	Examples: []string{
		"//strata::async -CancelPending",
		"//strata::async -Interrupt=false",
	},
}

// NoAsyncAnnotationSchema defines the schema for //strata::noasync
var NoAsyncAnnotationSchema = AnnotationSchema{
	Type:        NoAsyncAnnotation,
	Description: "Excludes the method from the generated async wrapper",
	Placement:   OnMethod,
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//strata::noasync",
	},
}

// RegisterBuiltinSchemas registers all built-in annotation schemas with the given registry
func RegisterBuiltinSchemas(registry AnnotationRegistry) error {
	for _, schema := range GetBuiltinSchemas() {
		if err := registry.Register(schema.Type, schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Type.String(), err)
		}
	}
	return nil
}

// GetBuiltinSchemas returns all built-in annotation schemas
func GetBuiltinSchemas() []AnnotationSchema {
	return []AnnotationSchema{
		SingletonAnnotationSchema,
		BeanAnnotationSchema,
		InjectAnnotationSchema,
		BindAnnotationSchema,
		ParamAnnotationSchema,
		PostConstructAnnotationSchema,
		PreDestroyAnnotationSchema,
		ProvidesAnnotationSchema,
		AsyncAnnotationSchema,
		NoAsyncAnnotationSchema,
	}
}

// ValidateParamNames rejects duplicate positional names on //strata::param
func ValidateParamNames(annotation *ParsedAnnotation) error {
	seen := make(map[string]bool, len(annotation.Positional))
	for _, name := range annotation.Positional {
		if err := ValidateGoIdentifier(name); err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("parameter '%s' listed twice", name)
		}
		seen[name] = true
	}
	return nil
}
