package annotations

import (
	"fmt"
	"sort"
)

// SchemaValidator defines the interface for validating annotations against their schemas
type SchemaValidator interface {
	// Validate annotation against its schema
	Validate(annotation *ParsedAnnotation, schema AnnotationSchema) error

	// ValidatePlacement checks the declaration kind the annotation was found on
	ValidatePlacement(annotation *ParsedAnnotation, schema AnnotationSchema, on Placement) error

	// ApplyDefaults applies default values for missing optional parameters
	ApplyDefaults(annotation *ParsedAnnotation, schema AnnotationSchema) error
}

// validator is the concrete implementation of SchemaValidator
type validator struct{}

// NewValidator creates a new schema validator
func NewValidator() SchemaValidator {
	return &validator{}
}

// Validate validates an annotation against its schema
func (v *validator) Validate(annotation *ParsedAnnotation, schema AnnotationSchema) error {
	errs := &MultipleAnnotationErrors{}

	if len(annotation.Positional) > 0 && !schema.Positional {
		errs.Errors = append(errs.Errors, NewSchemaErrorWithContext(
			fmt.Sprintf("//strata::%s takes no positional arguments, got %v", schema.Type, annotation.Positional),
			annotation.Location, schema.Type))
	}

	// Validate required parameters are present
	for _, paramName := range sortedParamNames(schema.Parameters) {
		paramSpec := schema.Parameters[paramName]
		if paramSpec.Required && !annotation.HasParameter(paramName) {
			errs.Errors = append(errs.Errors, &ValidationError{
				Parameter: paramName,
				Expected:  fmt.Sprintf("required parameter of type %s", paramSpec.Type.String()),
				Actual:    "missing",
				Loc:       annotation.Location,
				Hint:      fmt.Sprintf("Add -%s=<value> to the annotation", paramName),
			})
		}
	}

	// Validate parameter types and values
	for _, paramName := range sortedKeys(annotation.Parameters) {
		paramValue := annotation.Parameters[paramName]
		paramSpec, exists := schema.Parameters[paramName]
		if !exists {
			errs.Errors = append(errs.Errors, unknownParameter(paramName, annotation.Location))
			continue
		}

		if !hasType(paramValue, paramSpec.Type) {
			errs.Errors = append(errs.Errors, &ValidationError{
				Parameter: paramName,
				Expected:  paramSpec.Type.String(),
				Actual:    fmt.Sprintf("%v (%T)", paramValue, paramValue),
				Loc:       annotation.Location,
				Hint:      fmt.Sprintf("Use a %s literal", paramSpec.Type.String()),
			})
			continue
		}

		if paramSpec.Validator != nil {
			if err := paramSpec.Validator(paramValue); err != nil {
				errs.Errors = append(errs.Errors, &ValidationError{
					Parameter: paramName,
					Expected:  "valid value",
					Actual:    fmt.Sprintf("%v", paramValue),
					Loc:       annotation.Location,
					Hint:      err.Error(),
				})
			}
		}
	}

	for _, paramName := range sortedStrings(annotation.Symbols) {
		paramSpec, exists := schema.Parameters[paramName]
		if !exists {
			errs.Errors = append(errs.Errors, unknownParameter(paramName, annotation.Location))
			continue
		}
		if !paramSpec.AllowSymbol {
			errs.Errors = append(errs.Errors, &ValidationError{
				Parameter: paramName,
				Expected:  fmt.Sprintf("%s literal", paramSpec.Type.String()),
				Actual:    fmt.Sprintf("constant reference '%s'", annotation.Symbols[paramName]),
				Loc:       annotation.Location,
				Hint:      fmt.Sprintf("-%s does not accept constant references", paramName),
			})
		}
	}

	// Run custom annotation validators
	for _, customValidator := range schema.Validators {
		if err := customValidator(annotation); err != nil {
			errs.Errors = append(errs.Errors, &SchemaError{
				Msg:  err.Error(),
				Loc:  annotation.Location,
				Hint: "Check annotation parameters and their combinations",
			})
		}
	}

	return errs.ErrorOrNil()
}

// ValidatePlacement checks the declaration kind the annotation was found on
func (v *validator) ValidatePlacement(annotation *ParsedAnnotation, schema AnnotationSchema, on Placement) error {
	if schema.Placement&on != 0 {
		return nil
	}
	return NewSchemaErrorWithContext(
		fmt.Sprintf("//strata::%s is not allowed on %s", schema.Type, on),
		annotation.Location, schema.Type)
}

// ApplyDefaults applies default values for missing optional parameters
func (v *validator) ApplyDefaults(annotation *ParsedAnnotation, schema AnnotationSchema) error {
	if annotation.Parameters == nil {
		annotation.Parameters = make(map[string]interface{})
	}

	for paramName, paramSpec := range schema.Parameters {
		if !annotation.HasParameter(paramName) && paramSpec.DefaultValue != nil {
			annotation.Parameters[paramName] = paramSpec.DefaultValue
		}
	}

	return nil
}

func unknownParameter(name string, loc SourceLocation) *ValidationError {
	return &ValidationError{
		Parameter: name,
		Expected:  "known parameter",
		Actual:    fmt.Sprintf("unknown parameter '%s'", name),
		Loc:       loc,
		Hint:      fmt.Sprintf("Remove -%s or check parameter name spelling", name),
	}
}

func hasType(value interface{}, kind ParameterType) bool {
	switch kind {
	case StringType:
		_, ok := value.(string)
		return ok
	case BoolType:
		_, ok := value.(bool)
		return ok
	case IntType:
		_, ok := value.(int)
		return ok
	default:
		return false
	}
}

func sortedParamNames(m map[string]ParameterSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStrings(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
