package annotations

import (
	"fmt"
	"strings"
)

// AnnotationError defines the interface for annotation-related errors
type AnnotationError interface {
	error
	Location() SourceLocation
	Suggestion() string
	Code() ErrorCode
}

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	SyntaxErrorCode ErrorCode = iota
	ValidationErrorCode
	SchemaErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case ValidationErrorCode:
		return "ValidationError"
	case SchemaErrorCode:
		return "SchemaError"
	default:
		return "UnknownError"
	}
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Parameter string         // Parameter name that failed validation
	Expected  string         // What was expected
	Actual    string         // What was provided
	Loc       SourceLocation // Where the error occurred
	Hint      string         // Suggested fix
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: parameter '%s' validation failed: expected %s, got %s. %s",
		e.Loc.File, e.Loc.Line, e.Loc.Column,
		e.Parameter, e.Expected, e.Actual, e.Hint)
}

func (e *ValidationError) Location() SourceLocation { return e.Loc }
func (e *ValidationError) Suggestion() string       { return e.Hint }
func (e *ValidationError) Code() ErrorCode          { return ValidationErrorCode }

// SyntaxError represents a syntax parsing error
type SyntaxError struct {
	Msg  string         // Error message
	Loc  SourceLocation // Where the error occurred
	Hint string         // Suggested fix
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error: %s. %s",
		e.Loc.File, e.Loc.Line, e.Loc.Column, e.Msg, e.Hint)
}

func (e *SyntaxError) Location() SourceLocation { return e.Loc }
func (e *SyntaxError) Suggestion() string       { return e.Hint }
func (e *SyntaxError) Code() ErrorCode          { return SyntaxErrorCode }

// SchemaError represents a schema violation, such as a marker in the wrong place
type SchemaError struct {
	Msg  string         // Error message
	Loc  SourceLocation // Where the error occurred
	Hint string         // Suggested fix
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s:%d:%d: schema error: %s. %s",
		e.Loc.File, e.Loc.Line, e.Loc.Column, e.Msg, e.Hint)
}

func (e *SchemaError) Location() SourceLocation { return e.Loc }
func (e *SchemaError) Suggestion() string       { return e.Hint }
func (e *SchemaError) Code() ErrorCode          { return SchemaErrorCode }

// MultipleAnnotationErrors represents multiple annotation errors collected together
type MultipleAnnotationErrors struct {
	Errors []AnnotationError
}

func (e *MultipleAnnotationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return fmt.Sprintf("multiple annotation errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// Unwrap returns the underlying errors for error inspection
func (e *MultipleAnnotationErrors) Unwrap() []error {
	errors := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errors[i] = err
	}
	return errors
}

// ErrorOrNil returns nil when nothing was collected
func (e *MultipleAnnotationErrors) ErrorOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// NewSyntaxErrorWithContext creates a syntax error with context-aware suggestions
func NewSyntaxErrorWithContext(msg string, loc SourceLocation, context string) *SyntaxError {
	return &SyntaxError{
		Msg:  msg,
		Loc:  loc,
		Hint: generateSyntaxSuggestion(msg, context),
	}
}

// NewSchemaErrorWithContext creates a schema error with context-aware suggestions
func NewSchemaErrorWithContext(msg string, loc SourceLocation, annotationType AnnotationType) *SchemaError {
	return &SchemaError{
		Msg:  msg,
		Loc:  loc,
		Hint: generateSchemaSuggestion(msg, annotationType),
	}
}

func generateSyntaxSuggestion(msg, context string) string {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "unknown marker"):
		names := make([]string, 0, len(annotationNames))
		for _, t := range AllAnnotationTypes() {
			names = append(names, t.String())
		}
		return "Supported markers: " + strings.Join(names, ", ")
	case strings.Contains(msg, "namespace"):
		return "Markers must start with '//strata::' (note the double colon)"
	case strings.Contains(msg, "requires a value"):
		return "Parameters take the form '-Name=Value'; only bool parameters may be written as a bare '-Flag'"
	case strings.Contains(msg, "unexpected token"):
		if context != "" {
			return "Check the marker syntax: " + context
		}
		return "Parameters should be in format '-ParamName=Value' or '-FlagName' for boolean flags"
	default:
		return "Check marker syntax and refer to the examples in the schema"
	}
}

func generateSchemaSuggestion(msg string, annotationType AnnotationType) string {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "not allowed on"):
		return fmt.Sprintf("//strata::%s belongs on %s", annotationType, describePlacement(placementOf(annotationType)))
	case strings.Contains(msg, "positional"):
		return fmt.Sprintf("//strata::%s takes only -Name=Value parameters", annotationType)
	default:
		return "Check marker schema and parameter definitions"
	}
}

func placementOf(t AnnotationType) Placement {
	schema, err := DefaultRegistry().GetSchema(t)
	if err != nil {
		return 0
	}
	return schema.Placement
}

func describePlacement(p Placement) string {
	var parts []string
	if p&OnType != 0 {
		parts = append(parts, "struct types")
	}
	if p&OnField != 0 {
		parts = append(parts, "fields")
	}
	if p&OnFunc != 0 {
		parts = append(parts, "constructors")
	}
	if p&OnMethod != 0 {
		parts = append(parts, "methods")
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, " or ")
}

// String names the declaration kind
func (p Placement) String() string {
	return describePlacement(p)
}
