package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// StrataError is implemented by every error the generator reports. The
// location, context and suggestions feed the diagnostic reporter.
type StrataError interface {
	error
	ErrorCode() ErrorCode
	Location() SourceLocation
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode classifies a generator error
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	SyntaxErrorCode
	ValidationErrorCode
	SchemaErrorCode

	GenerationErrorCode
	TemplateErrorCode
	FileSystemErrorCode
	LoadErrorCode

	// Lint codes are fatal for the unit that raised them
	UnresolvedDependencyCode
	LifecycleShapeCode
	AmbiguousFieldCode
	InaccessibleMemberCode
	DuplicateUnitCode
	RootConflictCode
	DependencyCycleCode

	ConfigurationErrorCode
)

var codeNames = map[ErrorCode]string{
	SyntaxErrorCode:          "SyntaxError",
	ValidationErrorCode:      "ValidationError",
	SchemaErrorCode:          "SchemaError",
	GenerationErrorCode:      "GenerationError",
	TemplateErrorCode:        "TemplateError",
	FileSystemErrorCode:      "FileSystemError",
	LoadErrorCode:            "LoadError",
	UnresolvedDependencyCode: "UnresolvedDependency",
	LifecycleShapeCode:       "LifecycleShape",
	AmbiguousFieldCode:       "AmbiguousField",
	InaccessibleMemberCode:   "InaccessibleMember",
	DuplicateUnitCode:        "DuplicateUnit",
	RootConflictCode:         "RootConflict",
	DependencyCycleCode:      "DependencyCycle",
	ConfigurationErrorCode:   "ConfigurationError",
}

func (e ErrorCode) String() string {
	if name, ok := codeNames[e]; ok {
		return name
	}
	return "UnknownError"
}

// IsLint reports whether the code belongs to the lint family
func (e ErrorCode) IsLint() bool {
	return e >= UnresolvedDependencyCode && e <= DependencyCycleCode
}

// SourceLocation points at the declaration an error is about
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// String renders file:line:column, dropping the parts that are unknown
func (s SourceLocation) String() string {
	switch {
	case s.File == "":
		return "unknown location"
	case s.Line == 0:
		return s.File
	case s.Column == 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsEmpty reports whether the location names no file
func (s SourceLocation) IsEmpty() bool {
	return s.File == ""
}

// BaseError is the StrataError used for everything but lint findings
type BaseError struct {
	Code        ErrorCode
	Message     string
	Loc         SourceLocation
	Cause       error
	ContextData map[string]interface{}
	Hints       []string
}

func (e *BaseError) Error() string {
	message := e.Message
	if e.Cause != nil {
		message = fmt.Sprintf("%s: %v", message, e.Cause)
	}
	if e.Loc.IsEmpty() {
		return message
	}
	return fmt.Sprintf("%s: %s", e.Loc, message)
}

func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

func (e *BaseError) Location() SourceLocation {
	return e.Loc
}

// Context returns the key/value pairs attached with WithContext, never nil
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return map[string]interface{}{}
	}
	return e.ContextData
}

func (e *BaseError) Suggestions() []string {
	return e.Hints
}

func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithLocation sets the location and returns e
func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.Loc = loc
	return e
}

// WithContext attaches a value shown by the diagnostic reporter
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion appends a hint shown under the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// New creates a BaseError
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

// Newf creates a BaseError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a BaseError caused by cause
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{Code: code, Message: message, Cause: cause}
}

// MultipleErrors collects the failures of one pass so they are reported
// together instead of stopping at the first
type MultipleErrors struct {
	Errors []StrataError
}

// NewMultipleErrors creates an empty collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{}
}

func (e *MultipleErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	lines := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		lines[i] = fmt.Sprintf("  %d. %s", i+1, err)
	}
	return fmt.Sprintf("multiple errors (%d total):\n%s", len(e.Errors), strings.Join(lines, "\n"))
}

// ErrorCode is the code of the first error
func (e *MultipleErrors) ErrorCode() ErrorCode {
	if len(e.Errors) == 0 {
		return UnknownErrorCode
	}
	return e.Errors[0].ErrorCode()
}

// Location is the location of the first error
func (e *MultipleErrors) Location() SourceLocation {
	if len(e.Errors) == 0 {
		return SourceLocation{}
	}
	return e.Errors[0].Location()
}

// Context merges the context of every error, keyed by position
func (e *MultipleErrors) Context() map[string]interface{} {
	merged := make(map[string]interface{})
	for i, err := range e.Errors {
		for k, v := range err.Context() {
			merged[fmt.Sprintf("%d.%s", i+1, k)] = v
		}
	}
	return merged
}

func (e *MultipleErrors) Suggestions() []string {
	var out []string
	for _, err := range e.Errors {
		out = append(out, err.Suggestions()...)
	}
	return out
}

// Unwrap returns the first error; Is and As search all of them
func (e *MultipleErrors) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

func (e *MultipleErrors) Is(target error) bool {
	for _, err := range e.Errors {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

func (e *MultipleErrors) As(target interface{}) bool {
	for _, err := range e.Errors {
		if stderrors.As(err, target) {
			return true
		}
	}
	return false
}

// Add appends err
func (e *MultipleErrors) Add(err StrataError) {
	e.Errors = append(e.Errors, err)
}

func (e *MultipleErrors) IsEmpty() bool {
	return len(e.Errors) == 0
}

func (e *MultipleErrors) Count() int {
	return len(e.Errors)
}

// GetByCode returns the errors carrying code
func (e *MultipleErrors) GetByCode(code ErrorCode) []StrataError {
	var out []StrataError
	for _, err := range e.Errors {
		if err.ErrorCode() == code {
			out = append(out, err)
		}
	}
	return out
}

// HasCode reports whether any error carries code
func (e *MultipleErrors) HasCode(code ErrorCode) bool {
	return len(e.GetByCode(code)) > 0
}

// ErrorOrNil returns nil for an empty collection so callers can return it directly
func (e *MultipleErrors) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}
