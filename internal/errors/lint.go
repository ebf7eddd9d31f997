package errors

import (
	"fmt"
	"strings"
)

// LintError is a generation-time fatal error. It aborts generation for the unit
// named by Origin and is reported with the source location of the offending site.
type LintError struct {
	*BaseError
	Origin string // type whose unit could not be generated
	Site   string // member or expression that triggered the error
}

func newLint(code ErrorCode, origin, site, message string) *LintError {
	return &LintError{
		BaseError: New(code, message).
			WithContext("origin", origin).
			WithContext("site", site),
		Origin: origin,
		Site:   site,
	}
}

// At sets the source location
func (e *LintError) At(loc SourceLocation) *LintError {
	e.Loc = loc
	return e
}

// Hint adds a suggestion
func (e *LintError) Hint(suggestion string) *LintError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// NewUnresolvedDependency reports a required type with no accessor, no binder and
// no usable constructor
func NewUnresolvedDependency(required, origin, site string) *LintError {
	return newLint(UnresolvedDependencyCode, origin, site,
		fmt.Sprintf("cannot resolve dependency %s required by %s", required, site)).
		Hint(fmt.Sprintf("mark %s with //strata::bean or give it a New%s constructor", required, shortName(required))).
		Hint("abstract types need a scope element (//strata::provides) returning a concrete value")
}

// NewLifecycleShape reports a lifecycle method that is static, abstract or parameterized
func NewLifecycleShape(origin, method, problem string) *LintError {
	return newLint(LifecycleShapeCode, origin, method,
		fmt.Sprintf("lifecycle method %s of %s %s", method, origin, problem)).
		Hint("lifecycle methods must be declared on the type, take no parameters and return nothing or error")
}

// NewAmbiguousField reports a field name promoted from more than one embedded type
func NewAmbiguousField(origin, field string, candidates []string) *LintError {
	return newLint(AmbiguousFieldCode, origin, field,
		fmt.Sprintf("field %s of %s is ambiguous: declared by %s", field, origin, strings.Join(candidates, ", "))).
		Hint("declare the field on " + shortName(origin) + " itself or rename one of the embedded fields")
}

// NewInaccessibleMember reports a member the generated package cannot reach
func NewInaccessibleMember(origin, member, reason string) *LintError {
	return newLint(InaccessibleMemberCode, origin, member,
		fmt.Sprintf("%s of %s is not accessible from generated code: %s", member, origin, reason))
}

// NewDuplicateUnit reports two types mapping to the same generated name
func NewDuplicateUnit(unit string, origins ...string) *LintError {
	return newLint(DuplicateUnitCode, strings.Join(origins, ", "), unit,
		fmt.Sprintf("generated unit %s would be produced by more than one type: %s", unit, strings.Join(origins, ", "))).
		Hint("rename one of the types or give it an explicit -Name")
}

// NewRootConflict reports a role that allows a single type but found several
func NewRootConflict(role string, origins ...string) *LintError {
	return newLint(RootConflictCode, strings.Join(origins, ", "), role,
		fmt.Sprintf("%s must be unique, found %s", role, strings.Join(origins, ", ")))
}

// NewDependencyCycle reports a cycle found while constructing dependencies inline
func NewDependencyCycle(origin string, path []string) *LintError {
	return newLint(DependencyCycleCode, origin, path[len(path)-1],
		fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> "))).
		Hint("break the cycle with a singleton or a scope element")
}

// AsLint returns the LintError in err's chain, if any
func AsLint(err error) (*LintError, bool) {
	for err != nil {
		if lint, ok := err.(*LintError); ok {
			return lint, true
		}
		if multi, ok := err.(*MultipleErrors); ok {
			for _, inner := range multi.Errors {
				if lint, ok := AsLint(inner); ok {
					return lint, true
				}
			}
			return nil, false
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

func shortName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
