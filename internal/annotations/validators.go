package annotations

import (
	"fmt"
	"regexp"
)

var executorTagPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-]*$`)

// ValidateExecutorTag checks that an executor tag is a plain identifier
func ValidateExecutorTag(v interface{}) error {
	tag, ok := v.(string)
	if !ok {
		return fmt.Errorf("executor tag must be a string, got %T", v)
	}
	if !executorTagPattern.MatchString(tag) {
		return fmt.Errorf("invalid executor tag '%s'", tag)
	}
	return nil
}

// ValidateGoIdentifier checks that a name can be used as a Go identifier
func ValidateGoIdentifier(v interface{}) error {
	name, ok := v.(string)
	if !ok {
		return fmt.Errorf("name must be a string, got %T", v)
	}
	if !goIdentPattern.MatchString(name) {
		return fmt.Errorf("'%s' is not a valid Go identifier", name)
	}
	return nil
}

var goIdentPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// PriorityParameterSpec returns the lifecycle Priority parameter specification
func PriorityParameterSpec() ParameterSpec {
	return ParameterSpec{
		Type:         IntType,
		Required:     false,
		DefaultValue: 0,
		AllowSymbol:  true,
		Description:  "Ordering of lifecycle methods, higher runs first",
	}
}

// ExecutorParameterSpec returns the lifecycle Executor parameter specification
func ExecutorParameterSpec() ParameterSpec {
	return ParameterSpec{
		Type:        StringType,
		Required:    false,
		Description: "Executor tag the lifecycle step is posted to (default main)",
		Validator:   ValidateExecutorTag,
	}
}

// NameParameterSpec returns a Name parameter specification
func NameParameterSpec(description string) ParameterSpec {
	return ParameterSpec{
		Type:        StringType,
		Required:    false,
		AllowSymbol: true,
		Description: description,
		Validator:   ValidateGoIdentifier,
	}
}
