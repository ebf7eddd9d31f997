package annotations

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Namespace is the prefix every marker carries after the comment slashes
const Namespace = "strata"

const markerPrefix = "//" + Namespace + "::"

// ParticipleParser parses //strata:: markers using alecthomas/participle
type ParticipleParser struct {
	parser    *participle.Parser[markerNode]
	registry  AnnotationRegistry
	validator SchemaValidator
}

// markerNode is the root of a marker comment
type markerNode struct {
	Namespace string     `parser:"Comment @Ident Separator"`
	Name      string     `parser:"@Ident"`
	Args      []*argNode `parser:"@@*"`
}

// argNode is either a -Key[=Value] option or a positional word
type argNode struct {
	Option *optionNode `parser:"  @@"`
	Word   *string     `parser:"| @(Ident | String | Number)"`
}

type optionNode struct {
	Pos   lexer.Position
	Key   string     `parser:"Dash @Ident"`
	Value *valueNode `parser:"(Equals @@)?"`
}

type valueNode struct {
	String *string `parser:"  @String"`
	Number *string `parser:"| @(Dash? Number)"`
	Ident  *string `parser:"| @Ident"`
}

var markerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//`},
	{Name: "Separator", Pattern: `::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*(\.[\p{L}_][\p{L}\p{N}_]*)?`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// NewParticipleParser creates a marker parser validating against registry
func NewParticipleParser(registry AnnotationRegistry) *ParticipleParser {
	parser := participle.MustBuild[markerNode](
		participle.Lexer(markerLexer),
		participle.Unquote("String"),
		participle.Elide("Whitespace"),
	)

	return &ParticipleParser{
		parser:    parser,
		registry:  registry,
		validator: NewValidator(),
	}
}

var defaultParser = NewParticipleParser(DefaultRegistry())

// Parse parses one marker comment with the builtin schemas
func Parse(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	return defaultParser.ParseAnnotation(comment, location)
}

// MustParse is Parse for literals known to be valid; it panics on error
func MustParse(comment string) *ParsedAnnotation {
	parsed, err := Parse(comment, SourceLocation{})
	if err != nil {
		panic(err)
	}
	return parsed
}

// IsAnnotation reports whether a comment line is a strata marker
func IsAnnotation(comment string) bool {
	return strings.HasPrefix(strings.TrimSpace(comment), markerPrefix)
}

// ParseAnnotation parses and validates a single marker comment
func (p *ParticipleParser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	comment = strings.TrimSpace(comment)
	if !IsAnnotation(comment) {
		return nil, NewSyntaxErrorWithContext(
			fmt.Sprintf("comment %q is not in the %s namespace", comment, Namespace), location, "")
	}

	node, err := p.parser.ParseString(location.File, comment)
	if err != nil {
		return nil, p.syntaxError(err, location)
	}

	annotationType, err := ParseAnnotationType(node.Name)
	if err != nil {
		return nil, NewSyntaxErrorWithContext(fmt.Sprintf("unknown marker '%s'", node.Name), location, "")
	}
	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return nil, NewSchemaErrorWithContext(err.Error(), location, annotationType)
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]interface{}),
		Symbols:    make(map[string]string),
		Location:   location,
		Raw:        comment,
	}

	errs := &MultipleAnnotationErrors{}
	for _, arg := range node.Args {
		if arg.Word != nil {
			parsed.Positional = append(parsed.Positional, *arg.Word)
			continue
		}
		if err := p.applyOption(parsed, schema, arg.Option); err != nil {
			errs.Errors = append(errs.Errors, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	if err := p.validator.Validate(parsed, schema); err != nil {
		return nil, err
	}
	if err := p.validator.ApplyDefaults(parsed, schema); err != nil {
		return nil, err
	}
	return parsed, nil
}

// ParseCommentGroup parses every marker line of a doc comment and checks that
// each marker may appear on the declaration kind on
func (p *ParticipleParser) ParseCommentGroup(fset *token.FileSet, group *ast.CommentGroup, on Placement) ([]*ParsedAnnotation, error) {
	if group == nil {
		return nil, nil
	}

	var parsed []*ParsedAnnotation
	errs := &MultipleAnnotationErrors{}
	for _, c := range group.List {
		if !IsAnnotation(c.Text) {
			continue
		}
		pos := fset.Position(c.Slash)
		loc := SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}

		annotation, err := p.ParseAnnotation(c.Text, loc)
		if err != nil {
			errs.Errors = append(errs.Errors, flatten(err)...)
			continue
		}
		schema, _ := p.registry.GetSchema(annotation.Type)
		if err := p.validator.ValidatePlacement(annotation, schema, on); err != nil {
			errs.Errors = append(errs.Errors, flatten(err)...)
			continue
		}
		parsed = append(parsed, annotation)
	}
	return parsed, errs.ErrorOrNil()
}

func (p *ParticipleParser) applyOption(parsed *ParsedAnnotation, schema AnnotationSchema, opt *optionNode) AnnotationError {
	loc := parsed.Location
	loc.Column += opt.Pos.Column - 1

	spec, known := schema.Parameters[opt.Key]
	if !known {
		return unknownParameter(opt.Key, loc)
	}
	if parsed.HasParameter(opt.Key) {
		return &ValidationError{
			Parameter: opt.Key,
			Expected:  "a single value",
			Actual:    "parameter given twice",
			Loc:       loc,
			Hint:      fmt.Sprintf("Remove the repeated -%s", opt.Key),
		}
	}

	value := opt.Value
	switch {
	case value == nil:
		if spec.Type != BoolType {
			return NewSyntaxErrorWithContext(fmt.Sprintf("-%s requires a value", opt.Key), loc, "")
		}
		parsed.Parameters[opt.Key] = true
		return nil

	case value.Ident != nil:
		ident := *value.Ident
		if spec.Type == BoolType && (ident == "true" || ident == "false") {
			parsed.Parameters[opt.Key] = ident == "true"
			return nil
		}
		if spec.AllowSymbol {
			parsed.Symbols[opt.Key] = ident
			return nil
		}
		if spec.Type == StringType {
			parsed.Parameters[opt.Key] = ident
			return nil
		}
		return &ValidationError{
			Parameter: opt.Key,
			Expected:  spec.Type.String(),
			Actual:    fmt.Sprintf("identifier '%s'", ident),
			Loc:       loc,
			Hint:      fmt.Sprintf("Use a %s literal", spec.Type),
		}

	default:
		raw := value.Number
		if value.String != nil {
			raw = value.String
		}
		converted, err := ConvertLiteral(*raw, spec.Type)
		if err != nil {
			return &ValidationError{
				Parameter: opt.Key,
				Expected:  spec.Type.String(),
				Actual:    *raw,
				Loc:       loc,
				Hint:      err.Error(),
			}
		}
		parsed.Parameters[opt.Key] = converted
		return nil
	}
}

func (p *ParticipleParser) syntaxError(err error, location SourceLocation) *SyntaxError {
	var perr participle.Error
	if errors.As(err, &perr) {
		location.Column += perr.Position().Column - 1
		return NewSyntaxErrorWithContext(perr.Message(), location, "-Key=Value or -Flag")
	}
	return NewSyntaxErrorWithContext(err.Error(), location, "")
}

func flatten(err error) []AnnotationError {
	var multi *MultipleAnnotationErrors
	if errors.As(err, &multi) {
		return multi.Errors
	}
	var single AnnotationError
	if errors.As(err, &single) {
		return []AnnotationError{single}
	}
	return []AnnotationError{&SyntaxError{Msg: err.Error()}}
}
