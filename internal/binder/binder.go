// Package binder synthesizes the construction recipe of every bean-like type.
package binder

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
	"unicode"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
)

const defaultExecutor = "main"

var lifecycleMarkers = []annotations.AnnotationType{
	annotations.PostConstructAnnotation,
	annotations.PreDestroyAnnotation,
}

// Synthesizer builds Binders against a resolver
type Synthesizer struct {
	resolver symbols.Resolver
	outPkg   string
	warn     func(format string, args ...interface{})
}

// New creates a synthesizer for code written into the package outPkg
func New(resolver symbols.Resolver, outPkg string, sink symbols.Sink) *Synthesizer {
	s := &Synthesizer{resolver: resolver, outPkg: outPkg, warn: func(string, ...interface{}) {}}
	if sink != nil {
		s.warn = sink.Warn
	}
	return s
}

// SynthesizeAll builds a Binder for every Bean and BindTarget type. Types
// that fail are reported in the returned error and left out.
func (s *Synthesizer) SynthesizeAll(d *models.Discovery) ([]*models.Binder, error) {
	errs := errors.NewMultipleErrors()
	var out []*models.Binder
	for _, t := range d.Types() {
		roles := d.RolesOf(t)
		if !roles.Has(models.RoleBean) && !roles.Has(models.RoleBindTarget) {
			continue
		}
		b, err := s.Synthesize(t, roles)
		if err != nil {
			collect(errs, err)
			continue
		}
		out = append(out, b)
	}
	return out, errs.ErrorOrNil()
}

// Synthesize builds the Binder of t
func (s *Synthesizer) Synthesize(t symbols.TypeName, roles models.RoleSet) (*models.Binder, error) {
	info, ok := s.resolver.Lookup(t)
	if !ok {
		return nil, errors.NewUnresolvedDependency(t.String(), t.String(), t.Name)
	}
	if !info.IsStruct() {
		return nil, errors.NewUnresolvedDependency(t.String(), t.String(), t.Name).At(location(info.Location()))
	}

	members := s.resolver.MembersOf(t, true)
	b := &models.Binder{
		Product: t,
		Ref:     s.resolver.PtrRef(t),
		Roles:   roles,
		Name:    s.beanName(info, roles),
		Loc:     info.Location(),
	}
	if bind, ok := symbols.Marker(info, annotations.BindAnnotation); ok {
		b.Screen = bind.GetString("Screen")
	}

	errs := errors.NewMultipleErrors()
	s.checkAmbiguous(t, members, errs)
	s.constructor(b, members, errs)
	s.fields(b, members, errs)
	b.PostConstruct = s.lifecycle(b, members, annotations.PostConstructAnnotation, errs)
	b.PreDestroy = s.lifecycle(b, members, annotations.PreDestroyAnnotation, errs)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return b, nil
}

// InjectFields returns the injected fields of a root type, which is built
// by the caller rather than through a Binder
func (s *Synthesizer) InjectFields(t symbols.TypeName) ([]models.Requirement, error) {
	members := s.resolver.MembersOf(t, true)
	b := &models.Binder{Product: t}
	errs := errors.NewMultipleErrors()
	s.checkAmbiguous(t, members, errs)
	s.fields(b, members, errs)
	for _, p := range b.FactoryParams {
		errs.Add(errors.NewInaccessibleMember(t.String(), p.Field,
			"root types are created by the application and cannot take //strata::param fields"))
	}
	return b.InjectFields, errs.ErrorOrNil()
}

func (s *Synthesizer) beanName(info *symbols.TypeInfo, roles models.RoleSet) string {
	marker := annotations.BeanAnnotation
	if roles.Has(models.RoleSingleton) {
		marker = annotations.SingletonAnnotation
	}
	v, ok := s.resolver.AnnotationValue(info, marker, "Name")
	if !ok {
		return info.Name.Name
	}
	name, _ := v.(string)
	if !token.IsIdentifier(name) {
		s.warn("%s: bean name %q of %s is not an identifier, using %s", info.Location().File, name, info.Name, info.Name.Name)
		return info.Name.Name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func (s *Synthesizer) checkAmbiguous(t symbols.TypeName, members *symbols.Members, errs *errors.MultipleErrors) {
	for _, amb := range members.Ambiguous {
		owners := make([]string, 0, len(amb.Owners))
		marked := false
		for _, owner := range amb.Owners {
			owners = append(owners, owner.String())
			if f, ok := s.resolver.MembersOf(owner, false).Field(amb.Name); ok &&
				symbols.HasMarker(f, annotations.InjectAnnotation, annotations.ParamAnnotation) {
				marked = true
			}
		}
		if marked {
			errs.Add(errors.NewAmbiguousField(t.String(), amb.Name, owners))
		}
	}
}

func (s *Synthesizer) constructor(b *models.Binder, members *symbols.Members, errs *errors.MultipleErrors) {
	for _, c := range members.Constructors {
		if symbols.HasMarker(c, lifecycleMarkers...) {
			errs.Add(errors.NewLifecycleShape(b.Product.String(), c.Name, "is a static function").At(location(c.Location())))
		}
	}
	chosen := ShortestConstructor(members.Constructors)
	if chosen == nil {
		b.Pointer = true
		return
	}

	b.Constructor = chosen
	b.ReturnsError = chosen.ReturnsError()
	b.Pointer = chosen.Results[0].Pointer
	if !chosen.Exported && b.Product.Pkg != s.outPkg {
		errs.Add(errors.NewInaccessibleMember(b.Product.String(), chosen.Name, "constructor is not exported").
			At(location(chosen.Location())))
	}

	factory := make(map[string]bool)
	if marker, ok := symbols.Marker(chosen, annotations.ParamAnnotation); ok {
		for _, name := range marker.Positional {
			factory[name] = true
		}
	}
	for i, p := range chosen.Params {
		name := p.Name
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		isFactory := factory[p.Name]
		delete(factory, p.Name)
		b.Args = append(b.Args, models.CtorArg{Name: name, Type: p.Type, Factory: isFactory})
		if isFactory {
			b.FactoryParams = append(b.FactoryParams, models.FactoryParam{Name: name, Type: p.Type})
		}
	}
	for _, missing := range sortedKeys(factory) {
		errs.Add(errors.Newf(errors.ValidationErrorCode,
			"//strata::param on %s names %q, which is not a parameter", chosen.Name, missing).
			WithLocation(location(chosen.Location())))
	}
}

// ShortestConstructor returns the usable constructor with the fewest
// parameters, ties going to the one declared first
func ShortestConstructor(ctors []*symbols.Func) *symbols.Func {
	var chosen *symbols.Func
	for _, c := range ctors {
		if c.Generic || c.Variadic {
			continue
		}
		if chosen == nil || len(c.Params) < len(chosen.Params) ||
			(len(c.Params) == len(chosen.Params) && c.Order < chosen.Order) {
			chosen = c
		}
	}
	return chosen
}

func (s *Synthesizer) fields(b *models.Binder, members *symbols.Members, errs *errors.MultipleErrors) {
	for _, f := range members.Fields {
		inject := symbols.HasMarker(f, annotations.InjectAnnotation)
		param := symbols.HasMarker(f, annotations.ParamAnnotation)
		if !inject && !param {
			continue
		}
		if inject && param {
			errs.Add(errors.Newf(errors.ValidationErrorCode,
				"field %s of %s is marked both inject and param", f.Name, b.Product.Name).
				WithLocation(location(f.Location())))
			continue
		}
		if !f.Exported && b.Product.Pkg != s.outPkg {
			errs.Add(errors.NewInaccessibleMember(b.Product.String(), f.Name, "field is not exported").
				At(location(f.Location())).
				Hint("export the field or move the type into the generated package"))
			continue
		}
		if param {
			b.FactoryParams = append(b.FactoryParams, models.FactoryParam{
				Name:  paramName(f.Name, b.FactoryParams),
				Type:  f.Type,
				Field: f.Name,
			})
			continue
		}
		b.InjectFields = append(b.InjectFields, models.Requirement{
			Name:  f.Name,
			Type:  f.Type,
			Field: f.Name,
			Loc:   f.Location(),
		})
	}
}

func (s *Synthesizer) lifecycle(b *models.Binder, members *symbols.Members, marker annotations.AnnotationType, errs *errors.MultipleErrors) []models.LifecycleStep {
	var steps []models.LifecycleStep
	for _, m := range members.Methods {
		if !symbols.HasMarker(m, marker) {
			continue
		}
		if problem := shapeProblem(m); problem != "" {
			errs.Add(errors.NewLifecycleShape(b.Product.String(), m.Name, problem).At(location(m.Location())))
			continue
		}

		invocation, err := s.invocation(b.Product, m)
		if err != nil {
			collect(errs, err)
			continue
		}
		step := models.LifecycleStep{
			Method:       m,
			Name:         m.Name,
			Executor:     defaultExecutor,
			Invocation:   invocation,
			ReturnsError: m.ReturnsError(),
		}
		if v, ok := s.resolver.AnnotationValue(m, marker, "Priority"); ok {
			step.Priority, _ = v.(int)
		}
		if v, ok := s.resolver.AnnotationValue(m, marker, "Executor"); ok {
			if tag, _ := v.(string); tag != "" {
				step.Executor = tag
			}
		}
		steps = append(steps, step)
	}
	SortByPriority(steps)
	return steps
}

// SortByPriority orders steps by descending priority, keeping declaration
// order among equal priorities
func SortByPriority(steps []models.LifecycleStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority > steps[j].Priority
	})
}

func shapeProblem(m *symbols.Func) string {
	switch {
	case m.IsStatic():
		return "is a static function"
	case m.Abstract:
		return "is abstract"
	case m.Generic:
		return "has type parameters"
	case len(m.Params) > 0:
		return fmt.Sprintf("takes %d parameters", len(m.Params))
	case len(m.Results) > 1 || (len(m.Results) == 1 && !m.Results[0].IsError()):
		return "must return nothing or error"
	}
	return ""
}

func (s *Synthesizer) invocation(product symbols.TypeName, m *symbols.Func) (models.Invocation, error) {
	if m.Exported || product.Pkg == s.outPkg {
		return models.Invocation{Kind: models.DirectCall}, nil
	}
	if m.Owner.Pkg != product.Pkg {
		return models.Invocation{}, errors.NewInaccessibleMember(product.String(), m.Name,
			"unexported method promoted from another package").At(location(m.Location()))
	}
	return models.Invocation{
		Kind:    models.ReflectiveCall,
		Key:     product.String() + "." + m.Name,
		Package: product.Pkg,
	}, nil
}

func paramName(field string, existing []models.FactoryParam) string {
	name := LowerFirst(field)
	if token.Lookup(name).IsKeyword() {
		name += "_"
	}
	for _, p := range existing {
		if p.Name == name {
			return name + "Field"
		}
	}
	return name
}

// LowerFirst lowercases the leading word of an identifier: ID becomes id,
// HTTPClient becomes httpClient
func LowerFirst(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n > 1 && n < len(runes) && unicode.IsLower(runes[n]):
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func location(loc annotations.SourceLocation) errors.SourceLocation {
	return errors.SourceLocation{File: loc.File, Line: loc.Line, Column: loc.Column}
}

func collect(errs *errors.MultipleErrors, err error) {
	switch e := err.(type) {
	case *errors.MultipleErrors:
		for _, inner := range e.Errors {
			errs.Add(inner)
		}
	case errors.StrataError:
		errs.Add(e)
	default:
		errs.Add(errors.Wrap(errors.GenerationErrorCode, "binder synthesis failed", err))
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
