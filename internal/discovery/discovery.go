// Package discovery classifies the types of a loaded project into roles.
package discovery

import (
	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
)

// markerRoles lists the marker-based roles in the order they are tried
var markerRoles = []struct {
	role    models.Role
	markers []annotations.AnnotationType
}{
	{models.RoleSingleton, []annotations.AnnotationType{annotations.SingletonAnnotation}},
	{models.RoleBean, []annotations.AnnotationType{annotations.BeanAnnotation, annotations.InjectAnnotation, annotations.ParamAnnotation}},
	{models.RoleBindTarget, []annotations.AnnotationType{annotations.BindAnnotation}},
}

// Engine assigns roles to every eligible type of a resolver
type Engine struct {
	resolver    symbols.Resolver
	appRoots    []symbols.TypeName
	screenRoots []symbols.TypeName
	exhaustive  bool
}

// Option configures an Engine
type Option func(*Engine)

// WithApplicationRoots sets the ApplicationRoot allow-list
func WithApplicationRoots(roots ...symbols.TypeName) Option {
	return func(e *Engine) { e.appRoots = roots }
}

// WithScreenRoots sets the ScreenRoot allow-list
func WithScreenRoots(roots ...symbols.TypeName) Option {
	return func(e *Engine) { e.screenRoots = roots }
}

// Exhaustive evaluates every marker role independently instead of stopping
// at the first type-level match
func Exhaustive(on bool) Option {
	return func(e *Engine) { e.exhaustive = on }
}

// New creates an engine. Without root options the runtime's
// strata.ApplicationRoot and strata.ScreenRoot are used.
func New(resolver symbols.Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver:    resolver,
		appRoots:    []symbols.TypeName{symbols.NewTypeName(symbols.RuntimePackage, "ApplicationRoot")},
		screenRoots: []symbols.TypeName{symbols.NewTypeName(symbols.RuntimePackage, "ScreenRoot")},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Eligible reports whether t takes part in discovery: an exported,
// non-generic struct declared in the loaded packages
func Eligible(t *symbols.TypeInfo) bool {
	return !t.Implicit && t.Exported() && t.IsStruct() && !t.Generic
}

// Discover classifies every eligible type
func (e *Engine) Discover() *models.Discovery {
	result := models.NewDiscovery()
	for _, t := range e.resolver.Types() {
		if !Eligible(t) {
			continue
		}
		for _, r := range e.Roles(t) {
			result.Assign(t.Name, r)
		}
	}
	return result
}

// Roles computes the roles of a single type
func (e *Engine) Roles(t *symbols.TypeInfo) []models.Role {
	var set models.RoleSet

	matched := false
	for _, mr := range markerRoles {
		if !symbols.HasMarker(t, mr.markers...) {
			continue
		}
		set = withImplied(set, mr.role)
		matched = true
		if !e.exhaustive {
			break
		}
	}

	if !matched || e.exhaustive {
		fields := e.resolver.MembersOf(t.Name, false).Fields
		for _, mr := range markerRoles {
			for _, f := range fields {
				if symbols.HasMarker(f, mr.markers...) {
					set = withImplied(set, mr.role)
					break
				}
			}
		}
	}

	if e.assignableToAny(t.Name, e.appRoots) {
		set = set.With(models.RoleApplicationRoot)
	}
	if e.assignableToAny(t.Name, e.screenRoots) {
		set = set.With(models.RoleScreenRoot)
	}
	return set.Roles()
}

func (e *Engine) assignableToAny(t symbols.TypeName, roots []symbols.TypeName) bool {
	for _, root := range roots {
		to := e.resolver.Ref(root)
		if e.resolver.IsAssignable(e.resolver.Ref(t), to) || e.resolver.IsAssignable(e.resolver.PtrRef(t), to) {
			return true
		}
	}
	return false
}

func withImplied(set models.RoleSet, r models.Role) models.RoleSet {
	set = set.With(r)
	if r == models.RoleSingleton {
		set = set.With(models.RoleBean)
	}
	return set
}
