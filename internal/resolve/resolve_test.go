package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/binder"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/symbols"
)

const pkg = "example.com/app"

type fixture struct {
	model  *symbols.Model
	app    *Context
	screen *Context
	bind   *Context
	db     *Accessor
}

// newFixture declares App, Main and Widget roots plus a Db singleton exposed
// by the application context
func newFixture(t *testing.T, declare func(b *symbols.Builder)) *fixture {
	t.Helper()
	b := symbols.NewBuilder().WithRuntime()
	app := b.Struct(pkg, "App")
	main := b.Struct(pkg, "Main")
	widget := b.Struct(pkg, "Widget")
	db := b.Struct(pkg, "Db")
	if declare != nil {
		declare(b)
	}
	m := b.Model()

	f := &fixture{model: m}
	f.app = NewContext("ApplicationScope", app.Name(), nil)
	f.app.Add(&Accessor{Name: "App", Kind: RootAccessor, Type: m.PtrRef(app.Name())})
	f.db = f.app.Add(&Accessor{Name: "Db", Kind: SingletonAccessor, Type: m.PtrRef(db.Name())})
	f.screen = NewContext("MainScope", main.Name(), f.app)
	f.screen.Add(&Accessor{Name: "Main", Kind: RootAccessor, Type: m.PtrRef(main.Name())})
	f.bind = NewContext("WidgetScope", widget.Name(), f.screen)
	f.bind.Add(&Accessor{Name: "Widget", Kind: RootAccessor, Type: m.PtrRef(widget.Name())})
	return f
}

func (f *fixture) resolver(t *testing.T, beans ...symbols.TypeName) *Resolver {
	t.Helper()
	synth := binder.New(f.model, pkg, nil)
	var binders []*models.Binder
	for _, name := range beans {
		b, err := synth.Synthesize(name, models.RolesOf(models.RoleBean))
		require.NoError(t, err)
		binders = append(binders, b)
	}
	return New(f.model, binders, pkg)
}

func ref(name string) symbols.TypeRef {
	return symbols.Ptr(symbols.NewTypeName(pkg, name))
}

func TestResolveWalksToRoot(t *testing.T) {
	f := newFixture(t, nil)
	r := f.resolver(t)

	expr, err := r.Resolve(f.bind, Request{Required: ref("Db"), Origin: f.bind.Root, Site: "Widget.Db"})
	require.NoError(t, err)
	assert.Equal(t, AccessorCall, expr.Kind)
	assert.Same(t, f.app, expr.Scope)
	assert.Same(t, f.db, expr.Accessor)
	assert.Equal(t, "s.parent.parent", f.bind.Reach(expr.Scope, "s"))
	assert.Equal(t, "s", f.app.Reach(f.app, "s"))
	assert.Equal(t, 2, f.bind.Depth())
}

func TestResolveSkipsExcludedAccessor(t *testing.T) {
	f := newFixture(t, nil)
	r := f.resolver(t)

	expr, err := r.Resolve(f.app, Request{Required: ref("Db"), Origin: f.app.Root, Site: "Db", Exclude: f.db})
	require.NoError(t, err)
	assert.Equal(t, Construct, expr.Kind)
	assert.Nil(t, expr.Ctor)
}

func TestResolveUnresolvedInterface(t *testing.T) {
	f := newFixture(t, func(b *symbols.Builder) {
		b.Interface(pkg, "Clock")
	})
	r := f.resolver(t)

	_, err := r.Resolve(f.screen, Request{
		Required: symbols.Named(symbols.NewTypeName(pkg, "Clock")),
		Origin:   f.screen.Root,
		Site:     "Main.Clock",
	})
	require.Error(t, err)
	lint, ok := errors.AsLint(err)
	require.True(t, ok)
	assert.Equal(t, errors.UnresolvedDependencyCode, lint.ErrorCode())
	assert.Contains(t, lint.Error(), "Clock")
	assert.Equal(t, "Main.Clock", lint.Site)
	assert.Equal(t, pkg+".Main", lint.Origin)
}

func TestResolveInterfaceThroughAccessor(t *testing.T) {
	f := newFixture(t, func(b *symbols.Builder) {
		store := b.Interface(pkg, "Store")
		b.Implements(symbols.NewTypeName(pkg, "Db"), store.Name())
	})
	r := f.resolver(t)

	expr, err := r.Resolve(f.bind, Request{
		Required: symbols.Named(symbols.NewTypeName(pkg, "Store")),
		Origin:   f.bind.Root,
		Site:     "Widget.Store",
	})
	require.NoError(t, err)
	assert.Equal(t, AccessorCall, expr.Kind)
	assert.Same(t, f.db, expr.Accessor)
}

func TestResolveMaterializesBinder(t *testing.T) {
	var repo symbols.TypeName
	f := newFixture(t, func(b *symbols.Builder) {
		rb := b.Struct(pkg, "Repo").Mark("//strata::bean")
		rb.Field("DB", ref("Db")).Mark("//strata::inject")
		repo = rb.Name()
	})
	r := f.resolver(t, repo)

	expr, err := r.Resolve(f.screen, Request{Required: ref("Repo"), Origin: f.screen.Root, Site: "Main.Repo"})
	require.NoError(t, err)
	require.Equal(t, Materialize, expr.Kind)
	assert.Equal(t, repo, expr.Binder.Product)
	require.Len(t, expr.Args, 1)
	assert.Equal(t, AccessorCall, expr.Args[0].Kind)
	assert.Same(t, f.db, expr.Args[0].Accessor)
	assert.False(t, expr.Deref)

	value, err := r.Resolve(f.screen, Request{Required: symbols.Named(repo), Origin: f.screen.Root, Site: "Main.Repo"})
	require.NoError(t, err)
	assert.Equal(t, Materialize, value.Kind)
	assert.True(t, value.Deref)
}

func TestResolveInlineConstruction(t *testing.T) {
	f := newFixture(t, func(b *symbols.Builder) {
		clock := b.Struct(pkg, "Clock")
		clock.Constructor("NewClockWithZone").Param("db", ref("Db")).Param("zone", symbols.Builtin("string"))
		clock.Constructor("NewClock").Param("db", ref("Db"))
		cache := b.Struct(pkg, "Cache")
		cache.Constructor("NewCache").Param("db", ref("Db"))
		cache.Constructor("NewCacheFrom").Param("clock", ref("Clock"))
		b.Struct(pkg, "Timer").Constructor("NewTimer").Param("zone", symbols.Builtin("string"))
		b.Struct(pkg, "Config")
	})
	r := f.resolver(t)

	expr, err := r.Resolve(f.bind, Request{Required: ref("Clock"), Origin: f.bind.Root, Site: "Widget.Clock"})
	require.NoError(t, err)
	require.Equal(t, Construct, expr.Kind)
	assert.Equal(t, "NewClock", expr.Ctor.Name, "fewest parameters wins")
	require.Len(t, expr.Args, 1)
	assert.Same(t, f.db, expr.Args[0].Accessor)

	cache, err := r.Resolve(f.bind, Request{Required: ref("Cache"), Origin: f.bind.Root, Site: "Widget.Cache"})
	require.NoError(t, err)
	assert.Equal(t, "NewCache", cache.Ctor.Name, "ties keep declaration order")

	_, err = r.Resolve(f.bind, Request{Required: ref("Timer"), Origin: f.bind.Root, Site: "Widget.Timer"})
	lint, ok := errors.AsLint(err)
	require.True(t, ok, "string parameter has no source")
	assert.Equal(t, errors.UnresolvedDependencyCode, lint.ErrorCode())
	assert.Equal(t, "NewTimer.zone", lint.Site)

	cfg, err := r.Resolve(f.bind, Request{
		Required: symbols.Named(symbols.NewTypeName(pkg, "Config")),
		Origin:   f.bind.Root,
		Site:     "Widget.Config",
	})
	require.NoError(t, err)
	assert.Equal(t, Construct, cfg.Kind)
	assert.Nil(t, cfg.Ctor)
	assert.True(t, cfg.Deref)
}

func TestResolveUnexportedTypeFromOtherPackage(t *testing.T) {
	const other = "example.com/lib"
	f := newFixture(t, func(b *symbols.Builder) {
		b.Struct(other, "secret")
	})
	r := f.resolver(t)

	_, err := r.Resolve(f.app, Request{Required: symbols.Ptr(symbols.NewTypeName(other, "secret")), Origin: f.app.Root, Site: "App.secret"})
	lint, ok := errors.AsLint(err)
	require.True(t, ok)
	assert.Equal(t, errors.UnresolvedDependencyCode, lint.ErrorCode())
}

func TestResolveCycle(t *testing.T) {
	f := newFixture(t, func(b *symbols.Builder) {
		b.Struct(pkg, "A").Constructor("NewA").Param("b", ref("B"))
		b.Struct(pkg, "B").Constructor("NewB").Param("a", ref("A"))
	})
	r := f.resolver(t)

	_, err := r.Resolve(f.app, Request{Required: ref("A"), Origin: f.app.Root, Site: "App.A"})
	lint, ok := errors.AsLint(err)
	require.True(t, ok)
	assert.Equal(t, errors.DependencyCycleCode, lint.ErrorCode())
	assert.Contains(t, lint.Error(), "A -> B -> A")
}

func TestResolveBuiltinFails(t *testing.T) {
	f := newFixture(t, nil)
	r := f.resolver(t)

	_, err := r.Resolve(f.app, Request{Required: symbols.Builtin("int"), Origin: f.app.Root, Site: "App.n"})
	lint, ok := errors.AsLint(err)
	require.True(t, ok)
	assert.Equal(t, errors.UnresolvedDependencyCode, lint.ErrorCode())
}
