package generator

import (
	"bytes"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/resolve"
	"github.com/toyz/strata/internal/symbols"
	"github.com/toyz/strata/internal/utils"
)

const (
	pkg = "example.com/app"
	lib = "example.com/lib"
)

var (
	str  = symbols.Builtin("string")
	num  = symbols.Builtin("int")
	fail = symbols.Builtin("error")
)

func ptr(p, name string) symbols.TypeRef {
	return symbols.Ptr(symbols.NewTypeName(p, name))
}

func runtimeType(name string) symbols.TypeRef {
	return symbols.Named(symbols.NewTypeName(symbols.RuntimePackage, name))
}

// project declares an application with a Store singleton, a Repo bean only
// the Widget bind target needs, a Main screen and a Cache bean from another
// package whose post-construct method is unexported
func project(screen ...func(main *symbols.TypeBuilder)) *symbols.Builder {
	b := symbols.NewBuilder().WithRuntime().
		Package(pkg, "app", "app").
		Package(lib, "lib", "lib")

	app := b.Struct(pkg, "App").Embed(runtimeType("Application"))
	app.Field("Store", ptr(pkg, "Store")).Mark("//strata::inject")

	store := b.Struct(pkg, "Store").Mark("//strata::singleton")
	store.Constructor("NewStore").Results(ptr(pkg, "Store"), fail)
	store.Method("Open").Results(fail).Mark("//strata::postconstruct")
	store.Method("flush").Mark("//strata::predestroy")
	store.Method("Get").
		Param("ctx", symbols.Named(symbols.NewTypeName("context", "Context"))).
		Param("key", str).
		Results(str, fail).
		Mark("//strata::async -CancelPending")
	store.Method("Ping")
	store.Method("Reset").Results(fail).Mark("//strata::noasync")

	repo := b.Struct(pkg, "Repo").Mark("//strata::bean")
	repo.Constructor("NewRepo").Param("store", ptr(pkg, "Store"))

	main := b.Struct(pkg, "Main").Embed(runtimeType("Screen"))
	main.Method("Title").Results(str).Mark("//strata::provides")
	for _, extend := range screen {
		extend(main)
	}

	widget := b.Struct(pkg, "Widget").Mark("//strata::bind")
	widget.Field("ID", num).Mark("//strata::param")
	widget.Field("Repo", ptr(pkg, "Repo")).Mark("//strata::inject")

	cache := b.Struct(lib, "Cache").Mark("//strata::bean")
	cache.Method("warm").Results(fail).Mark("//strata::postconstruct")
	return b
}

func generate(t *testing.T, b *symbols.Builder) ([]*models.Unit, error) {
	t.Helper()
	ctx, err := NewContext(b.Model(), nil, Options{})
	require.NoError(t, err)
	return NewGenerator().Generate(ctx)
}

func byName(units []*models.Unit) map[string]*models.Unit {
	out := make(map[string]*models.Unit, len(units))
	for _, u := range units {
		out[u.Name] = u
	}
	return out
}

func TestGenerateProject(t *testing.T) {
	units, err := generate(t, project())
	require.NoError(t, err)

	got := byName(units)
	for name, kind := range map[string]models.UnitKind{
		"BindApp":          models.UnitBinder,
		"BindCache":        models.UnitBinder,
		"BindRepo":         models.UnitBinder,
		"BindStore":        models.UnitBinder,
		"BindWidget":       models.UnitBinder,
		"ApplicationScope": models.UnitScope,
		"MainScope":        models.UnitScope,
		"WidgetScope":      models.UnitScope,
		"Controllers":      models.UnitControllers,
		"StoreAsync":       models.UnitAsync,
		"hooks":            models.UnitHooks,
	} {
		u, ok := got[name]
		require.True(t, ok, "missing unit %s", name)
		assert.Equal(t, kind, u.Kind, name)
	}
	assert.Len(t, units, 11)

	for _, u := range units {
		_, err := parser.ParseFile(token.NewFileSet(), u.Path, u.Content, parser.ParseComments)
		require.NoError(t, err, "unit %s does not parse:\n%s", u.Name, u.Content)
		assert.Contains(t, string(u.Content), "// Code generated by strata. DO NOT EDIT.")
	}

	assert.Equal(t, "app/strata_application_scope.go", got["ApplicationScope"].Path)
	assert.Equal(t, "lib/strata_hooks.go", got["hooks"].Path)
	assert.Equal(t, lib, got["hooks"].Package)
}

func TestGenerateScopes(t *testing.T) {
	units, err := generate(t, project())
	require.NoError(t, err)
	got := byName(units)

	app := string(got["ApplicationScope"].Content)
	assert.Contains(t, app, "func NewApplicationScope(root *App, execs *strata.Executors) *ApplicationScope")
	assert.Contains(t, app, "s.root.Store = s.Store()")
	assert.Contains(t, app, "return NewBindStore().Provide(s.lifecycle)")
	assert.Contains(t, app, "return NewStoreAsync(s.Store(), s.Executors())")
	assert.Contains(t, app, "func (s *ApplicationScope) Close(ctx context.Context) error")
	assert.Contains(t, app, "func (s *ApplicationScope) PostConstructed(instance string) *strata.Task[struct{}]")
	assert.Contains(t, app, "return s.lifecycle.Started(instance)")
	assert.NotContains(t, app, "Parent()")

	main := string(got["MainScope"].Content)
	assert.Contains(t, main, "func NewMainScope(parent *ApplicationScope, root *Main) *MainScope")
	assert.Contains(t, main, "return s.root.Title()")
	assert.Contains(t, main, "func (s *MainScope) Parent() *ApplicationScope")

	widget := string(got["WidgetScope"].Content)
	assert.Contains(t, widget, "func NewWidgetScope(parent *MainScope, b BindWidget) *WidgetScope")
	assert.Contains(t, widget, "return s.binder.Materialize(s.Repo())")
	assert.Contains(t, widget, "return NewBindRepo().Materialize(s.parent.parent.Store())")
}

func TestGenerateBinders(t *testing.T) {
	units, err := generate(t, project())
	require.NoError(t, err)
	got := byName(units)

	store := string(got["BindStore"].Content)
	assert.Contains(t, store, "v := strata.Must(NewStore())")
	assert.Contains(t, store, `strata.NewStep("main", "Store.Open", v.Open)`)
	assert.Contains(t, store, "v.flush()")
	assert.Contains(t, store, `l.Track("example.com/app.Store", b.PostConstruct(v), b.PreDestroy(v))`)

	widget := string(got["BindWidget"].Content)
	assert.Contains(t, widget, "func NewBindWidget(id int) BindWidget")
	assert.Contains(t, widget, "func (b BindWidget) Materialize(repo *Repo) *Widget")
	assert.Contains(t, widget, "v := &Widget{}")
	assert.Contains(t, widget, "v.Repo = repo")
	assert.Contains(t, widget, "v.ID = b.ID")
	assert.Contains(t, widget, "func (b BindWidget) Create(parent *MainScope) *WidgetScope")
	assert.NotContains(t, widget, "Provide(")

	cache := string(got["BindCache"].Content)
	assert.Contains(t, cache, `"example.com/lib"`)
	assert.Contains(t, cache, "v := &lib.Cache{}")
	assert.Contains(t, cache, `var cacheWarmHandle = strata.NewMethodHandle("example.com/lib.Cache.warm")`)
	assert.Contains(t, cache, "return cacheWarmHandle.Invoke(v)")

	hooks := string(got["hooks"].Content)
	assert.Contains(t, hooks, "package lib")
	assert.Contains(t, hooks, `strata.RegisterMethod("example.com/lib.Cache.warm", (*Cache).warm)`)
}

func TestGenerateControllersAndAsync(t *testing.T) {
	units, err := generate(t, project())
	require.NoError(t, err)
	got := byName(units)

	controllers := string(got["Controllers"].Content)
	assert.Contains(t, controllers, "func (c *Controllers) Start(scope *ApplicationScope) <-chan struct{}")
	assert.Contains(t, controllers, "c.barrier = execs.NewBarrier(1)")
	assert.Contains(t, controllers, "return scope.Store(), nil")
	assert.Contains(t, controllers, `c.barrier.Record("Store", r.Err, nil)`)
	assert.Contains(t, controllers, `scope.PostConstructed("example.com/app.Store").WhenDone(func(s strata.Result[struct{}]) {`)
	assert.Contains(t, controllers, `c.barrier.Record("Store", s.Err, func() { c.slots.Store = r.Value })`)
	assert.Contains(t, controllers, "func (c *Controllers) Store() *Store")

	async := string(got["StoreAsync"].Content)
	assert.Contains(t, async, "func (a *StoreAsync) Get(key string) *strata.Task[string]")
	assert.Contains(t, async, "strata.Submit(a.exec, &a.lanes.Get, strata.MayInterrupt, strata.CancelPending,")
	assert.Contains(t, async, "return a.target.Get(ctx, key)")
	assert.Contains(t, async, "func (a *StoreAsync) Ping() *strata.Task[struct{}]")
	assert.Contains(t, async, "strata.Submit(a.exec, &a.lanes.Ping, strata.MayInterrupt, strata.DoNotCancelPending,")
	assert.NotContains(t, async, "Reset", "noasync methods are not wrapped")
	assert.NotContains(t, async, ") Open(", "lifecycle methods are not wrapped")
}

func TestGenerateWarnsAboutUnwrappableMethods(t *testing.T) {
	b := project()
	clock := b.Struct(pkg, "Clock").Mark("//strata::singleton")
	clock.Method("Now").Results(str)
	clock.Method("Pair").Results(str, str)

	var out bytes.Buffer
	diag := utils.NewBufferedDiagnostics(utils.DiagnosticWarn, &out)
	ctx, err := NewContext(b.Model(), diag, Options{})
	require.NoError(t, err)
	units, err := NewGenerator().Generate(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out.String(), "no async wrapper"))
	assert.Contains(t, out.String(), "no async wrapper for Clock.Pair")
	async := string(byName(units)["ClockAsync"].Content)
	assert.NotContains(t, async, "Pair")
	assert.Contains(t, async, ") Now()")
}

func TestGenerateNothing(t *testing.T) {
	units, err := generate(t, symbols.NewBuilder().WithRuntime())
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestGenerateReservedAccessorName(t *testing.T) {
	b := project(func(main *symbols.TypeBuilder) {
		main.Method("Close").Results(str).Mark("//strata::provides")
	})

	_, err := generate(t, b)
	require.Error(t, err)
	multi, ok := err.(*errors.MultipleErrors)
	require.True(t, ok)
	dups := multi.GetByCode(errors.DuplicateUnitCode)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Error(), "MainScope.Close")
}

func TestGenerateReservedPostConstructedName(t *testing.T) {
	b := project(func(main *symbols.TypeBuilder) {
		main.Method("PostConstructed").Results(str).Mark("//strata::provides")
	})

	_, err := generate(t, b)
	multi, ok := err.(*errors.MultipleErrors)
	require.True(t, ok)
	dups := multi.GetByCode(errors.DuplicateUnitCode)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Error(), "MainScope.PostConstructed")
}

func TestGenerateDeclaredTypeClash(t *testing.T) {
	b := project()
	b.Struct(pkg, "Controllers")

	_, err := generate(t, b)
	multi, ok := err.(*errors.MultipleErrors)
	require.True(t, ok)
	require.True(t, multi.HasCode(errors.DuplicateUnitCode))
	assert.Contains(t, multi.Error(), "Controllers")
}

func TestGenerateLocalsAvoidQualifiers(t *testing.T) {
	const dbPkg = "example.com/db"
	b := project().Package(dbPkg, "db", "db")
	b.Struct(dbPkg, "Conn")
	pool := b.Struct(pkg, "Pool").Mark("//strata::bean")
	pool.Constructor("NewPool").Param("db", ptr(dbPkg, "Conn"))

	units, err := generate(t, b)
	require.NoError(t, err)
	bind := string(byName(units)["BindPool"].Content)
	assert.Contains(t, bind, "func (b BindPool) Materialize(db2 *db.Conn) *Pool")
	assert.Contains(t, bind, "v := NewPool(db2)")
}

func TestRenderExpr(t *testing.T) {
	b := symbols.NewBuilder().WithRuntime().Package(lib, "lib", "lib")
	clock := b.Struct(lib, "Clock")
	ctor := clock.Constructor("NewClock").Param("db", ptr(pkg, "Db")).Results(ptr(lib, "Clock"), fail).Func()
	cfg := b.Struct(lib, "Config")
	m := b.Model()

	app := resolve.NewContext("ApplicationScope", symbols.NewTypeName(pkg, "App"), nil)
	db := app.Add(&resolve.Accessor{Name: "Db", Kind: resolve.SingletonAccessor, Type: ptr(pkg, "Db")})
	screen := resolve.NewContext("MainScope", symbols.NewTypeName(pkg, "Main"), app)

	ctx := &Context{Symbols: m, OutPkg: pkg}
	f := ctx.newUnitFile(pkg)

	call := &resolve.Expr{Kind: resolve.AccessorCall, Type: db.Type, Scope: app, Accessor: db}
	assert.Equal(t, "s.parent.Db()", f.expr(screen, call))

	construct := &resolve.Expr{Kind: resolve.Construct, Type: ctor.Results[0], Product: clock.Name(), Ctor: ctor, Args: []*resolve.Expr{call}}
	assert.Equal(t, "strata.Must(lib.NewClock(s.parent.Db()))", f.expr(screen, construct))

	construct.Deref = true
	assert.Equal(t, "*strata.Must(lib.NewClock(s.parent.Db()))", f.expr(screen, construct))

	literal := &resolve.Expr{Kind: resolve.Construct, Type: m.PtrRef(cfg.Name()), Product: cfg.Name(), Deref: true}
	assert.Equal(t, "lib.Config{}", f.expr(app, literal))
	literal.Deref = false
	assert.Equal(t, "&lib.Config{}", f.expr(app, literal))
}
