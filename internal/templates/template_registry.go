package templates

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/toyz/strata/internal/errors"
)

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]*template.Template
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]*template.Template),
	}

	registry.register("file", fileTemplate)
	registry.register("binder", binderTemplate)
	registry.register("scope", scopeTemplate)
	registry.register("controllers", controllersTemplate)
	registry.register("async", asyncTemplate)
	registry.register("hooks", hooksTemplate)

	return registry
}

func (tr *TemplateRegistry) register(name, text string) {
	tr.templates[name] = template.Must(template.New(name).Funcs(template.FuncMap{
		"quote": QuoteString,
	}).Parse(text))
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (*template.Template, bool) {
	t, exists := tr.templates[name]
	return t, exists
}

// Names lists the registered templates
func (tr *TemplateRegistry) Names() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute renders the named template with data
func (tr *TemplateRegistry) Execute(name string, data interface{}) (string, error) {
	t, exists := tr.templates[name]
	if !exists {
		return "", errors.New(errors.TemplateErrorCode, fmt.Sprintf("template not found: %s", name))
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.WrapTemplateError(name, "execute", err)
	}
	return buf.String(), nil
}

// Global template registry instance
var DefaultTemplateRegistry = NewTemplateRegistry()

const fileTemplate = `{{.Header}}

package {{.Package}}

{{.Imports}}
{{.Body}}`

const binderTemplate = `
// {{.Name}} is the construction recipe of {{.Product}}
type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}

// New{{.Name}} captures the factory parameters of {{.Product}}
func New{{.Name}}({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f.Param}} {{$f.Type}}{{end}}) {{.Name}} {
	return {{.Name}}{
{{- range .Fields}}
		{{.Name}}: {{.Param}},
{{- end}}
	}
}

// Materialize builds {{.Product}} from its dependencies
func (b {{.Name}}) Materialize({{range $i, $p := .Params}}{{if $i}}, {{end}}{{$p.Name}} {{$p.Type}}{{end}}) {{.Ref}} {
{{- range .Construct}}
	{{.}}
{{- end}}
{{- range .Assign}}
	{{.}}
{{- end}}
	return v
}
{{if .HasLifecycle}}
// Provide materializes {{.Product}} and tracks its lifecycle chains in l
func (b {{.Name}}) Provide(l *strata.Lifecycle{{range .Params}}, {{.Name}} {{.Type}}{{end}}) {{.Ref}} {
	v := b.Materialize({{.ParamNames}})
	l.Track({{quote .Key}}, b.PostConstruct(v), b.PreDestroy(v))
	return v
}
{{end}}
// PostConstruct returns the post-construct chain of v
func ({{.Name}}) PostConstruct(v {{.Ref}}) *strata.Chain {
	return strata.NewChain(
{{- range .PostConstruct}}
		strata.NewStep({{quote .Executor}}, {{quote .Name}}, {{.Run}}),
{{- end}}
	)
}

// PreDestroy returns the pre-destroy chain of v
func ({{.Name}}) PreDestroy(v {{.Ref}}) *strata.Chain {
	return strata.NewChain(
{{- range .PreDestroy}}
		strata.NewStep({{quote .Executor}}, {{quote .Name}}, {{.Run}}),
{{- end}}
	)
}
{{- range .Handles}}

var {{.Var}} = strata.NewMethodHandle({{quote .Key}})
{{- end}}
{{- with .Bind}}

// Create opens the scope of a new {{$.Product}} under parent
func (b {{$.Name}}) Create(parent {{.Parent}}) *{{.Scope}} {
	return New{{.Scope}}(parent, b)
}
{{- end}}
`

const scopeTemplate = `
// {{.Name}} owns the {{.Level}} lifetime of {{.RootType}}
type {{.Name}} struct {
{{- if .Parent}}
	parent    {{.Parent}}
{{- else}}
	execs     *strata.Executors
{{- end}}
{{- if .Bind}}
	binder    {{.Binder}}
{{- else}}
	root      {{.RootType}}
{{- end}}
	lifecycle *strata.Lifecycle
	slots     struct {
{{- range .Slots}}
		{{.Name}} strata.Lazy[{{.Type}}]
{{- end}}
	}
}
{{if .Bind}}
// New{{.Name}} creates the scope of the {{.RootName}} built by b
func New{{.Name}}(parent {{.Parent}}, b {{.Binder}}) *{{.Name}} {
	return &{{.Name}}{
		parent:    parent,
		binder:    b,
		lifecycle: strata.NewLifecycle(parent.Executors()),
	}
}
{{else if .Parent}}
// New{{.Name}} creates the scope of root
func New{{.Name}}(parent {{.Parent}}, root {{.RootType}}) *{{.Name}} {
	s := &{{.Name}}{
		parent:    parent,
		root:      root,
		lifecycle: strata.NewLifecycle(parent.Executors()),
	}
{{- range .Inject}}
	{{.}}
{{- end}}
	return s
}
{{else}}
// New{{.Name}} creates the scope of root. Lifecycle chains are posted to execs.
func New{{.Name}}(root {{.RootType}}, execs *strata.Executors) *{{.Name}} {
	s := &{{.Name}}{
		execs:     execs,
		root:      root,
		lifecycle: strata.NewLifecycle(execs),
	}
{{- range .Inject}}
	{{.}}
{{- end}}
	return s
}
{{end}}
{{if not .Bind}}
// {{.RootName}} returns the scope root
func (s *{{.Name}}) {{.RootName}}() {{.RootType}} {
	return s.root
}
{{end}}
{{range .Slots}}
{{if .Doc}}// {{.Name}} {{.Doc}}
{{end}}func (s *{{$.Name}}) {{.Name}}() {{.Type}} {
	return s.slots.{{.Name}}.Get(func() {{.Type}} {
		return {{.Expr}}
	})
}
{{end}}
// Executors returns the executor registry of the scope
func (s *{{.Name}}) Executors() *strata.Executors {
{{- if .Parent}}
	return s.parent.Executors()
{{- else}}
	return s.execs
{{- end}}
}
{{if .Parent}}
// Parent returns the enclosing scope
func (s *{{.Name}}) Parent() {{.Parent}} {
	return s.parent
}
{{end}}
// PostConstructed returns the post-construct task of the named instance this
// scope materialized
func (s *{{.Name}}) PostConstructed(instance string) *strata.Task[struct{}] {
	return s.lifecycle.Started(instance)
}

// Close runs the pre-destroy chains of the instances the scope materialized,
// newest first, and reports every failed lifecycle chain
func (s *{{.Name}}) Close(ctx context.Context) error {
	return s.lifecycle.Close(ctx)
}
`

const controllersTemplate = `
// Controllers constructs every singleton concurrently and hands them out once
// all of them have settled
type Controllers struct {
	once    sync.Once
	started atomic.Bool
	barrier *strata.Barrier
	slots   struct {
{{- range .Singletons}}
		{{.Name}} {{.Type}}
{{- end}}
	}
}

// NewControllers creates a container that has not been started
func NewControllers() *Controllers {
	return &Controllers{}
}

// Start launches the construction of every singleton against scope on the
// background executor and returns the completion signal of the startup
// barrier. A singleton settles once its post-construct chain has finished,
// and a failed chain is its outcome. Later calls return the same signal.
func (c *Controllers) Start(scope *{{.Scope}}) <-chan struct{} {
	c.once.Do(func() {
		execs := scope.Executors()
		c.barrier = execs.NewBarrier({{len .Singletons}})
		c.started.Store(true)
{{- range .Singletons}}
		strata.Go(execs.Background(), func() ({{.Type}}, error) {
			return scope.{{.Name}}(), nil
		}).WhenDone(func(r strata.Result[{{.Type}}]) {
			if !r.Ok() {
				c.barrier.Record({{quote .Name}}, r.Err, nil)
				return
			}
			scope.PostConstructed({{quote .Key}}).WhenDone(func(s strata.Result[struct{}]) {
				c.barrier.Record({{quote .Name}}, s.Err, func() { c.slots.{{.Name}} = r.Value })
			})
		})
{{- end}}
	})
	return c.barrier.Done()
}
{{range .Singletons}}
// {{.Name}} blocks until startup completed and returns the singleton
func (c *Controllers) {{.Name}}() {{.Type}} {
	c.awaitStart()
	return c.slots.{{.Name}}
}
{{end}}
// Results blocks until startup completed and returns every outcome in
// completion order
func (c *Controllers) Results() []strata.Outcome {
	c.awaitStart()
	return c.barrier.Results()
}

func (c *Controllers) awaitStart() {
	if !c.started.Load() {
		panic(strata.ErrNotStarted)
	}
	<-c.barrier.Done()
}
`

const asyncTemplate = `
// {{.Name}} submits the methods of {{.TargetName}} to the background executor
type {{.Name}} struct {
	target {{.Target}}
	exec   strata.Executor
	lanes  struct {
{{- range .Methods}}
		{{.Name}} strata.Lane
{{- end}}
	}
}

// New{{.Name}} wraps target
func New{{.Name}}(target {{.Target}}, execs *strata.Executors) *{{.Name}} {
	return &{{.Name}}{target: target, exec: execs.Background()}
}
{{range .Methods}}
// {{.Name}} runs {{$.TargetName}}.{{.Name}} on the background executor
func (a *{{$.Name}}) {{.Name}}({{.ParamList}}) *strata.Task[{{.Result}}] {
	return strata.Submit(a.exec, &a.lanes.{{.Name}}, strata.{{.Interrupt}}, strata.{{.Cancel}}, func(ctx context.Context) ({{.Result}}, error) {
{{- range .Body}}
		{{.}}
{{- end}}
	})
}
{{end}}`

const hooksTemplate = `
func init() {
{{- range .Hooks}}
	strata.RegisterMethod({{quote .Key}}, {{.Method}})
{{- end}}
}
`
