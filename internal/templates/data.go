package templates

// FileData is one generated Go file
type FileData struct {
	Header  string
	Package string
	Imports string
	Body    string
}

// FieldData is a named, typed slot: a struct field or a parameter. Param
// is the parameter name used to initialize a field.
type FieldData struct {
	Name  string
	Type  string
	Param string
}

// StepData is one continuation of a lifecycle chain. Run is an expression
// of type func() error.
type StepData struct {
	Executor string
	Name     string
	Run      string
}

// HandleData declares a reflective method handle
type HandleData struct {
	Var string
	Key string
}

// BindData adds the Create method of a bind target binder
type BindData struct {
	Scope  string
	Parent string
}

// BinderData renders a Bind<Type> unit
type BinderData struct {
	Name    string
	Product string
	// Key names the instance in its scope lifecycle
	Key string
	Ref     string
	// Fields are the factory parameters
	Fields []FieldData
	// Params are the graph dependencies Materialize receives
	Params []FieldData
	// Construct are the statements that leave the instance in v
	Construct []string
	// Assign are the field assignments after construction
	Assign []string

	PostConstruct []StepData
	PreDestroy    []StepData
	Handles       []HandleData
	HasLifecycle  bool

	Bind *BindData
}

// ParamNames joins the names of Params
func (b BinderData) ParamNames() string {
	return joinNames(b.Params)
}

// SlotData is one lazily materialized accessor
type SlotData struct {
	Name string
	Type string
	// Expr builds the value with s as the scope receiver
	Expr string
	Doc  string
}

// ScopeData renders a scope unit
type ScopeData struct {
	Name  string
	Level string

	RootName string
	RootType string
	// Parent is the enclosing scope type, empty at the application level
	Parent string
	// Binder is the binder type of a bind scope root
	Binder string

	// Inject are the statements run by the constructor, with s in scope
	Inject []string
	Slots  []SlotData
}

// Bind reports whether the scope root is materialized through a binder
func (s ScopeData) Bind() bool {
	return s.Binder != ""
}

// LaunchData is one singleton started by Controllers
type LaunchData struct {
	Name string
	Type string
	Key  string
}

// ControllersData renders the Controllers unit
type ControllersData struct {
	Scope      string
	Singletons []LaunchData
}

// AsyncMethodData is one wrapped method
type AsyncMethodData struct {
	Name      string
	Params    []FieldData
	Result    string
	Interrupt string
	Cancel    string
	// Body are the statements inside the submitted function, with ctx and
	// a in scope
	Body []string
}

// ParamList renders the parameter list
func (m AsyncMethodData) ParamList() string {
	return joinFields(m.Params)
}

// AsyncData renders a <Singleton>Async wrapper
type AsyncData struct {
	Name string
	// Target is the wrapped pointer type, TargetName its type name
	Target     string
	TargetName string
	Methods    []AsyncMethodData
}

// HookData registers one reflectively invoked method
type HookData struct {
	Key    string
	Method string
}

// HooksData renders the hooks file of a package
type HooksData struct {
	Hooks []HookData
}
