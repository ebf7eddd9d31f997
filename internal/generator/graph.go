package generator

import (
	"github.com/toyz/strata/internal/models"
	"github.com/toyz/strata/internal/resolve"
)

// Graph is the resolved object graph of one pass, shaped for JSON
type Graph struct {
	OutPkg  string              `json:"out_pkg"`
	Roles   map[string][]string `json:"roles"`
	Binders []*models.Binder    `json:"binders"`
	Scopes  []GraphScope        `json:"scopes"`
}

// GraphScope is one planned scope
type GraphScope struct {
	Name      string          `json:"name"`
	Level     string          `json:"level"`
	Root      string          `json:"root"`
	Parent    string          `json:"parent,omitempty"`
	Accessors []GraphAccessor `json:"accessors"`
	Inject    []GraphAccessor `json:"inject,omitempty"`
}

// GraphAccessor is one accessor, or one injected root field, with the Go
// expression that yields its value
type GraphAccessor struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Type string `json:"type"`
	Expr string `json:"expr,omitempty"`
}

// Graph describes ctx for tooling
func (c *Context) Graph() *Graph {
	g := &Graph{
		OutPkg:  c.OutPkg,
		Roles:   make(map[string][]string),
		Binders: c.Binders,
	}
	for role, types := range c.Discovery.ByRole() {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = t.String()
		}
		g.Roles[role.String()] = names
	}
	if c.Plan == nil {
		return g
	}

	f := c.newUnitFile(c.OutPkg)
	for _, s := range c.Plan.All() {
		gs := GraphScope{
			Name:  s.Name,
			Level: s.Level.String(),
			Root:  s.Root.String(),
		}
		if s.Parent != nil {
			gs.Parent = s.Parent.Name
		}
		for _, a := range s.Accessors() {
			ga := GraphAccessor{Name: a.Name, Kind: a.Kind.String(), Type: a.Type.String()}
			switch {
			case a.Kind == resolve.RootAccessor && s.Binder != nil:
				ga.Expr = materializeRoot(f, s)
			case a.Kind != resolve.RootAccessor:
				ga.Expr = slotExpr(f, s, a)
			}
			gs.Accessors = append(gs.Accessors, ga)
		}
		for _, inj := range s.Inject {
			ga := GraphAccessor{Name: inj.Field, Kind: "inject", Type: inj.Type.String()}
			if inj.Value != nil {
				ga.Expr = f.expr(s.Context, inj.Value)
			}
			gs.Inject = append(gs.Inject, ga)
		}
		g.Scopes = append(g.Scopes, gs)
	}
	return g
}
