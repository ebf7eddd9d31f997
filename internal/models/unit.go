package models

import "github.com/toyz/strata/internal/symbols"

// UnitKind classifies generated units
type UnitKind int

const (
	UnitBinder UnitKind = iota
	UnitScope
	UnitControllers
	UnitAsync
	UnitHooks
)

func (k UnitKind) String() string {
	switch k {
	case UnitBinder:
		return "binder"
	case UnitScope:
		return "scope"
	case UnitControllers:
		return "controllers"
	case UnitAsync:
		return "async"
	case UnitHooks:
		return "hooks"
	default:
		return "unknown"
	}
}

// Unit is one generated file, attributable to the type it was generated for
type Unit struct {
	Name    string           // generated type or file stem, e.g. ApplicationScope
	Kind    UnitKind         // what the unit contains
	Origin  symbols.TypeName // type the unit was generated for
	Package string           // import path of the package the unit belongs to
	Path    string           // file path the unit is written to
	Content []byte           // formatted Go source
}
