package models

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/toyz/strata/internal/symbols"
)

// Role is a structural classification assigned to a type
type Role int

const (
	RoleSingleton Role = iota
	RoleBean
	RoleBindTarget
	RoleApplicationRoot
	RoleScreenRoot
)

var roleNames = [...]string{
	RoleSingleton:       "Singleton",
	RoleBean:            "Bean",
	RoleBindTarget:      "BindTarget",
	RoleApplicationRoot: "ApplicationRoot",
	RoleScreenRoot:      "ScreenRoot",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "Unknown"
	}
	return roleNames[r]
}

// AllRoles lists every role in declaration order
func AllRoles() []Role {
	return []Role{RoleSingleton, RoleBean, RoleBindTarget, RoleApplicationRoot, RoleScreenRoot}
}

// RoleSet is a bit set of roles
type RoleSet uint8

// RolesOf builds a set
func RolesOf(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

// Has reports whether r is in the set
func (s RoleSet) Has(r Role) bool {
	return s&(1<<uint(r)) != 0
}

// With returns the set plus r
func (s RoleSet) With(r Role) RoleSet {
	return s | 1<<uint(r)
}

// IsEmpty reports an empty set
func (s RoleSet) IsEmpty() bool {
	return s == 0
}

// Roles lists the members in declaration order
func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range AllRoles() {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(roleNames))
	for _, r := range s.Roles() {
		names = append(names, r.String())
	}
	return strings.Join(names, "|")
}

// MarshalJSON encodes the set as a list of role names
func (s RoleSet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(roleNames))
	for _, r := range s.Roles() {
		names = append(names, r.String())
	}
	return json.Marshal(names)
}

// Discovery is the outcome of role discovery: role to types and type to roles
type Discovery struct {
	byType map[symbols.TypeName]RoleSet
}

// NewDiscovery creates an empty result
func NewDiscovery() *Discovery {
	return &Discovery{byType: make(map[symbols.TypeName]RoleSet)}
}

// Assign adds roles to t
func (d *Discovery) Assign(t symbols.TypeName, roles ...Role) {
	d.byType[t] = d.byType[t] | RolesOf(roles...)
}

// RolesOf returns the roles of t
func (d *Discovery) RolesOf(t symbols.TypeName) RoleSet {
	return d.byType[t]
}

// Has reports whether t holds role r
func (d *Discovery) Has(t symbols.TypeName, r Role) bool {
	return d.byType[t].Has(r)
}

// TypesWith lists the types holding r, sorted
func (d *Discovery) TypesWith(r Role) []symbols.TypeName {
	var out []symbols.TypeName
	for t, roles := range d.byType {
		if roles.Has(r) {
			out = append(out, t)
		}
	}
	sortTypeNames(out)
	return out
}

// Types lists every type holding at least one role, sorted
func (d *Discovery) Types() []symbols.TypeName {
	out := make([]symbols.TypeName, 0, len(d.byType))
	for t, roles := range d.byType {
		if !roles.IsEmpty() {
			out = append(out, t)
		}
	}
	sortTypeNames(out)
	return out
}

// ByRole returns the role to types map
func (d *Discovery) ByRole() map[Role][]symbols.TypeName {
	out := make(map[Role][]symbols.TypeName)
	for _, r := range AllRoles() {
		if types := d.TypesWith(r); len(types) > 0 {
			out[r] = types
		}
	}
	return out
}

func sortTypeNames(names []symbols.TypeName) {
	sort.Slice(names, func(i, j int) bool { return names[i].Less(names[j]) })
}
