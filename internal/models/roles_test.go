package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/symbols"
)

func TestRoleSet(t *testing.T) {
	s := RolesOf(RoleSingleton, RoleBean)
	assert.True(t, s.Has(RoleSingleton))
	assert.True(t, s.Has(RoleBean))
	assert.False(t, s.Has(RoleBindTarget))
	assert.Equal(t, "Singleton|Bean", s.String())
	assert.True(t, RoleSet(0).IsEmpty())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["Singleton","Bean"]`, string(data))
}

func TestDiscovery(t *testing.T) {
	d := NewDiscovery()
	b := symbols.NewTypeName("example.com/app", "B")
	a := symbols.NewTypeName("example.com/app", "A")
	d.Assign(b, RoleBean)
	d.Assign(a, RoleSingleton, RoleBean)
	d.Assign(b, RoleBindTarget)

	assert.Equal(t, []symbols.TypeName{a, b}, d.TypesWith(RoleBean))
	assert.Equal(t, []symbols.TypeName{a}, d.TypesWith(RoleSingleton))
	assert.Equal(t, RolesOf(RoleBean, RoleBindTarget), d.RolesOf(b))
	assert.Equal(t, []symbols.TypeName{a, b}, d.Types())
	assert.NotContains(t, d.ByRole(), RoleScreenRoot)
}

func TestBinderRequirements(t *testing.T) {
	db := symbols.NewTypeName("example.com/app", "Db")
	b := &Binder{
		Args: []CtorArg{
			{Name: "id", Type: symbols.Builtin("int"), Factory: true},
			{Name: "db", Type: symbols.Ptr(db)},
		},
		InjectFields: []Requirement{{Name: "Clock", Field: "Clock", Type: symbols.Builtin("int64")}},
		PostConstruct: []LifecycleStep{
			{Name: "open", Invocation: Invocation{Kind: ReflectiveCall, Key: "example.com/app.Db.open"}},
			{Name: "Warm"},
		},
	}

	deps := b.Dependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, "db", deps[0].Name)

	reqs := b.Requirements()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Clock", reqs[1].Field)

	assert.True(t, b.HasLifecycle())
	reflective := b.Reflective()
	require.Len(t, reflective, 1)
	assert.Equal(t, "open", reflective[0].Name)
}
