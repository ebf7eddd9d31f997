package symbols

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/errors"
)

func loadTestApp(t *testing.T) *Model {
	t.Helper()
	model, err := NewLoader("testdata/app").Load(context.Background(), "./...")
	require.NoError(t, err)
	return model
}

func TestLoaderTypesAndMarkers(t *testing.T) {
	model := loadTestApp(t)

	session, ok := model.Lookup(NewTypeName("example.com/app", "Session"))
	require.True(t, ok)
	assert.True(t, session.IsStruct())
	assert.True(t, HasMarker(session, annotations.BeanAnnotation))

	name, ok := model.AnnotationValue(session, annotations.BeanAnnotation, "Name")
	require.True(t, ok)
	assert.Equal(t, "session", name)

	store, ok := model.Lookup(NewTypeName("example.com/app/store", "Store"))
	require.True(t, ok)
	assert.True(t, HasMarker(store, annotations.SingletonAnnotation))

	root, ok := model.Lookup(NewTypeName("example.com/app", "Root"))
	require.True(t, ok)
	assert.True(t, root.IsAbstract())
	assert.Equal(t, "app", model.PackageName("example.com/app"))
	assert.NotEmpty(t, model.PackageDir("example.com/app"))
}

func TestLoaderMembers(t *testing.T) {
	model := loadTestApp(t)
	sessionName := NewTypeName("example.com/app", "Session")
	members := model.MembersOf(sessionName, true)

	user, ok := members.Field("User")
	require.True(t, ok)
	assert.True(t, user.Exported)
	assert.True(t, HasMarker(user, annotations.ParamAnnotation))
	hidden, ok := members.Field("hidden")
	require.True(t, ok)
	assert.False(t, hidden.Exported)

	require.Len(t, members.Constructors, 1)
	ctor := members.Constructors[0]
	assert.Equal(t, "NewSession", ctor.Name)
	require.Len(t, ctor.Params, 1)
	assert.Equal(t, "user", ctor.Params[0].Name)
	assert.Equal(t, "string", ctor.Params[0].Type.String())
	assert.True(t, ctor.IsStatic())

	open, ok := members.Method("Open")
	require.True(t, ok)
	assert.Equal(t, PointerReceiver, open.Receiver)
	assert.True(t, open.Params[0].Type.IsContext())
	assert.True(t, open.ReturnsError())
	priority, ok := model.AnnotationValue(open, annotations.PostConstructAnnotation, "Priority")
	require.True(t, ok)
	assert.Equal(t, 5, priority)

	nameMethod, ok := members.Method("Name")
	require.True(t, ok)
	assert.Equal(t, ValueReceiver, nameMethod.Receiver)

	storeCtors := model.MembersOf(NewTypeName("example.com/app/store", "Store"), false).Constructors
	require.Len(t, storeCtors, 1)
	assert.True(t, storeCtors[0].ReturnsError())
}

func TestLoaderAssignability(t *testing.T) {
	model := loadTestApp(t)
	app := NewTypeName("example.com/app", "App")
	root := NewTypeName("example.com/app", "Root")

	assert.True(t, model.IsAssignable(model.PtrRef(app), model.Ref(root)))
	assert.True(t, model.IsAssignable(model.Ref(app), model.Ref(root)))
	assert.False(t, model.IsAssignable(model.PtrRef(NewTypeName("example.com/app", "Session")), model.Ref(root)))

	members := model.MembersOf(app, false)
	storeField, ok := members.Field("Store")
	require.True(t, ok)
	assert.Equal(t, NewTypeName("example.com/app/store", "Store"), storeField.Type.Named)
	assert.True(t, storeField.Type.Pointer)
	assert.True(t, model.IsAssignable(model.PtrRef(storeField.Type.Named), storeField.Type))
	assert.Equal(t, []TypeName{NewTypeName("example.com/app", "Base")}, model.SupertypesOf(app))
}

func TestLoaderToleratesPendingGeneratedIdentifiers(t *testing.T) {
	model := loadTestApp(t)

	members := model.MembersOf(NewTypeName("example.com/app", "Session"), false)
	_, ok := members.Method("Open")
	assert.True(t, ok)
}

func TestLoaderFailsOnTypeErrors(t *testing.T) {
	_, err := NewLoader("testdata/broken").Load(context.Background(), "./...")
	require.Error(t, err)

	var base *errors.BaseError
	require.ErrorAs(t, err, &base)
	assert.Equal(t, errors.LoadErrorCode, base.ErrorCode())
	assert.Contains(t, err.Error(), "zero")
	assert.NotContains(t, err.Error(), "NewApplicationScope")
}
