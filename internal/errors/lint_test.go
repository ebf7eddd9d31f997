package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnresolvedDependency(t *testing.T) {
	err := NewUnresolvedDependency("example.com/app.Store", "example.com/app.Repo", "NewRepo(store)").
		At(SourceLocation{File: "repo.go", Line: 12, Column: 2})

	assert.Equal(t, UnresolvedDependencyCode, err.ErrorCode())
	assert.True(t, err.ErrorCode().IsLint())
	assert.Contains(t, err.Error(), "repo.go:12:2")
	assert.Contains(t, err.Error(), "example.com/app.Store")
	assert.Equal(t, "example.com/app.Repo", err.Origin)
	assert.NotEmpty(t, err.Suggestions())
	assert.Contains(t, err.Suggestions()[0], "NewStore")
}

func TestAsLint(t *testing.T) {
	lint := NewLifecycleShape("example.com/app.Db", "Open", "takes parameters")

	t.Run("direct", func(t *testing.T) {
		found, ok := AsLint(lint)
		require.True(t, ok)
		assert.Same(t, lint, found)
	})

	t.Run("wrapped", func(t *testing.T) {
		found, ok := AsLint(fmt.Errorf("generate: %w", lint))
		require.True(t, ok)
		assert.Same(t, lint, found)
	})

	t.Run("collection", func(t *testing.T) {
		all := NewMultipleErrors()
		all.Add(New(TemplateErrorCode, "bad template"))
		all.Add(lint)
		found, ok := AsLint(all)
		require.True(t, ok)
		assert.Same(t, lint, found)
	})

	t.Run("absent", func(t *testing.T) {
		_, ok := AsLint(stderrors.New("plain"))
		assert.False(t, ok)
	})
}

func TestMultipleErrorsErrorOrNil(t *testing.T) {
	all := NewMultipleErrors()
	assert.NoError(t, all.ErrorOrNil())

	all.Add(NewRootConflict("application root", "a.App", "b.App"))
	err := all.ErrorOrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.App, b.App")
	assert.False(t, TemplateErrorCode.IsLint())
}

func TestMultipleErrorsSearchEveryError(t *testing.T) {
	cause := stderrors.New("disk full")
	all := NewMultipleErrors()
	all.Add(NewRootConflict("application root", "a.App", "b.App"))
	all.Add(WrapFileSystemError("write", "strata_controllers.go", cause).WithContext("attempt", 2))

	assert.ErrorIs(t, all, cause)
	var base *BaseError
	require.ErrorAs(t, all, &base)
	assert.Equal(t, FileSystemErrorCode, base.ErrorCode())

	assert.Equal(t, RootConflictCode, all.ErrorCode())
	assert.True(t, all.HasCode(FileSystemErrorCode))
	assert.False(t, all.HasCode(TemplateErrorCode))
	assert.Equal(t, 2, all.Context()["2.attempt"])
	assert.Equal(t, "FileSystemError", FileSystemErrorCode.String())
	assert.Equal(t, "UnknownError", ErrorCode(99).String())
}
