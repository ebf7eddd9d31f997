package strata

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) step(name string, err error) func() error {
	return func() error {
		r.mu.Lock()
		r.calls = append(r.calls, name)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func waitResult(t *testing.T, task *Task[struct{}]) Result[struct{}] {
	t.Helper()
	select {
	case <-task.Done():
		return task.Wait()
	case <-time.After(2 * time.Second):
		t.Fatal("chain did not finish")
		return Result[struct{}]{}
	}
}

func TestChainRunsInOrderAcrossExecutors(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()
	execs.Register("io", NewPoolExecutor("io", 2))

	rec := &recorder{}
	chain := NewChain(
		NewStep("", "first", rec.step("first", nil)),
		NewStep("io", "second", rec.step("second", nil)),
		NewStep(BackgroundExecutor, "third", rec.step("third", nil)),
		NewStep(MainExecutor, "fourth", rec.step("fourth", nil)),
	)

	result := waitResult(t, chain.Run(execs))

	assert.True(t, result.Ok())
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, rec.snapshot())
}

func TestChainShortCircuitsOnFailure(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	boom := errors.New("second failed")
	rec := &recorder{}
	chain := NewChain(
		NewStep(MainExecutor, "one", rec.step("one", nil)),
		NewStep(MainExecutor, "two", rec.step("two", boom)),
		NewStep(MainExecutor, "three", rec.step("three", nil)),
	)

	result := waitResult(t, chain.Run(execs))

	require.False(t, result.Ok())
	assert.ErrorIs(t, result.Err, boom)
	var stepErr *StepError
	require.ErrorAs(t, result.Err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "two", stepErr.Name)

	// give a stray third step the chance to run before asserting it never did
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"one", "two"}, rec.snapshot())
}

func TestChainPanicIsTaggedFailure(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	chain := NewChain(NewStep(MainExecutor, "explode", func() error { panic("kaboom") }))
	result := waitResult(t, chain.Run(execs))

	var panicErr *PanicError
	require.ErrorAs(t, result.Err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
}

func TestEmptyChainSucceedsImmediately(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	task := NewChain().Run(execs)
	r, settled := task.Peek()
	assert.True(t, settled)
	assert.True(t, r.Ok())

	var nilChain *Chain
	r, settled = nilChain.Run(execs).Peek()
	assert.True(t, settled)
	assert.True(t, r.Ok())
}

func TestChainUnknownExecutor(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	rec := &recorder{}
	chain := NewChain(NewStep("gpu", "render", rec.step("render", nil)))
	result := waitResult(t, chain.Run(execs))

	assert.ErrorIs(t, result.Err, ErrUnknownExecutor)
	assert.Empty(t, rec.snapshot())
}
