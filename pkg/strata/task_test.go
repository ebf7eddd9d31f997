package strata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskSetOnce(t *testing.T) {
	task := NewTask[int](context.Background(), MayInterrupt)

	assert.True(t, task.Succeed(1))
	assert.False(t, task.Succeed(2))
	assert.False(t, task.Fail(errors.New("late")))
	assert.Equal(t, Success(1), task.Wait())
}

func TestTaskWhenDone(t *testing.T) {
	task := NewTask[string](context.Background(), MayInterrupt)
	var before, after atomic.Value

	task.WhenDone(func(r Result[string]) { before.Store(r.Value) })
	task.Succeed("ok")
	task.WhenDone(func(r Result[string]) { after.Store(r.Value) })

	assert.Equal(t, "ok", before.Load())
	assert.Equal(t, "ok", after.Load())
}

func TestSubmitReportsFailuresAsResults(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	boom := errors.New("boom")
	failed := Submit(execs.Background(), nil, MayInterrupt, DoNotCancelPending, func(context.Context) (int, error) {
		return 0, boom
	})
	panicked := Go(execs.Background(), func() (int, error) { panic("bad") })

	assert.ErrorIs(t, failed.Wait().Err, boom)
	var panicErr *PanicError
	assert.ErrorAs(t, panicked.Wait().Err, &panicErr)
}

func TestSubmitMayInterrupt(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	running := make(chan struct{})
	task := Submit(execs.Background(), nil, MayInterrupt, DoNotCancelPending, func(ctx context.Context) (int, error) {
		close(running)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-running

	assert.True(t, task.Cancel())
	assert.ErrorIs(t, task.Wait().Err, context.Canceled)
}

func TestSubmitDoNotInterrupt(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	running := make(chan struct{})
	release := make(chan struct{})
	task := Submit(execs.Background(), nil, DoNotInterrupt, DoNotCancelPending, func(ctx context.Context) (int, error) {
		close(running)
		<-release
		return 42, ctx.Err()
	})
	<-running

	assert.False(t, task.Cancel())
	close(release)
	result := task.Wait()
	require.NoError(t, result.Err)
	assert.Equal(t, 42, result.Value)
}

func TestSubmitCancelPending(t *testing.T) {
	serial := NewSerialExecutor("lane")
	defer serial.Close()

	blocker := make(chan struct{})
	require.NoError(t, serial.Post(func() { <-blocker }))

	lane := &Lane{}
	var ran atomic.Int32
	work := func(context.Context) (int, error) {
		ran.Add(1)
		return int(ran.Load()), nil
	}

	first := Submit(serial, lane, MayInterrupt, CancelPending, work)
	second := Submit(serial, lane, MayInterrupt, CancelPending, work)
	close(blocker)

	assert.ErrorIs(t, first.Wait().Err, ErrCancelled)
	assert.True(t, second.Wait().Ok())

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), ran.Load())
}

func TestSubmitDoNotCancelPending(t *testing.T) {
	serial := NewSerialExecutor("lane")
	defer serial.Close()

	blocker := make(chan struct{})
	require.NoError(t, serial.Post(func() { <-blocker }))

	lane := &Lane{}
	work := func(context.Context) (int, error) { return 1, nil }
	first := Submit(serial, lane, MayInterrupt, DoNotCancelPending, work)
	second := Submit(serial, lane, MayInterrupt, DoNotCancelPending, work)
	close(blocker)

	assert.True(t, first.Wait().Ok())
	assert.True(t, second.Wait().Ok())
}

func TestSubmitToClosedExecutor(t *testing.T) {
	serial := NewSerialExecutor("closed")
	require.NoError(t, serial.Close())

	task := Go(serial, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, task.Wait().Err, ErrExecutorClosed)
}
