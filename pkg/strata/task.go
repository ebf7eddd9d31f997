package strata

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskSettled
)

// Task is an asynchronous unit of work with a settable, gettable result cell.
// The cell is written exactly once; callbacks registered with WhenDone run after it
// is written, in registration order.
type Task[T any] struct {
	id        uuid.UUID
	ctx       context.Context
	cancel    context.CancelFunc
	interrupt InterruptionPolicy

	mu        sync.Mutex
	state     taskState
	result    Result[T]
	callbacks []func(Result[T])
	done      chan struct{}
}

// NewTask creates a pending task. With DoNotInterrupt the task context ignores
// both Cancel and the cancellation of parent once the task is running.
func NewTask[T any](parent context.Context, policy InterruptionPolicy) *Task[T] {
	if parent == nil {
		parent = context.Background()
	}
	if policy == DoNotInterrupt {
		parent = context.WithoutCancel(parent)
	}
	ctx, cancel := context.WithCancel(parent)
	return &Task[T]{
		id:        uuid.New(),
		ctx:       ctx,
		cancel:    cancel,
		interrupt: policy,
		done:      make(chan struct{}),
	}
}

// ID returns the task identifier
func (t *Task[T]) ID() uuid.UUID {
	return t.id
}

// Context returns the context handed to the running work
func (t *Task[T]) Context() context.Context {
	return t.ctx
}

// Set writes the result cell. It returns false if the cell was already written.
func (t *Task[T]) Set(result Result[T]) bool {
	t.mu.Lock()
	if t.state == taskSettled {
		t.mu.Unlock()
		return false
	}
	t.state = taskSettled
	t.result = result
	callbacks := t.callbacks
	t.callbacks = nil
	close(t.done)
	t.mu.Unlock()

	t.cancel()
	for _, cb := range callbacks {
		cb(result)
	}
	return true
}

// Succeed settles the task with a value
func (t *Task[T]) Succeed(value T) bool {
	return t.Set(Success(value))
}

// Fail settles the task with an error
func (t *Task[T]) Fail(err error) bool {
	return t.Set(Failure[T](err))
}

// WhenDone registers fn to run once the task settles. If it already has, fn runs
// immediately on the calling goroutine.
func (t *Task[T]) WhenDone(fn func(Result[T])) {
	t.mu.Lock()
	if t.state != taskSettled {
		t.callbacks = append(t.callbacks, fn)
		t.mu.Unlock()
		return
	}
	result := t.result
	t.mu.Unlock()
	fn(result)
}

// Done is closed once the task settles
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles and returns its result
func (t *Task[T]) Wait() Result[T] {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// WaitContext is Wait bounded by ctx
func (t *Task[T]) WaitContext(ctx context.Context) (Result[T], error) {
	select {
	case <-t.done:
		return t.Wait(), nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

// Peek returns the result if the task has settled
func (t *Task[T]) Peek() (Result[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.state == taskSettled
}

// Cancel drops a pending task, failing it with ErrCancelled. A running task is
// interrupted through its context only under MayInterrupt. The return value
// reports whether the task was affected.
func (t *Task[T]) Cancel() bool {
	t.mu.Lock()
	switch t.state {
	case taskPending:
		t.mu.Unlock()
		return t.Fail(ErrCancelled)
	case taskRunning:
		t.mu.Unlock()
		if t.interrupt == MayInterrupt {
			t.cancel()
			return true
		}
		return false
	default:
		t.mu.Unlock()
		return false
	}
}

// start moves the task from pending to running. It fails if the task was cancelled
// or settled in the meantime.
func (t *Task[T]) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != taskPending {
		return false
	}
	t.state = taskRunning
	return true
}

// pending reports whether the task has not started yet
func (t *Task[T]) pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == taskPending
}
