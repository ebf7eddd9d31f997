package strata

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InterruptionPolicy controls whether running work may be interrupted by Cancel
type InterruptionPolicy int

const (
	MayInterrupt InterruptionPolicy = iota
	DoNotInterrupt
)

func (p InterruptionPolicy) String() string {
	if p == DoNotInterrupt {
		return "DoNotInterrupt"
	}
	return "MayInterrupt"
}

// CancellationPolicy controls whether a new submission drops work still queued
// on the same Lane
type CancellationPolicy int

const (
	DoNotCancelPending CancellationPolicy = iota
	CancelPending
)

func (p CancellationPolicy) String() string {
	if p == CancelPending {
		return "CancelPending"
	}
	return "DoNotCancelPending"
}

type pendingTask interface {
	Cancel() bool
	pending() bool
}

// Lane groups the submissions of one wrapped method
type Lane struct {
	mu      sync.Mutex
	pending map[uuid.UUID]pendingTask
}

func (l *Lane) add(id uuid.UUID, t pendingTask) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		l.pending = make(map[uuid.UUID]pendingTask)
	}
	l.pending[id] = t
}

func (l *Lane) remove(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
}

// cancelPending cancels every queued task that has not started and returns how many
func (l *Lane) cancelPending() int {
	l.mu.Lock()
	victims := make([]pendingTask, 0, len(l.pending))
	for id, t := range l.pending {
		if t.pending() {
			victims = append(victims, t)
		}
		delete(l.pending, id)
	}
	l.mu.Unlock()

	cancelled := 0
	for _, t := range victims {
		if t.Cancel() {
			cancelled++
		}
	}
	return cancelled
}

// Submit posts fn to exec and returns its task. Failures, including a rejected
// post and a panic inside fn, are reported through the task result.
func Submit[T any](exec Executor, lane *Lane, interrupt InterruptionPolicy, cancel CancellationPolicy, fn func(ctx context.Context) (T, error)) *Task[T] {
	task := NewTask[T](context.Background(), interrupt)
	if lane != nil {
		if cancel == CancelPending {
			lane.cancelPending()
		}
		lane.add(task.ID(), task)
	}

	run := func() {
		if lane != nil {
			defer lane.remove(task.ID())
		}
		if !task.start() {
			return
		}
		var value T
		err := protect(func() error {
			var err error
			value, err = fn(task.Context())
			return err
		})
		if err != nil {
			task.Fail(err)
			return
		}
		task.Succeed(value)
	}

	if exec == nil {
		task.Fail(ErrUnknownExecutor)
		return task
	}
	if err := exec.Post(run); err != nil {
		if lane != nil {
			lane.remove(task.ID())
		}
		task.Fail(err)
	}
	return task
}

// Go runs fn on exec with default policies
func Go[T any](exec Executor, fn func() (T, error)) *Task[T] {
	return Submit(exec, nil, MayInterrupt, DoNotCancelPending, func(context.Context) (T, error) {
		return fn()
	})
}
