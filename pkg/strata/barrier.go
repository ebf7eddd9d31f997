package strata

import (
	"sync"
	"time"
)

// Barrier is the fan-in gate of Controllers.Start. It completes exactly once, when
// the number of recorded outcomes reaches the target count.
type Barrier struct {
	target  int
	started time.Time
	observe func(time.Duration, []Outcome)

	mu      sync.Mutex
	results []Outcome
	done    chan struct{}
}

// NewBarrier creates a barrier for target outcomes. A zero target is complete at once.
func NewBarrier(target int) *Barrier {
	b := &Barrier{
		target:  target,
		started: time.Now(),
		results: make([]Outcome, 0, target),
		done:    make(chan struct{}),
	}
	if target <= 0 {
		close(b.done)
	}
	return b
}

// Record appends an outcome. assign, if non-nil, runs under the same lock before the
// count is checked, so slot writes happen before Done is closed.
func (b *Barrier) Record(name string, err error, assign func()) {
	b.mu.Lock()
	if len(b.results) >= b.target {
		b.mu.Unlock()
		return
	}
	if assign != nil {
		assign()
	}
	b.results = append(b.results, Outcome{Name: name, Err: err})
	complete := len(b.results) == b.target
	var snapshot []Outcome
	if complete {
		close(b.done)
		snapshot = append([]Outcome(nil), b.results...)
	}
	b.mu.Unlock()

	if complete && b.observe != nil {
		b.observe(time.Since(b.started), snapshot)
	}
}

// Done is closed once every outcome has been recorded
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the barrier completes
func (b *Barrier) Wait() {
	<-b.done
}

// Results returns a copy of the recorded outcomes in completion order
func (b *Barrier) Results() []Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Outcome(nil), b.results...)
}
