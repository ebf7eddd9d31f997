package strata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type tracked struct {
	name       string
	started    *Task[struct{}]
	preDestroy *Chain
}

// Lifecycle follows the instances a scope materialized: it starts their
// post-construct chains and runs their pre-destroy chains on Close, newest first.
type Lifecycle struct {
	execs *Executors

	mu      sync.Mutex
	entries []*tracked
	byName  map[string]*tracked
	closed  bool
}

// NewLifecycle creates a tracker posting chains to execs
func NewLifecycle(execs *Executors) *Lifecycle {
	return &Lifecycle{
		execs:  execs,
		byName: make(map[string]*tracked),
	}
}

// Executors returns the registry chains are posted to
func (l *Lifecycle) Executors() *Executors {
	return l.execs
}

// Track starts postConstruct for the named instance and remembers preDestroy.
// Either chain may be nil.
func (l *Lifecycle) Track(name string, postConstruct, preDestroy *Chain) *Task[struct{}] {
	task := postConstruct.Run(l.execs)
	entry := &tracked{name: name, started: task, preDestroy: preDestroy}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		Logger().Warn("instance materialized after scope close", zap.String("instance", name))
	}
	l.entries = append(l.entries, entry)
	l.byName[name] = entry
	task.WhenDone(func(r Result[struct{}]) {
		if !r.Ok() {
			Logger().Error("post-construct chain failed", zap.String("instance", name), zap.Error(r.Err))
		}
	})
	return task
}

// Started returns the post-construct task of the most recent instance tracked
// under name. Untracked names get an already successful task.
func (l *Lifecycle) Started(name string) *Task[struct{}] {
	l.mu.Lock()
	entry, ok := l.byName[name]
	l.mu.Unlock()
	if !ok {
		return (*Chain)(nil).Run(l.execs)
	}
	return entry.started
}

// Await blocks until the post-construct chain of name has finished. Untracked
// names report success.
func (l *Lifecycle) Await(name string) Result[struct{}] {
	return l.Started(name).Wait()
}

// Close waits for running post-construct chains, then runs every pre-destroy
// chain sequentially in reverse materialization order. Failed post-construct
// chains do not skip pre-destroy; their errors are joined with the pre-destroy
// failures into the returned error.
func (l *Lifecycle) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	entries := append([]*tracked(nil), l.entries...)
	l.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		g.Go(func() error {
			_, err := entry.started.WaitContext(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("strata: waiting for post-construct chains: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if r, _ := entry.started.Peek(); !r.Ok() {
			errs = append(errs, fmt.Errorf("%s: post-construct: %w", entry.name, r.Err))
		}
	}
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.preDestroy.Len() == 0 {
			continue
		}
		result, err := entry.preDestroy.Run(l.execs).WaitContext(ctx)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		if !result.Ok() {
			errs = append(errs, fmt.Errorf("%s: pre-destroy: %w", entry.name, result.Err))
		}
	}
	return errors.Join(errs...)
}
