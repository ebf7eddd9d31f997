package strata

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// MainExecutor is the default tag of lifecycle continuations
	MainExecutor = "main"

	// BackgroundExecutor runs singleton construction and async method wrappers
	BackgroundExecutor = "background"
)

// Executor is a named execution context work can be posted to
type Executor interface {
	Post(fn func()) error
}

// SerialExecutor runs posted work one item at a time, in posting order, on a
// dedicated goroutine. Posting never blocks, so work running on the executor may
// post follow-up work to it.
type SerialExecutor struct {
	name   string
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts a serial executor
func NewSerialExecutor(name string) *SerialExecutor {
	e := &SerialExecutor{
		name: name,
		done: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.loop()
	return e
}

// Post queues fn
func (e *SerialExecutor) Post(fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("%w: %s", ErrExecutorClosed, e.name)
	}
	e.queue = append(e.queue, fn)
	e.cond.Signal()
	return nil
}

// Close stops accepting work, drains the queue and stops the goroutine
func (e *SerialExecutor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return nil
	}
	e.closed = true
	e.cond.Signal()
	e.mu.Unlock()
	<-e.done
	return nil
}

func (e *SerialExecutor) loop() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		runLogged(e.name, fn)
	}
}

// PoolExecutor runs posted work on goroutines, at most limit at a time
type PoolExecutor struct {
	name   string
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewPoolExecutor creates a pool executor; limit <= 0 means runtime.NumCPU()
func NewPoolExecutor(name string, limit int) *PoolExecutor {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &PoolExecutor{
		name: name,
		sem:  semaphore.NewWeighted(int64(limit)),
	}
}

// Post schedules fn
func (e *PoolExecutor) Post(fn func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return fmt.Errorf("%w: %s", ErrExecutorClosed, e.name)
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			Logger().Error("executor acquire failed", zap.String("executor", e.name), zap.Error(err))
			return
		}
		defer e.sem.Release(1)
		runLogged(e.name, fn)
	}()
	return nil
}

// Close stops accepting work and waits for in-flight work
func (e *PoolExecutor) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}

func runLogged(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("panic in posted work", zap.String("executor", name), zap.Any("panic", r))
		}
	}()
	fn()
}

// Executors is the registry of named execution contexts shared by generated code
type Executors struct {
	mu      sync.RWMutex
	byName  map[string]Executor
	order   []string
	metrics *Metrics
}

// ExecutorsOption configures NewExecutors
type ExecutorsOption func(*executorsConfig)

type executorsConfig struct {
	backgroundLimit int
	metrics         *Metrics
	main            Executor
}

// WithBackgroundLimit bounds the concurrency of the background executor
func WithBackgroundLimit(limit int) ExecutorsOption {
	return func(c *executorsConfig) { c.backgroundLimit = limit }
}

// WithMetrics instruments the registry
func WithMetrics(m *Metrics) ExecutorsOption {
	return func(c *executorsConfig) { c.metrics = m }
}

// WithMainExecutor replaces the default serial main executor, e.g. with a UI loop
func WithMainExecutor(exec Executor) ExecutorsOption {
	return func(c *executorsConfig) { c.main = exec }
}

// NewExecutors creates a registry holding the main and background executors
func NewExecutors(opts ...ExecutorsOption) *Executors {
	cfg := &executorsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Executors{
		byName:  make(map[string]Executor),
		metrics: cfg.metrics,
	}
	main := cfg.main
	if main == nil {
		main = NewSerialExecutor(MainExecutor)
	}
	e.Register(MainExecutor, main)
	e.Register(BackgroundExecutor, NewPoolExecutor(BackgroundExecutor, cfg.backgroundLimit))
	return e
}

// Register adds or replaces a named executor
func (e *Executors) Register(name string, exec Executor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.byName[name]; !exists {
		e.order = append(e.order, name)
	}
	e.byName[name] = exec
}

// Get returns the executor registered under name
func (e *Executors) Get(name string) (Executor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	exec, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExecutor, name)
	}
	return instrumented{name: name, exec: exec, metrics: e.metrics}, nil
}

// Post posts fn to the named executor
func (e *Executors) Post(name string, fn func()) error {
	exec, err := e.Get(name)
	if err != nil {
		return err
	}
	return exec.Post(fn)
}

// Main returns the main executor
func (e *Executors) Main() Executor {
	exec, _ := e.Get(MainExecutor)
	return exec
}

// Background returns the background executor
func (e *Executors) Background() Executor {
	exec, _ := e.Get(BackgroundExecutor)
	return exec
}

// NewBarrier creates a startup barrier that reports to the registry metrics
func (e *Executors) NewBarrier(target int) *Barrier {
	b := NewBarrier(target)
	if e.metrics != nil {
		b.observe = e.metrics.observeStartup
	}
	return b
}

// Close closes every executor that supports it, in reverse registration order
func (e *Executors) Close() error {
	e.mu.RLock()
	names := append([]string(nil), e.order...)
	e.mu.RUnlock()

	var firstErr error
	for i := len(names) - 1; i >= 0; i-- {
		e.mu.RLock()
		exec := e.byName[names[i]]
		e.mu.RUnlock()
		closer, ok := exec.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type instrumented struct {
	name    string
	exec    Executor
	metrics *Metrics
}

func (i instrumented) Post(fn func()) error {
	if i.metrics == nil {
		return i.exec.Post(fn)
	}
	err := i.exec.Post(fn)
	i.metrics.posted(i.name, err)
	return err
}
