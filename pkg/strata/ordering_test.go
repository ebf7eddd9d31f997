package strata

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// appScope mirrors the shape of a generated application scope with two singletons,
// where a depends on b through its constructor.
type appScope struct {
	mu     sync.Mutex
	events []string
	a      Lazy[*singletonA]
	b      Lazy[*singletonB]
}

type singletonA struct{ b *singletonB }
type singletonB struct{}

func (s *appScope) log(e string) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *appScope) A() *singletonA {
	return s.a.Get(func() *singletonA {
		dep := s.B()
		s.log("a:begin")
		return &singletonA{b: dep}
	})
}

func (s *appScope) B() *singletonB {
	return s.b.Get(func() *singletonB {
		s.log("b:begin")
		time.Sleep(10 * time.Millisecond)
		s.log("b:end")
		return &singletonB{}
	})
}

func TestDependencyMaterializesBeforeDependent(t *testing.T) {
	execs := NewExecutors()
	defer execs.Close()

	scope := &appScope{}
	barrier := execs.NewBarrier(2)
	var a *singletonA
	var b *singletonB

	// launch the dependent first
	Go(execs.Background(), func() (*singletonA, error) { return scope.A(), nil }).
		WhenDone(func(r Result[*singletonA]) { barrier.Record("A", r.Err, func() { a = r.Value }) })
	Go(execs.Background(), func() (*singletonB, error) { return scope.B(), nil }).
		WhenDone(func(r Result[*singletonB]) { barrier.Record("B", r.Err, func() { b = r.Value }) })
	barrier.Wait()

	assert.Same(t, b, a.b)
	assert.Equal(t, []string{"b:begin", "b:end", "a:begin"}, scope.events)
}
