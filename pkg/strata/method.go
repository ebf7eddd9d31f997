package strata

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

var methods = struct {
	sync.RWMutex
	byKey map[string]reflect.Value
}{byKey: make(map[string]reflect.Value)}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// RegisterMethod makes a method expression callable through a MethodHandle.
// Generated hook files call it from init in the package declaring the method,
// which is the only place an unexported method can be named.
func RegisterMethod(key string, fn interface{}) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.Type().NumIn() != 1 {
		panic(fmt.Sprintf("strata: RegisterMethod(%q): want func with one receiver argument, got %T", key, fn))
	}
	methods.Lock()
	defer methods.Unlock()
	if _, exists := methods.byKey[key]; exists {
		panic(fmt.Sprintf("strata: method %q registered twice", key))
	}
	methods.byKey[key] = v
}

func lookupMethod(key string) (reflect.Value, bool) {
	methods.RLock()
	defer methods.RUnlock()
	v, ok := methods.byKey[key]
	return v, ok
}

// MethodHandle is a lazily resolved reflective handle to a registered method.
// Resolution happens once, guarded by double-checked locking.
type MethodHandle struct {
	key      string
	resolved atomic.Bool
	mu       sync.Mutex
	fn       reflect.Value
	err      error
}

// NewMethodHandle creates an unresolved handle for key
func NewMethodHandle(key string) *MethodHandle {
	return &MethodHandle{key: key}
}

// Key returns the registration key
func (h *MethodHandle) Key() string {
	return h.key
}

func (h *MethodHandle) resolve() (reflect.Value, error) {
	if h.resolved.Load() {
		return h.fn, h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.resolved.Load() {
		fn, ok := lookupMethod(h.key)
		if !ok {
			h.err = fmt.Errorf("%w: %s", ErrMethodNotRegistered, h.key)
		}
		h.fn = fn
		h.resolved.Store(true)
	}
	return h.fn, h.err
}

// Invoke calls the method on receiver. A trailing error result is returned;
// a panic is returned as a PanicError.
func (h *MethodHandle) Invoke(receiver interface{}) error {
	fn, err := h.resolve()
	if err != nil {
		return err
	}
	recv := reflect.ValueOf(receiver)
	if !recv.IsValid() || !recv.Type().AssignableTo(fn.Type().In(0)) {
		return fmt.Errorf("strata: method %s: receiver %T is not assignable to %s", h.key, receiver, fn.Type().In(0))
	}
	return protect(func() error {
		out := fn.Call([]reflect.Value{recv})
		if n := len(out); n > 0 && fn.Type().Out(n-1).Implements(errorType) {
			if err, _ := out[n-1].Interface().(error); err != nil {
				return err
			}
		}
		return nil
	})
}
