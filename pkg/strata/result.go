package strata

// Result is the tagged outcome of an asynchronous operation. A non-nil Err
// marks a failure; Value is the zero value in that case.
type Result[T any] struct {
	Value T
	Err   error
}

// Success wraps a value as a successful result
func Success[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Failure wraps an error as a failed result
func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Ok reports whether the result is tagged as a success
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Get unpacks the result into the usual value, error pair
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Outcome is the untyped result recorded by a Barrier for one named unit of work
type Outcome struct {
	Name string
	Err  error
}

// Ok reports whether the outcome is a success
func (o Outcome) Ok() bool {
	return o.Err == nil
}
