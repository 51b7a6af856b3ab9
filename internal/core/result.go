package core

// Result carries either a constructed entity or the reason it could not be
// built.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value returns the entity, or the zero value when the result is an error.
func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() error {
	return r.err
}

// Unwrap bridges a Result into the usual (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}
