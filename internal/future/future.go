// Package future provides the single-shot promise used by the engine's
// asynchronous render mode.
package future

import "sync"

type outcome[T any] struct {
	val T
	err error
}

// Future is a single-shot result that completes exactly once.
type Future[T any] struct {
	done chan struct{}
	res  outcome[T]
	once sync.Once
}

// Go runs fn in a goroutine and completes the Future when fn returns.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		v, err := fn()
		f.complete(v, err)
	}()
	return f
}

// Resolved creates an already-completed Future holding a value.
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.complete(v, nil)
	return f
}

// Rejected creates an already-completed Future holding an error.
func Rejected[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	var zero T
	f.complete(zero, err)
	return f
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.res = outcome[T]{val: v, err: err}
		close(f.done)
	})
}

// Await blocks until completion and returns the result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.res.val, f.res.err
}
