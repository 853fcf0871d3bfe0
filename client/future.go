package client

import (
	"context"

	"pkt.systems/robocore/status"
)

// Result pairs the outcome of a call with its response. Response may be an
// empty message when Status is not OK.
type Result[T any] struct {
	Status   status.Status
	Response T
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Status.OK() }

// Err returns nil on success and the Status otherwise.
func (r Result[T]) Err() error { return r.Status.Err() }

// Future is a write-once Result shared by any number of waiters.
type Future[T any] struct {
	done   chan struct{}
	result Result[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future that is already complete.
func Resolved[T any](r Result[T]) *Future[T] {
	f := newFuture[T]()
	f.resolve(r)
	return f
}

func (f *Future[T]) resolve(r Result[T]) {
	f.result = r
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx ends. When ctx ends first
// the returned Result carries the mapped context error; the call itself keeps
// running until its own timeout.
func (f *Future[T]) Wait(ctx context.Context) Result[T] {
	select {
	case <-f.done:
		return f.result
	default:
	}
	select {
	case <-f.done:
		return f.result
	case <-ctx.Done():
		return Result[T]{Status: status.FromError(ctx.Err())}
	}
}

// Get is Wait split into response and error.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	r := f.Wait(ctx)
	return r.Response, r.Err()
}
