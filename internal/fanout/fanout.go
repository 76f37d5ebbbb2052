// Package fanout runs independent queries concurrently and keeps every
// outcome, successful or not.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result holds either a value or the error that prevented it.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the query succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Query is one independent sub-query.
type Query[T any] func(ctx context.Context) (T, error)

// Run executes all queries concurrently and waits for them. A failing
// query does not cancel the others; its error is kept in its Result.
// Results are returned in the order of queries.
func Run[T any](ctx context.Context, queries ...Query[T]) []Result[T] {
	results := make([]Result[T], len(queries))
	var g errgroup.Group
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			v, err := q(ctx)
			results[i] = Result[T]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Go starts a single query and returns a function that waits for it.
// It lets callers fan out queries of different result types.
func Go[T any](ctx context.Context, g *errgroup.Group, q Query[T]) func() Result[T] {
	var r Result[T]
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		r.Value, r.Err = q(ctx)
		return nil
	})
	return func() Result[T] {
		<-done
		return r
	}
}
