// Package views holds the data side of every dashboard panel. Each panel
// fetches on its own through a Query; nothing is cached or shared between them.
package views

import (
	"context"
	"sync"

	"bankportal.org/internal/gateway"
	"bankportal.org/internal/obs"
)

// Fetch loads a panel's data from the backend.
type Fetch[T any] func(ctx context.Context) (T, error)

// Result is what a panel renders.
type Result[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Loading bool   `json:"loading"`
}

// Query is one mounted panel fetch.
type Query[T any] struct {
	name     string
	fallback string
	fetch    Fetch[T]

	mu        sync.Mutex
	loading   bool
	data      T
	errMsg    string
	unmounted bool
}

// NewQuery mounts a fetch. fallback is shown when the backend gives no message.
func NewQuery[T any](name, fallback string, fetch Fetch[T]) *Query[T] {
	return &Query[T]{name: name, fallback: fallback, fetch: fetch}
}

// Run fetches once. Loading is cleared however the fetch ends; a result that
// arrives after Unmount or after ctx is done is discarded.
func (q *Query[T]) Run(ctx context.Context) Result[T] {
	q.load(ctx)
	return q.Result()
}

func (q *Query[T]) load(ctx context.Context) {
	q.mu.Lock()
	if q.unmounted {
		q.mu.Unlock()
		return
	}
	q.loading = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.loading = false
		q.mu.Unlock()
	}()

	data, err := q.fetch(ctx)

	q.mu.Lock()
	stale := q.unmounted || ctx.Err() != nil
	if !stale {
		if err != nil {
			q.errMsg = gateway.Message(err, q.fallback)
		} else {
			q.data = data
			q.errMsg = ""
		}
	}
	q.mu.Unlock()

	switch {
	case stale:
		obs.FromContext(ctx).Debug().Str("view", q.name).Msg("dropping result of unmounted view")
	case err != nil:
		obs.FromContext(ctx).Warn().Err(err).Str("view", q.name).Msg("view fetch failed")
	}
}

// Unmount tears the panel down; in-flight results are ignored from now on.
func (q *Query[T]) Unmount() {
	q.mu.Lock()
	q.unmounted = true
	q.mu.Unlock()
}

// Loading reports whether a fetch is in flight.
func (q *Query[T]) Loading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

func (q *Query[T]) Result() Result[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Result[T]{Data: q.data, Error: q.errMsg, Loading: q.loading}
}
