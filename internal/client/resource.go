package client

import (
	"context"
	"sync"
)

// Snapshot is a point-in-time view of a Resource.
type Snapshot[T any] struct {
	Data    T
	Err     error
	Loading bool
}

// Resource holds the outcome of the most recent load of T. Overlapping loads
// are resolved by start order: only the newest load may record its outcome.
type Resource[T any] struct {
	mu      sync.Mutex
	data    T
	err     error
	loading bool
	gen     uint64
}

// Snapshot returns the current data, error and loading flag.
func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot[T]{Data: r.data, Err: r.err, Loading: r.loading}
}

// Load runs fn and records its outcome. The previous error is cleared when the
// load starts; previous data is kept until fn succeeds. A load whose ctx was
// cancelled records nothing, and neither does one superseded by a later Load.
func (r *Resource[T]) Load(ctx context.Context, fn func(context.Context) (T, error)) error {
	gen := r.begin()
	data, err := fn(ctx)
	r.finish(ctx, gen, data, err)
	return err
}

func (r *Resource[T]) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.loading = true
	r.err = nil
	return r.gen
}

func (r *Resource[T]) finish(ctx context.Context, gen uint64, data T, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.loading = false
	switch {
	case err == nil:
		r.data = data
	case ctx.Err() == nil:
		r.err = err
	}
}

// Reset drops data and error and invalidates any load in flight.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.gen++
	r.data = zero
	r.err = nil
	r.loading = false
}
