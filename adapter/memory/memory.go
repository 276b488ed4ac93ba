// Package memory provides the two reference adapters this module ships
// for its own tests and the gobatchctl demo CLI: a Reader over an
// in-memory slice and a Writer that collects committed chunks into one.
// Concrete adapters for real data sources (CSV, JSON, relational, FTP,
// ...) are out of scope for this package; see the root package's
// contracts for the interfaces any such adapter must satisfy.
package memory

import (
	"context"
	"sync"

	"github.com/mrz1836/gobatch"
)

// SliceReader replays a fixed, in-memory slice of items in order, one per
// Read call, signaling end-of-stream once exhausted. Safe for a single
// step's lifetime; not safe to share across concurrent steps.
type SliceReader[T any] struct {
	items []T
	i     int
}

// NewSliceReader builds a SliceReader over items. The slice is not
// copied; callers must not mutate it while a step is reading from it.
func NewSliceReader[T any](items []T) *SliceReader[T] {
	return &SliceReader[T]{items: items}
}

// Read implements gobatch.Reader.
func (r *SliceReader[T]) Read(_ context.Context) (T, bool, error) {
	var zero T
	if r.i >= len(r.items) {
		return zero, false, nil
	}
	item := r.items[r.i]
	r.i++
	return item, true, nil
}

// Ensure SliceReader implements gobatch.Reader.
var _ gobatch.Reader[int] = (*SliceReader[int])(nil)

// SliceWriter accumulates every committed chunk into a single slice, in
// commit order. Safe for concurrent Write calls, though the chunk-mode
// step driver never makes them concurrently itself.
type SliceWriter[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewSliceWriter builds an empty SliceWriter.
func NewSliceWriter[T any]() *SliceWriter[T] {
	return &SliceWriter[T]{}
}

// Write implements gobatch.Writer.
func (w *SliceWriter[T]) Write(_ context.Context, chunk []T) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, chunk...)
	return nil
}

// Items returns every item committed so far, in commit order. The
// returned slice is a copy; mutating it does not affect the writer.
func (w *SliceWriter[T]) Items() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}

// Ensure SliceWriter implements gobatch.Writer.
var _ gobatch.Writer[int] = (*SliceWriter[int])(nil)
