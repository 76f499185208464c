// SPDX-License-Identifier: EPL-2.0

package server

import "sync/atomic"

// RefCounted is a handle that keeps its target alive. Constructing one
// increments a counter owned by the catalog; Release decrements it. The
// target becomes eligible for collection only when the counter reaches
// zero, and collection itself always happens on the server goroutine.
type RefCounted[T any] struct {
	value    *T
	refs     *atomic.Int32
	released atomic.Bool
	onZero   func()
}

func newRefCounted[T any](value *T, refs *atomic.Int32, onZero func()) *RefCounted[T] {
	refs.Add(1)
	return &RefCounted[T]{value: value, refs: refs, onZero: onZero}
}

// Get returns the target. It must not be used after Release.
func (r *RefCounted[T]) Get() *T { return r.value }

// Retain returns a new independent handle to the same target.
func (r *RefCounted[T]) Retain() *RefCounted[T] {
	return newRefCounted(r.value, r.refs, r.onZero)
}

// Release drops this handle. Releasing twice is a no-op.
func (r *RefCounted[T]) Release() {
	if r.released.Swap(true) {
		return
	}
	if r.refs.Add(-1) == 0 && r.onZero != nil {
		r.onZero()
	}
}
