// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	t.Parallel()

	p := newWorkerPool(3)
	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		if !p.Submit(func() { ran.Add(1) }) {
			t.Fatal("Submit returned false on open pool")
		}
	}
	p.Close()
	if ran.Load() != 20 {
		t.Fatalf("ran = %d, want 20", ran.Load())
	}
}

func TestWorkerPool_SubmitNeverBlocks(t *testing.T) {
	t.Parallel()

	// All workers are stuck; submissions must still return immediately
	// no matter how deep the backlog gets.
	gate := make(chan struct{})
	p := newWorkerPool(2)
	p.Submit(func() { <-gate })
	p.Submit(func() { <-gate })

	var ran atomic.Int32
	for i := 0; i < 1000; i++ {
		if !p.Submit(func() { ran.Add(1) }) {
			t.Fatal("Submit returned false on open pool")
		}
	}

	close(gate)
	p.Close()
	if ran.Load() != 1000 {
		t.Fatalf("ran = %d, want 1000", ran.Load())
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	t.Parallel()

	p := newWorkerPool(1)
	p.Close()
	if p.Submit(func() {}) {
		t.Fatal("Submit after Close should report false")
	}
	// Closing twice is safe.
	p.Close()
}
