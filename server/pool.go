// SPDX-License-Identifier: EPL-2.0

package server

import "sync"

// workerPool runs submitted tasks on a fixed set of goroutines. Audio
// decode, library read and folder scan jobs all share one pool. The
// task queue is unbounded so Submit never blocks the caller; the server
// goroutine must be able to queue a scan backlog of any size while the
// workers are busy.
type workerPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	wg sync.WaitGroup
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	p.mu.Lock()
	for {
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task()

		p.mu.Lock()
	}
}

// Submit queues a task without blocking. It reports false if the pool
// is closed.
func (p *workerPool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return true
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *workerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// resultQueue is an unbounded many-producer queue drained by the server
// goroutine. Pushing never blocks, so workers always finish their jobs
// and the server never stalls while queueing a large backlog.
type resultQueue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *resultQueue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

func (q *resultQueue[T]) drain() []T {
	q.mu.Lock()
	out := q.items
	q.items = nil
	q.mu.Unlock()
	return out
}
