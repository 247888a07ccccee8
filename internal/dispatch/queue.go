// Package dispatch provides serial execution queues.
//
// A SerialQueue runs submitted functions on a single goroutine, one at a
// time, in submission order. The store contexts and the UI-facing delivery
// path are each affinitized to one queue; ordering guarantees between them
// reduce to message passing over these queues.
package dispatch

import "sync"

// SerialQueue is a FIFO single-goroutine executor.
type SerialQueue struct {
	work chan func()
	done chan struct{}
	once sync.Once
}

// NewSerialQueue creates a queue and starts its goroutine.
func NewSerialQueue() *SerialQueue {
	q := &SerialQueue{
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	for fn := range q.work {
		fn()
	}
	close(q.done)
}

// Async schedules fn without waiting for it to run.
// Must not be called after Close.
func (q *SerialQueue) Async(fn func()) {
	q.work <- fn
}

// Sync schedules fn and waits until it has finished.
// Calling Sync from the queue's own goroutine deadlocks.
func (q *SerialQueue) Sync(fn func()) {
	ran := make(chan struct{})
	q.work <- func() {
		fn()
		close(ran)
	}
	<-ran
}

// Close stops the queue after draining previously submitted work and waits
// for the goroutine to exit. Close is idempotent.
func (q *SerialQueue) Close() {
	q.once.Do(func() {
		close(q.work)
	})
	<-q.done
}
