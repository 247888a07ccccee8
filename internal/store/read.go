package store

import (
	"fmt"
	"sync"

	"github.com/comiclist/comiclist/internal/dispatch"
)

// ChangeSet is the effect of one committed write transaction.
type ChangeSet struct {
	seq      uint64
	Inserted []Volume
	Deleted  []int64 // row ids
}

// ReadContext maintains a read-optimized, merged view of a store.
//
// The view is hydrated from the database once, when the context attaches,
// and from then on updated only by change sets merged on the context's
// queue, in commit order; a merge for commit N+1 never lands before commit
// N's. Observers run on the queue, exactly once per merge. The merged view
// itself may be read from any goroutine.
type ReadContext struct {
	store   *Store
	queue   *dispatch.SerialQueue
	changes chan ChangeSet

	mu        sync.RWMutex
	volumes   []Volume // ascending insertion order
	observers []func()

	closeOnce sync.Once
	drained   chan struct{}
}

// ReadContext attaches a read context that merges and notifies on the given
// queue (typically the UI queue). The snapshot it starts from and the
// change-set stream it consumes are consistent: no commit is ever seen in
// both or in neither.
func (s *Store) ReadContext(queue *dispatch.SerialQueue) (*ReadContext, error) {
	r := &ReadContext{
		store:   s,
		queue:   queue,
		changes: make(chan ChangeSet, 16),
		drained: make(chan struct{}),
	}

	s.mu.Lock()
	volumes, err := s.fetchAllLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	r.volumes = volumes
	s.readers = append(s.readers, r)
	s.mu.Unlock()

	go r.run()
	return r, nil
}

// run consumes the single-consumer ordered change channel, dispatching each
// merge to the context's queue and waiting for it before taking the next.
func (r *ReadContext) run() {
	for cs := range r.changes {
		r.queue.Sync(func() {
			r.merge(cs)
		})
	}
	close(r.drained)
}

func (r *ReadContext) merge(cs ChangeSet) {
	r.mu.Lock()
	if len(cs.Deleted) > 0 {
		gone := make(map[int64]bool, len(cs.Deleted))
		for _, rowID := range cs.Deleted {
			gone[rowID] = true
		}
		kept := r.volumes[:0]
		for _, v := range r.volumes {
			if !gone[v.rowID] {
				kept = append(kept, v)
			}
		}
		r.volumes = kept
	}
	// Commit order and insertion-date order coincide, so appending keeps
	// the default sort.
	r.volumes = append(r.volumes, cs.Inserted...)
	observers := append([]func(){}, r.observers...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// Observe registers fn to run on the context's queue after every merge.
func (r *ReadContext) Observe(fn func()) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Count returns the number of volumes in the merged view.
func (r *ReadContext) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.volumes)
}

// VolumeAt returns the volume at position i in default sort order. An
// out-of-range position is a programming error.
func (r *ReadContext) VolumeAt(i int) Volume {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.volumes) {
		panic(fmt.Sprintf("store: position %d out of range (%d results)", i, len(r.volumes)))
	}
	return r.volumes[i]
}

// Volumes returns a copy of the merged view.
func (r *ReadContext) Volumes() []Volume {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Volume(nil), r.volumes...)
}

// Close detaches the context from its store and waits for in-flight merges
// to drain. The queue itself belongs to the caller and stays open.
func (r *ReadContext) Close() {
	r.closeOnce.Do(func() {
		s := r.store
		s.mu.Lock()
		for i, attached := range s.readers {
			if attached == r {
				s.readers = append(s.readers[:i], s.readers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(r.changes)
	})
	<-r.drained
}
