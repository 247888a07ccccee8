package store

import (
	"fmt"
	"time"

	"github.com/comiclist/comiclist/internal/comicvine"
	"github.com/comiclist/comiclist/internal/dispatch"
	"github.com/comiclist/comiclist/internal/observability"
)

// WriteContext buffers mutations and commits them in one transaction.
//
// Every operation runs on the context's own serial queue, so a write context
// is safe to share across goroutines while still being single-queue
// affinitized. Pending changes live in memory until Save; a failed save
// discards them (rollback) rather than retrying.
//
// The owned-volumes list uses one WriteContext for both reads and writes —
// it is the only reader and writer in its process — so query helpers over
// committed state live here as well.
type WriteContext struct {
	store *Store
	queue *dispatch.SerialQueue
	log   *observability.Logger

	// Touched only on the queue.
	pendingInsert []Volume
	pendingDelete []int64
}

// WriteContext creates a mutation context on its own background queue.
func (s *Store) WriteContext(log *observability.Logger) *WriteContext {
	return &WriteContext{
		store: s,
		queue: dispatch.NewSerialQueue(),
		log:   log,
	}
}

// InsertJSON decodes raw search-result objects into pending volume records.
// The batch is all-or-nothing: an object missing a required field aborts the
// whole batch and leaves nothing newly pending. Insertion dates are assigned
// here, at creation. No identifier dedup happens on this path; the session
// store re-inserts volumes that appear on multiple pages.
func (c *WriteContext) InsertJSON(objs []comicvine.JSONObject) error {
	var err error
	c.queue.Sync(func() {
		now := time.Now()
		records := make([]Volume, 0, len(objs))
		for _, obj := range objs {
			sum, ok := comicvine.DecodeVolumeSummary(obj)
			if !ok {
				err = fmt.Errorf("store: insert batch: object missing required fields")
				return
			}
			records = append(records, newVolume(sum, now))
		}
		c.pendingInsert = append(c.pendingInsert, records...)
	})
	return err
}

// Insert queues a single summary for insertion.
func (c *WriteContext) Insert(sum comicvine.VolumeSummary) {
	c.queue.Sync(func() {
		c.pendingInsert = append(c.pendingInsert, newVolume(sum, time.Now()))
	})
}

// Delete queues the deletion of a previously fetched volume.
func (c *WriteContext) Delete(v Volume) {
	c.queue.Sync(func() {
		if v.rowID != 0 {
			c.pendingDelete = append(c.pendingDelete, v.rowID)
		}
	})
}

// Save commits pending changes in one transaction. On failure the pending
// changes are discarded and the error reported, never retried. On success
// the committed change set is published to the store's read contexts in
// commit order. Saving with nothing pending is a no-op.
func (c *WriteContext) Save() error {
	var err error
	c.queue.Sync(func() {
		err = c.save()
	})
	return err
}

func (c *WriteContext) save() error {
	if len(c.pendingInsert) == 0 && len(c.pendingDelete) == 0 {
		return nil
	}

	// Take ownership of the batch up front: whatever happens below, this
	// context's pending state is clean afterwards.
	inserted := c.pendingInsert
	deleted := c.pendingDelete
	c.pendingInsert = nil
	c.pendingDelete = nil

	s := c.store
	// Holding s.mu across commit and publish keeps a newly attached read
	// context's snapshot consistent with the change-set stream.
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrSave, err)
	}
	for i := range inserted {
		v := &inserted[i]
		res, err := tx.Exec(
			`INSERT INTO volumes (identifier, title, publisher, image_url, insertion_date)
			 VALUES (?, ?, ?, ?, ?)`,
			v.Identifier, v.Title, nullable(v.Publisher), nullable(v.imageURL),
			v.InsertionDate.UnixNano(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: insert volume %d: %v", ErrSave, v.Identifier, err)
		}
		v.rowID, _ = res.LastInsertId()
	}
	for _, rowID := range deleted {
		if _, err := tx.Exec(`DELETE FROM volumes WHERE id = ?`, rowID); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: delete row %d: %v", ErrSave, rowID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrSave, err)
	}

	s.publishLocked(ChangeSet{Inserted: inserted, Deleted: deleted})
	return nil
}

// ContainsIdentifier reports whether a committed volume with the given
// identifier exists (count with an equality predicate, limit 1).
func (c *WriteContext) ContainsIdentifier(identifier int) (bool, error) {
	var (
		count int
		err   error
	)
	c.queue.Sync(func() {
		err = c.store.db.QueryRow(
			`SELECT COUNT(*) FROM (SELECT 1 FROM volumes WHERE identifier = ? LIMIT 1)`,
			identifier,
		).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("store: contains %d: %w", identifier, err)
	}
	return count > 0, nil
}

// FetchByIdentifier returns committed volumes matching identifier, capped at
// limit (0 means no cap), in default sort order.
func (c *WriteContext) FetchByIdentifier(identifier, limit int) ([]Volume, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	var (
		volumes []Volume
		err     error
	)
	c.queue.Sync(func() {
		rows, qerr := c.store.db.Query(
			`SELECT id, identifier, title, publisher, image_url, insertion_date
			 FROM volumes WHERE identifier = ?
			 ORDER BY insertion_date ASC, id ASC LIMIT ?`,
			identifier, limit,
		)
		if qerr != nil {
			err = qerr
			return
		}
		defer rows.Close()
		volumes, err = scanVolumes(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("store: fetch %d: %w", identifier, err)
	}
	return volumes, nil
}

// All returns every committed volume in default sort order.
func (c *WriteContext) All() ([]Volume, error) {
	var (
		volumes []Volume
		err     error
	)
	c.queue.Sync(func() {
		c.store.mu.Lock()
		volumes, err = c.store.fetchAllLocked()
		c.store.mu.Unlock()
	})
	return volumes, err
}

// Close stops the context's queue after draining submitted work.
func (c *WriteContext) Close() {
	c.queue.Close()
}
