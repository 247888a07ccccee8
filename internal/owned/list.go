// Package owned maintains the user's saved volume list in a durable store.
package owned

import (
	"fmt"
	"path/filepath"

	"github.com/comiclist/comiclist/internal/comicvine"
	"github.com/comiclist/comiclist/internal/observability"
	"github.com/comiclist/comiclist/internal/store"
)

// documentName is the fixed file name of the owned-volumes database inside
// the data directory.
const documentName = "comics.sqlite"

// List is the owned-volumes store. The composition root constructs exactly
// one per process and passes it to whoever needs it; it is the only reader
// and writer of its database, so a single context serves both roles.
type List struct {
	store *store.Store
	ctx   *store.WriteContext
	log   *observability.Logger
}

// Open opens (or creates) the owned-volumes database under dataDir.
func Open(dataDir string, log *observability.Logger) (*List, error) {
	st, err := store.Open(filepath.Join(dataDir, documentName))
	if err != nil {
		return nil, fmt.Errorf("owned: %w", err)
	}
	return &List{
		store: st,
		ctx:   st.WriteContext(log),
		log:   log,
	}, nil
}

// Contains reports whether the volume with the given identifier is saved.
func (l *List) Contains(identifier int) (bool, error) {
	return l.ctx.ContainsIdentifier(identifier)
}

// Add saves one volume and commits immediately.
func (l *List) Add(summary comicvine.VolumeSummary) error {
	l.ctx.Insert(summary)
	if err := l.ctx.Save(); err != nil {
		return fmt.Errorf("owned: add %d: %w", summary.Identifier, err)
	}
	return nil
}

// Remove deletes the volume with the given identifier, committing
// immediately. Removing an absent identifier is a successful no-op.
func (l *List) Remove(identifier int) error {
	volumes, err := l.ctx.FetchByIdentifier(identifier, 1)
	if err != nil {
		return fmt.Errorf("owned: remove %d: %w", identifier, err)
	}
	if len(volumes) == 0 {
		return nil
	}
	l.ctx.Delete(volumes[0])
	if err := l.ctx.Save(); err != nil {
		return fmt.Errorf("owned: remove %d: %w", identifier, err)
	}
	return nil
}

// Toggle adds the volume when absent and removes it when present,
// reporting whether it ended up saved.
func (l *List) Toggle(summary comicvine.VolumeSummary) (added bool, err error) {
	saved, err := l.Contains(summary.Identifier)
	if err != nil {
		return false, err
	}
	if saved {
		return false, l.Remove(summary.Identifier)
	}
	return true, l.Add(summary)
}

// All returns every saved volume as a summary, oldest first.
func (l *List) All() ([]comicvine.VolumeSummary, error) {
	volumes, err := l.ctx.All()
	if err != nil {
		return nil, fmt.Errorf("owned: list: %w", err)
	}
	summaries := make([]comicvine.VolumeSummary, 0, len(volumes))
	for _, v := range volumes {
		summaries = append(summaries, v.Summary())
	}
	return summaries, nil
}

// Close releases the context and the underlying database.
func (l *List) Close() error {
	l.ctx.Close()
	return l.store.Close()
}
