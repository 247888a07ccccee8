package search

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/comiclist/comiclist/internal/comicvine"
	"github.com/comiclist/comiclist/internal/dispatch"
	"github.com/comiclist/comiclist/internal/observability"
	"github.com/comiclist/comiclist/internal/store"
)

// Session is one search: it owns the ephemeral result store, a write and a
// read context over it, and the pagination controller, and exposes the
// read-model projection the UI layer consumes.
//
// The session store caches results across pages for the session's lifetime
// and is deleted on Close. It performs no identifier dedup: a volume
// appearing on two pages shows up twice.
type Session struct {
	id      uuid.UUID
	query   string
	store   *store.Store
	write   *store.WriteContext
	read    *store.ReadContext
	pages   *PaginationController
	ui      *dispatch.SerialQueue
	log     *observability.Logger
	loading atomic.Bool
}

// NewSession opens a fresh session store for query. Deliveries and
// results-changed notifications land on the UI queue.
func NewSession(catalog Catalog, query string, ui *dispatch.SerialQueue, log *observability.Logger) (*Session, error) {
	st, err := store.OpenEphemeral()
	if err != nil {
		return nil, fmt.Errorf("search: open session store: %w", err)
	}

	write := st.WriteContext(log)
	read, err := st.ReadContext(ui)
	if err != nil {
		write.Close()
		st.Close()
		return nil, fmt.Errorf("search: attach read context: %w", err)
	}

	s := &Session{
		id:    uuid.New(),
		query: query,
		store: st,
		write: write,
		read:  read,
		ui:    ui,
		log:   log,
	}
	s.pages = NewPaginationController(catalog, query, write, ui, log)
	return s, nil
}

// ID returns the session's identity.
func (s *Session) ID() uuid.UUID { return s.id }

// Query returns the search query this session was opened for.
func (s *Session) Query() string { return s.query }

// CurrentPage returns the page the next fetch will request.
func (s *Session) CurrentPage() uint { return s.pages.CurrentPage() }

// NumberOfResults returns the size of the merged result view.
func (s *Session) NumberOfResults() int { return s.read.Count() }

// ResultAt projects the result at position i into its list-cell form.
func (s *Session) ResultAt(i int) comicvine.SearchResult {
	return s.read.VolumeAt(i).SearchResult()
}

// SummaryAt projects the result at position i into the summary handed to
// the detail screen and the owned list.
func (s *Session) SummaryAt(i int) comicvine.VolumeSummary {
	return s.read.VolumeAt(i).Summary()
}

// SetOnResultsChanged registers fn to run on the UI queue after each merge
// of committed results into the read view.
func (s *Session) SetOnResultsChanged(fn func()) {
	s.read.Observe(fn)
}

// NextPage triggers the next page fetch. It reports false, without calling
// done, when a fetch is already in flight.
func (s *Session) NextPage(done func(error)) bool {
	if !s.loading.CompareAndSwap(false, true) {
		return false
	}
	s.pages.NextPage(func(err error) {
		s.loading.Store(false)
		if done != nil {
			done(err)
		}
	})
	return true
}

// Close tears down both contexts and deletes the session database.
func (s *Session) Close() error {
	s.write.Close()
	s.read.Close()
	return s.store.Close()
}
