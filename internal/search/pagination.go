package search

import (
	"context"
	"sync"

	"github.com/comiclist/comiclist/internal/dispatch"
	"github.com/comiclist/comiclist/internal/observability"
	"github.com/comiclist/comiclist/internal/store"
)

// PaginationController fetches successive result pages for one query and
// commits them to a write context.
//
// It does not coalesce concurrent calls: callers must keep at most one
// NextPage in flight (the session read model enforces that by only
// triggering another page when not already loading).
type PaginationController struct {
	catalog Catalog
	query   string
	write   *store.WriteContext
	ui      *dispatch.SerialQueue
	log     *observability.Logger

	mu   sync.Mutex
	page uint // next page to fetch, 1-based
}

// NewPaginationController creates a controller starting at page 1.
func NewPaginationController(catalog Catalog, query string, write *store.WriteContext, ui *dispatch.SerialQueue, log *observability.Logger) *PaginationController {
	return &PaginationController{
		catalog: catalog,
		query:   query,
		write:   write,
		ui:      ui,
		log:     log,
		page:    1,
	}
}

// CurrentPage returns the page the next fetch will request.
func (p *PaginationController) CurrentPage() uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// NextPage fetches the current page, inserts the decoded records into the
// write context, and saves. The completion callback runs on the UI queue
// once everything has resolved; its error is non-nil only for fetch-layer
// failures. A page fetch, once started, runs to completion or failure —
// there is no cancellation here.
func (p *PaginationController) NextPage(done func(error)) {
	go func() {
		err := p.fetchAndStore()
		p.ui.Async(func() {
			if done != nil {
				done(err)
			}
		})
	}()
}

func (p *PaginationController) fetchAndStore() error {
	p.mu.Lock()
	page := p.page
	p.mu.Unlock()

	dicts, err := p.catalog.SearchVolumes(context.Background(), p.query, page)
	if err != nil {
		// Fetch errors surface through the completion callback; the page
		// counter stays put so the next trigger retries the same page.
		return err
	}

	if err := p.write.InsertJSON(dicts); err != nil {
		return err
	}
	if err := p.write.Save(); err != nil {
		// The write context already rolled back. Logged, not retried, and
		// not surfaced: a later NextPage retries this page number.
		p.log.Error("saving search results failed", "query", p.query, "page", page, "error", err)
		return nil
	}

	p.mu.Lock()
	p.page++
	p.mu.Unlock()
	return nil
}
