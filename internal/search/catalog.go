// Package search drives a catalog search: the debounced suggestion pipeline,
// the page-by-page result fetcher, and the session read model backed by the
// ephemeral store.
package search

import (
	"context"

	"github.com/comiclist/comiclist/internal/comicvine"
)

// Catalog is the slice of the catalog client the search flow consumes.
// *comicvine.Session satisfies it; tests substitute fakes.
type Catalog interface {
	// SuggestedVolumes returns name-only matches for search-as-you-type.
	SuggestedVolumes(ctx context.Context, query string) ([]comicvine.Volume, error)

	// SearchVolumes returns one page of raw result objects, 1-based.
	SearchVolumes(ctx context.Context, query string, page uint) ([]comicvine.JSONObject, error)
}
