package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/comiclist/comiclist/internal/comicvine"
	"github.com/comiclist/comiclist/internal/dispatch"
	"github.com/comiclist/comiclist/internal/observability"
	"github.com/comiclist/comiclist/internal/store"
)

func resultObject(id int, name string) comicvine.JSONObject {
	return comicvine.JSONObject{"id": float64(id), "name": name}
}

func newTestController(t *testing.T, catalog Catalog) (*PaginationController, *store.WriteContext) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "pages.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	write := st.WriteContext(observability.Nop())
	ui := dispatch.NewSerialQueue()
	t.Cleanup(func() {
		write.Close()
		st.Close()
		ui.Close()
	})
	return NewPaginationController(catalog, "batman", write, ui, observability.Nop()), write
}

func nextPage(t *testing.T, p *PaginationController) error {
	t.Helper()
	done := make(chan error, 1)
	p.NextPage(func(err error) { done <- err })
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("page fetch never completed")
		return nil
	}
}

func TestPaginationController_AdvancesOnSuccess(t *testing.T) {
	catalog := &fakeCatalog{
		searchFn: func(ctx context.Context, query string, page uint) ([]comicvine.JSONObject, error) {
			return []comicvine.JSONObject{
				resultObject(int(page)*10+1, fmt.Sprintf("page %d first", page)),
				resultObject(int(page)*10+2, fmt.Sprintf("page %d second", page)),
			}, nil
		},
	}
	p, write := newTestController(t, catalog)

	if p.CurrentPage() != 1 {
		t.Fatalf("CurrentPage = %d at start", p.CurrentPage())
	}
	if err := nextPage(t, p); err != nil {
		t.Fatal(err)
	}
	if p.CurrentPage() != 2 {
		t.Errorf("CurrentPage = %d after one fetch", p.CurrentPage())
	}
	if err := nextPage(t, p); err != nil {
		t.Fatal(err)
	}

	volumes, err := write.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(volumes) != 4 {
		t.Fatalf("stored %d volumes, want 4", len(volumes))
	}
	// Pages land in request order.
	if volumes[0].Title != "page 1 first" || volumes[3].Title != "page 2 second" {
		t.Errorf("order = %q ... %q", volumes[0].Title, volumes[3].Title)
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	if len(catalog.searchCalls) != 2 || catalog.searchCalls[0] != 1 || catalog.searchCalls[1] != 2 {
		t.Errorf("requested pages %v", catalog.searchCalls)
	}
}

func TestPaginationController_FetchErrorKeepsPage(t *testing.T) {
	boom := errors.New("catalog down")
	catalog := &fakeCatalog{
		searchFn: func(ctx context.Context, query string, page uint) ([]comicvine.JSONObject, error) {
			return nil, boom
		},
	}
	p, write := newTestController(t, catalog)

	if err := nextPage(t, p); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the fetch error", err)
	}
	if p.CurrentPage() != 1 {
		t.Errorf("CurrentPage = %d, want 1 (retry same page)", p.CurrentPage())
	}
	if volumes, _ := write.All(); len(volumes) != 0 {
		t.Errorf("failed fetch stored %d volumes", len(volumes))
	}
}

func TestPaginationController_UndecodableBatchKeepsPage(t *testing.T) {
	catalog := &fakeCatalog{
		searchFn: func(ctx context.Context, query string, page uint) ([]comicvine.JSONObject, error) {
			return []comicvine.JSONObject{{"name": "no id"}}, nil
		},
	}
	p, write := newTestController(t, catalog)

	if err := nextPage(t, p); err == nil {
		t.Fatal("expected a batch decode error")
	}
	if p.CurrentPage() != 1 {
		t.Errorf("CurrentPage = %d, want 1", p.CurrentPage())
	}
	if volumes, _ := write.All(); len(volumes) != 0 {
		t.Errorf("aborted batch stored %d volumes", len(volumes))
	}
}

func TestPaginationController_DuplicatesAcrossPagesAreKept(t *testing.T) {
	catalog := &fakeCatalog{
		searchFn: func(ctx context.Context, query string, page uint) ([]comicvine.JSONObject, error) {
			// The catalog repeats a volume on every page.
			return []comicvine.JSONObject{resultObject(42, "The Boys")}, nil
		},
	}
	p, write := newTestController(t, catalog)

	if err := nextPage(t, p); err != nil {
		t.Fatal(err)
	}
	if err := nextPage(t, p); err != nil {
		t.Fatal(err)
	}

	volumes, err := write.FetchByIdentifier(42, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(volumes) != 2 {
		t.Errorf("got %d rows for the repeated volume, want 2", len(volumes))
	}
}
