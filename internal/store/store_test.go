package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/comiclist/comiclist/internal/comicvine"
	"github.com/comiclist/comiclist/internal/dispatch"
	"github.com/comiclist/comiclist/internal/observability"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func summary(id int, title string) comicvine.VolumeSummary {
	return comicvine.VolumeSummary{Identifier: id, Title: title}
}

// waitMerge blocks until the read context has applied n more merges.
func waitMerge(t *testing.T, merged <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-merged:
		case <-time.After(5 * time.Second):
			t.Fatalf("merge %d of %d never arrived", i+1, n)
		}
	}
}

func TestStore_SaveAndFetch(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	w.Insert(summary(1, "Akira"))
	w.Insert(summary(2, "Monster"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}

	volumes, err := w.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(volumes) != 2 || volumes[0].Title != "Akira" || volumes[1].Title != "Monster" {
		t.Errorf("volumes = %+v", volumes)
	}
	if volumes[0].rowID == 0 || volumes[1].rowID == 0 {
		t.Error("committed volumes must carry their row ids")
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "durable.sqlite")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	w := s.WriteContext(observability.Nop())
	w.Insert(comicvine.VolumeSummary{
		Identifier:    7,
		Title:         "Bone",
		PublisherName: "Cartoon Books",
		ImageURL:      "https://img.example/bone.jpg",
	})
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	w.Close()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	w2 := s2.WriteContext(observability.Nop())
	defer w2.Close()

	volumes, err := w2.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(volumes) != 1 {
		t.Fatalf("got %d volumes after reopen", len(volumes))
	}
	v := volumes[0]
	if v.Identifier != 7 || v.Title != "Bone" || v.Publisher != "Cartoon Books" {
		t.Errorf("volume = %+v", v)
	}
	if u := v.ImageURL(); u == nil || u.Host != "img.example" {
		t.Errorf("ImageURL() = %v", u)
	}
}

func TestStore_SaveNothingPendingIsNoOp(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	if err := w.Save(); err != nil {
		t.Errorf("empty save: %v", err)
	}
}

func TestWriteContext_InsertJSONAllOrNothing(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	err := w.InsertJSON([]comicvine.JSONObject{
		{"id": float64(1), "name": "good"},
		{"name": "missing id"},
	})
	if err == nil {
		t.Fatal("expected batch error")
	}
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	volumes, err := w.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(volumes) != 0 {
		t.Errorf("aborted batch left %d pending inserts behind", len(volumes))
	}
}

func TestWriteContext_FailedSaveDiscardsPending(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	w.Insert(summary(1, "doomed"))
	s.db.Close() // force the commit to fail

	if err := w.Save(); !errors.Is(err, ErrSave) {
		t.Fatalf("err = %v, want ErrSave", err)
	}

	// Rollback semantics: the batch is gone, not retried.
	var pending int
	w.queue.Sync(func() { pending = len(w.pendingInsert) })
	if pending != 0 {
		t.Errorf("%d inserts still pending after failed save", pending)
	}
}

func TestStore_NoIdentifierDedup(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	// The session store deliberately keeps duplicates across pages.
	w.Insert(summary(42, "page one copy"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	w.Insert(summary(42, "page two copy"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}

	volumes, err := w.FetchByIdentifier(42, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(volumes) != 2 {
		t.Errorf("got %d rows for identifier 42, want 2", len(volumes))
	}
}

func TestWriteContext_ContainsAndFetch(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	if ok, err := w.ContainsIdentifier(5); err != nil || ok {
		t.Fatalf("Contains on empty store = %v, %v", ok, err)
	}

	w.Insert(summary(5, "Usagi Yojimbo"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}

	if ok, err := w.ContainsIdentifier(5); err != nil || !ok {
		t.Fatalf("Contains = %v, %v", ok, err)
	}
	volumes, err := w.FetchByIdentifier(5, 1)
	if err != nil || len(volumes) != 1 {
		t.Fatalf("Fetch = %v, %v", volumes, err)
	}
	if volumes[0].Title != "Usagi Yojimbo" {
		t.Errorf("Title = %q", volumes[0].Title)
	}
}

func TestWriteContext_DeleteRemovesRow(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	w.Insert(summary(9, "gone soon"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	volumes, err := w.FetchByIdentifier(9, 1)
	if err != nil || len(volumes) != 1 {
		t.Fatal(volumes, err)
	}

	w.Delete(volumes[0])
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := w.ContainsIdentifier(9); ok {
		t.Error("deleted volume still present")
	}
}

func TestReadContext_SnapshotThenChangeSets(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	// Committed before the read context attaches: visible via the snapshot.
	w.Insert(summary(1, "before"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}

	queue := dispatch.NewSerialQueue()
	defer queue.Close()
	r, err := s.ReadContext(queue)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	merged := make(chan struct{}, 16)
	r.Observe(func() { merged <- struct{}{} })

	if r.Count() != 1 || r.VolumeAt(0).Title != "before" {
		t.Fatalf("snapshot = %+v", r.Volumes())
	}

	// Committed after attaching: arrives through the change stream,
	// appended in commit order.
	w.Insert(summary(2, "second"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	w.Insert(summary(3, "third"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	waitMerge(t, merged, 2)

	volumes := r.Volumes()
	if len(volumes) != 3 {
		t.Fatalf("got %d volumes", len(volumes))
	}
	for i, want := range []string{"before", "second", "third"} {
		if volumes[i].Title != want {
			t.Errorf("volumes[%d].Title = %q, want %q", i, volumes[i].Title, want)
		}
	}
}

func TestReadContext_MergesDeletes(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	w.Insert(summary(1, "keep"))
	w.Insert(summary(2, "drop"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}

	queue := dispatch.NewSerialQueue()
	defer queue.Close()
	r, err := s.ReadContext(queue)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	merged := make(chan struct{}, 16)
	r.Observe(func() { merged <- struct{}{} })

	victims, err := w.FetchByIdentifier(2, 1)
	if err != nil || len(victims) != 1 {
		t.Fatal(victims, err)
	}
	w.Delete(victims[0])
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	waitMerge(t, merged, 1)

	if r.Count() != 1 || r.VolumeAt(0).Title != "keep" {
		t.Errorf("view = %+v", r.Volumes())
	}
}

func TestReadContext_OneNotificationPerCommit(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	queue := dispatch.NewSerialQueue()
	defer queue.Close()
	r, err := s.ReadContext(queue)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	merged := make(chan struct{}, 16)
	r.Observe(func() { merged <- struct{}{} })

	// One commit with three inserts is one change set and one notification.
	w.Insert(summary(1, "a"))
	w.Insert(summary(2, "b"))
	w.Insert(summary(3, "c"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	waitMerge(t, merged, 1)

	select {
	case <-merged:
		t.Error("more than one notification for a single commit")
	case <-time.After(100 * time.Millisecond):
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d", r.Count())
	}
}

func TestReadContext_CloseDetaches(t *testing.T) {
	s := openTestStore(t)
	w := s.WriteContext(observability.Nop())
	defer w.Close()

	queue := dispatch.NewSerialQueue()
	defer queue.Close()
	r, err := s.ReadContext(queue)
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	r.Close() // idempotent

	// Saving after detach must not block on the closed context.
	w.Insert(summary(1, "late"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenEphemeral_RemovesFileOnClose(t *testing.T) {
	s, err := OpenEphemeral()
	if err != nil {
		t.Fatal(err)
	}
	path := s.Path()

	w := s.WriteContext(observability.Nop())
	w.Insert(summary(1, "transient"))
	if err := w.Save(); err != nil {
		t.Fatal(err)
	}
	w.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("ephemeral database missing while open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("ephemeral database not removed: %v", err)
	}
}

func TestVolume_ImageURL(t *testing.T) {
	v := newVolume(comicvine.VolumeSummary{Identifier: 1, Title: "x"}, time.Now())
	if v.ImageURL() != nil {
		t.Error("absent image must parse to nil")
	}

	v = newVolume(comicvine.VolumeSummary{
		Identifier: 1, Title: "x", ImageURL: "https://img.example/x.jpg",
	}, time.Now())
	if u := v.ImageURL(); u == nil || u.Path != "/x.jpg" {
		t.Errorf("ImageURL() = %v", u)
	}
}
