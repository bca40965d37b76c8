package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"pocketnote/pkg/models"
	"pocketnote/pkg/storage"
)

// newTestService builds an initialized service over an in-memory backend
// with a deterministic clock and id sequence.
func newTestService(t *testing.T) (*NoteService, *storage.MemStore) {
	t.Helper()

	kv := storage.NewMemStore(0)
	svc := serviceOver(kv)
	svc.Initialize()
	if !svc.Ready() {
		t.Fatal("service not ready after initialize")
	}
	return svc, kv
}

func serviceOver(kv storage.KV) *NoteService {
	svc := NewNoteService(storage.NewGateway(kv, ""))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ticks int64
	svc.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}

	var seq int
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("note-%d", seq)
	}
	return svc
}

func TestAddNoteThenFilterByCategory(t *testing.T) {
	svc, _ := newTestService(t)

	note := svc.AddNote(models.NoteDraft{
		Title:    "A",
		Content:  "x",
		Category: models.CategoryWork,
	})

	if note.ID == "" {
		t.Fatal("no id assigned")
	}
	if !note.CreatedAt.Equal(note.UpdatedAt) {
		t.Fatalf("createdAt %v != updatedAt %v on creation", note.CreatedAt, note.UpdatedAt)
	}

	svc.SetActiveCategory(models.FilterBy(models.CategoryWork))
	got := svc.FilteredNotes()
	if len(got) != 1 || got[0].ID != note.ID {
		t.Fatalf("filtered view = %v, want just %s", ids(got), note.ID)
	}

	svc.SetActiveCategory(models.FilterBy(models.CategoryFamily))
	if got := svc.FilteredNotes(); len(got) != 0 {
		t.Fatalf("family filter should be empty, got %v", ids(got))
	}
}

func TestAddNotePrependsNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)

	svc.AddNote(models.NoteDraft{Title: "first"})
	svc.AddNote(models.NoteDraft{Title: "second"})

	notes := svc.Notes()
	if len(notes) != 2 || notes[0].Title != "second" {
		t.Fatalf("expected newest first, got %v", ids(notes))
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	svc, _ := newTestService(t)

	note := svc.AddNote(models.NoteDraft{Title: "N"})

	if !svc.DeleteNote(note.ID) {
		t.Fatal("delete reported failure")
	}
	if got := svc.FilteredNotes(); len(got) != 0 {
		t.Fatalf("deleted note still visible: %v", ids(got))
	}
	if all := svc.Notes(); len(all) != 1 || !all[0].IsDeleted {
		t.Fatal("soft-deleted note should remain in the collection, flagged")
	}

	if !svc.RestoreNote(note.ID) {
		t.Fatal("restore reported failure")
	}
	got := svc.FilteredNotes()
	if len(got) != 1 || got[0].IsDeleted {
		t.Fatalf("restored note missing or still flagged: %v", got)
	}
}

func TestPermanentDelete(t *testing.T) {
	svc, _ := newTestService(t)

	note := svc.AddNote(models.NoteDraft{Title: "N"})
	svc.DeleteNote(note.ID)

	if !svc.PermanentlyDeleteNote(note.ID) {
		t.Fatal("permanent delete reported failure")
	}
	if all := svc.Notes(); len(all) != 0 {
		t.Fatalf("note still in collection: %v", ids(all))
	}
	if svc.RestoreNote(note.ID) {
		t.Fatal("restore after permanent delete should be a no-op")
	}
}

func TestUpdateNote(t *testing.T) {
	svc, _ := newTestService(t)

	note := svc.AddNote(models.NoteDraft{Title: "old", Content: "body"})

	newTitle := "new"
	updated, ok := svc.UpdateNote(note.ID, models.NotePatch{Title: &newTitle})
	if !ok {
		t.Fatal("update reported not found")
	}
	if updated.Title != "new" || updated.Content != "body" {
		t.Fatalf("patch merged wrong: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatal("updatedAt not bumped past createdAt")
	}
}

func TestMutationsOnMissingIDAreNoOps(t *testing.T) {
	svc, _ := newTestService(t)
	svc.AddNote(models.NoteDraft{Title: "keep"})
	before := svc.Notes()

	title := "x"
	if _, ok := svc.UpdateNote("missing", models.NotePatch{Title: &title}); ok {
		t.Error("update on missing id should report false")
	}
	for _, op := range []func(string) bool{
		svc.DeleteNote, svc.RestoreNote, svc.PinNote, svc.UnpinNote, svc.PermanentlyDeleteNote,
	} {
		if op("missing") {
			t.Error("id-keyed mutation on missing id should report false")
		}
	}

	after := svc.Notes()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatal("collection changed by missing-id mutations")
	}
}

func TestPinSortsBeforeUnpinned(t *testing.T) {
	svc, _ := newTestService(t)

	oldest := svc.AddNote(models.NoteDraft{Title: "oldest"})
	svc.AddNote(models.NoteDraft{Title: "middle"})
	svc.AddNote(models.NoteDraft{Title: "newest"})

	svc.PinNote(oldest.ID)
	got := svc.FilteredNotes()
	if got[0].ID != oldest.ID {
		t.Fatalf("pinned note not first: %v", ids(got))
	}

	svc.UnpinNote(oldest.ID)
	got = svc.FilteredNotes()
	if got[len(got)-1].ID != oldest.ID {
		t.Fatalf("unpinned oldest note not last: %v", ids(got))
	}
}

func TestCustomCategoryLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	note := svc.AddNote(models.NoteDraft{Title: "trip", Category: models.NewCategory("travel")})

	cats := svc.CustomCategories()
	if len(cats) != 1 || cats[0] != "travel" {
		t.Fatalf("expected [travel], got %v", cats)
	}

	// Registering again must not duplicate.
	if svc.AddCustomCategory("travel") {
		t.Error("duplicate registration should be a no-op")
	}
	if cats := svc.CustomCategories(); len(cats) != 1 {
		t.Fatalf("registry duplicated: %v", cats)
	}

	// Removal never cascades to tagged notes.
	if !svc.RemoveCustomCategory("travel") {
		t.Fatal("removal reported failure")
	}
	if cats := svc.CustomCategories(); len(cats) != 0 {
		t.Fatalf("registry not emptied: %v", cats)
	}
	all := svc.Notes()
	if all[0].ID != note.ID || all[0].Category.Name() != "travel" {
		t.Fatalf("note category changed by registry removal: %v", all[0].Category)
	}
}

func TestAddCustomCategoryRejectsBlankReservedBuiltin(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"", "   ", "all", "work", "personal", "family"} {
		if svc.AddCustomCategory(name) {
			t.Errorf("AddCustomCategory(%q) should be a no-op", name)
		}
	}
	if cats := svc.CustomCategories(); len(cats) != 0 {
		t.Fatalf("registry should stay empty, got %v", cats)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	kv := &countingKV{KV: storage.NewMemStore(0)}
	svc := serviceOver(kv)

	svc.Initialize()
	loads := kv.gets()
	svc.AddNote(models.NoteDraft{Title: "kept"})

	svc.Initialize()
	if kv.gets() != loads {
		t.Fatal("second initialize hit storage again")
	}
	if notes := svc.Notes(); len(notes) != 1 || notes[0].Title != "kept" {
		t.Fatalf("second initialize altered state: %v", ids(notes))
	}
}

func TestCorruptedStorageRecovery(t *testing.T) {
	kv := &oversizedKV{MemStore: storage.NewMemStore(0)}
	kv.Set(storage.KeyTheme, "true")
	svc := serviceOver(kv)

	svc.Initialize()

	if !svc.Ready() {
		t.Fatal("service must end Ready after storage error")
	}
	if notes := svc.Notes(); len(notes) != 0 {
		t.Fatalf("collection should be empty, got %v", ids(notes))
	}

	notice, ok := svc.ConsumeStorageError()
	if !ok || notice.Message == "" {
		t.Fatal("expected one-shot storage notice with a message")
	}
	if _, ok := svc.ConsumeStorageError(); ok {
		t.Fatal("storage notice surfaced twice")
	}

	// Storage was wiped as part of recovery.
	if _, present, _ := kv.Get(storage.KeyTheme); present {
		t.Fatal("recovery did not wipe storage")
	}
}

func TestMalformedRecordStartsEmpty(t *testing.T) {
	kv := storage.NewMemStore(0)
	kv.Set(storage.KeyNotes, "{definitely not json")
	svc := serviceOver(kv)

	svc.Initialize()

	if !svc.Ready() {
		t.Fatal("service must end Ready after parse failure")
	}
	if notes := svc.Notes(); len(notes) != 0 {
		t.Fatal("collection should be empty after parse failure")
	}
	if _, ok := svc.ConsumeStorageError(); !ok {
		t.Fatal("expected a storage notice")
	}
	if _, present, _ := kv.Get(storage.KeyNotes); present {
		t.Fatal("storage should have been wiped")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := storage.NewMemStore(0)

	svc := serviceOver(kv)
	svc.Initialize()
	created := svc.AddNote(models.NoteDraft{
		Title:    "keep me",
		Content:  "across restarts",
		Category: models.NewCategory("travel"),
		IsPinned: true,
	})
	svc.ToggleTheme()
	svc.Flush()

	reloaded := serviceOver(kv)
	reloaded.Initialize()

	notes := reloaded.Notes()
	if len(notes) != 1 {
		t.Fatalf("expected 1 note after reload, got %d", len(notes))
	}
	got := notes[0]
	if got.ID != created.ID || got.Title != created.Title || got.Content != created.Content ||
		got.Category != created.Category || got.IsPinned != created.IsPinned ||
		!got.CreatedAt.Equal(created.CreatedAt) || !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("reloaded note differs:\n got %+v\nwant %+v", got, created)
	}
	if !reloaded.DarkMode() {
		t.Fatal("theme flag lost across reload")
	}
	if cats := reloaded.CustomCategories(); len(cats) != 1 || cats[0] != "travel" {
		t.Fatalf("category registry lost: %v", cats)
	}
}

func TestResetAppData(t *testing.T) {
	svc, kv := newTestService(t)

	svc.AddNote(models.NoteDraft{Title: "gone", Category: models.NewCategory("travel")})
	svc.ToggleTheme()
	svc.SetSearchQuery("gone")
	svc.Flush()

	if !svc.ResetAppData() {
		t.Fatal("reset reported failure")
	}

	if len(svc.Notes()) != 0 || len(svc.CustomCategories()) != 0 || svc.DarkMode() {
		t.Fatal("in-memory state not reset")
	}
	if view := svc.View(); view.SearchQuery != "" || !view.ActiveFilter.All() {
		t.Fatal("selectors not reset")
	}
	if kv.Len() != 0 {
		t.Fatal("storage not cleared")
	}

	// Still Ready: mutations keep working.
	if note := svc.AddNote(models.NoteDraft{Title: "fresh"}); note.ID == "" {
		t.Fatal("service unusable after reset")
	}
}

func TestDuplicateCategoryUnderConcurrency(t *testing.T) {
	svc, _ := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.AddNote(models.NoteDraft{Title: "n", Category: models.NewCategory("travel")})
		}()
	}
	wg.Wait()

	if cats := svc.CustomCategories(); len(cats) != 1 {
		t.Fatalf("duplicate category registered: %v", cats)
	}
}

func TestCommandsBeforeInitializeAreIgnored(t *testing.T) {
	svc := serviceOver(storage.NewMemStore(0))

	if note := svc.AddNote(models.NoteDraft{Title: "early"}); note.ID != "" {
		t.Fatal("addNote before initialize should be a no-op")
	}
	if svc.DeleteNote("anything") {
		t.Fatal("deleteNote before initialize should be a no-op")
	}
}

func TestSearchSelectorRecomputesView(t *testing.T) {
	svc, _ := newTestService(t)

	svc.AddNote(models.NoteDraft{Title: "Grocery list", Content: "milk"})
	svc.AddNote(models.NoteDraft{Title: "Trip", Content: "pack bags"})

	svc.SetSearchQuery("GROCERY")
	if got := svc.FilteredNotes(); len(got) != 1 || got[0].Title != "Grocery list" {
		t.Fatalf("search view wrong: %v", ids(got))
	}

	svc.SetSearchQuery("")
	if got := svc.FilteredNotes(); len(got) != 2 {
		t.Fatalf("clearing search should restore all, got %v", ids(got))
	}
}

// countingKV counts Get calls to observe whether initialize reloads.
type countingKV struct {
	storage.KV
	mu       sync.Mutex
	getCalls int
}

func (c *countingKV) Get(key string) (string, bool, error) {
	c.mu.Lock()
	c.getCalls++
	c.mu.Unlock()
	return c.KV.Get(key)
}

func (c *countingKV) gets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getCalls
}

// oversizedKV simulates the payload-too-large signature on the notes record.
type oversizedKV struct {
	*storage.MemStore
}

func (o *oversizedKV) Get(key string) (string, bool, error) {
	if key == storage.KeyNotes {
		return "", true, storage.ErrValueTooLarge
	}
	return o.MemStore.Get(key)
}
