package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pocketnote/pkg/models"
)

func sampleNotes() []models.Note {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.Note{
		{
			ID:        "n1",
			Title:     "pinned",
			Content:   "body one",
			Category:  models.CategoryWork,
			IsPinned:  true,
			CreatedAt: created,
			UpdatedAt: created.Add(time.Minute),
		},
		{
			ID:        "n2",
			Title:     "trashed",
			Content:   "body two",
			Category:  models.NewCategory("travel"),
			IsDeleted: true,
			CreatedAt: created.Add(-time.Hour),
			UpdatedAt: created.Add(-time.Hour),
		},
	}
}

func TestGatewayRoundTrip(t *testing.T) {
	kv := NewMemStore(0)
	g := NewGateway(kv, "")

	notes := sampleNotes()
	if !g.SaveNotes(notes) {
		t.Fatal("SaveNotes failed")
	}
	if !g.SaveTheme(true) {
		t.Fatal("SaveTheme failed")
	}
	if !g.SaveCategories([]string{"travel", "fitness"}) {
		t.Fatal("SaveCategories failed")
	}

	result := g.Load()
	if result.StorageError {
		t.Fatalf("unexpected storage error: %s", result.ErrorMessage)
	}
	if len(result.Notes) != len(notes) {
		t.Fatalf("got %d notes, want %d", len(result.Notes), len(notes))
	}
	for i, got := range result.Notes {
		want := notes[i]
		if got.ID != want.ID || got.Title != want.Title || got.Content != want.Content ||
			got.Category != want.Category || got.IsPinned != want.IsPinned ||
			got.IsDeleted != want.IsDeleted ||
			!got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
			t.Errorf("note %d differs:\n got %+v\nwant %+v", i, got, want)
		}
	}
	if !result.DarkMode {
		t.Error("theme flag lost")
	}
	if len(result.Categories) != 2 || result.Categories[0] != "travel" {
		t.Errorf("categories lost: %v", result.Categories)
	}
}

func TestGatewayLoadDefaultsWhenAbsent(t *testing.T) {
	g := NewGateway(NewMemStore(0), "")

	result := g.Load()
	if result.StorageError {
		t.Fatalf("empty store must not be an error: %s", result.ErrorMessage)
	}
	if len(result.Notes) != 0 || result.DarkMode || len(result.Categories) != 0 {
		t.Fatalf("expected empty defaults, got %+v", result)
	}
}

func TestGatewayMalformedRecordReportsErrorWithoutWipe(t *testing.T) {
	kv := NewMemStore(0)
	kv.values[KeyNotes] = "{not json"
	kv.values[KeyTheme] = "true"
	g := NewGateway(kv, "")

	result := g.Load()
	if !result.StorageError || result.ErrorMessage == "" {
		t.Fatal("expected a flagged storage error with message")
	}

	// Generic failures leave the wipe decision to the caller.
	if _, ok := kv.values[KeyTheme]; !ok {
		t.Fatal("generic load failure must not wipe storage")
	}
}

func TestGatewayOversizedRecordWipesStorage(t *testing.T) {
	kv := NewMemStore(64)
	kv.values[KeyNotes] = strings.Repeat("x", 1024) // over the limit, seeded behind Set
	kv.values[KeyTheme] = "true"
	g := NewGateway(kv, "")

	result := g.Load()
	if !result.StorageError {
		t.Fatal("expected storage error")
	}
	if !strings.Contains(result.ErrorMessage, "media") {
		t.Fatalf("too-large message should mention embedded media, got %q", result.ErrorMessage)
	}
	if kv.Len() != 0 {
		t.Fatal("too-large signature must trigger a full wipe")
	}
}

func TestGatewayQuarantinesReadableRecordsBeforeWipe(t *testing.T) {
	dir := t.TempDir()
	quarantine := filepath.Join(dir, "corrupted")

	kv := NewMemStore(64)
	kv.values[KeyNotes] = strings.Repeat("x", 1024)
	kv.values[KeyCategories] = `["travel"]`
	g := NewGateway(kv, quarantine)

	g.Load()

	files, err := filepath.Glob(filepath.Join(quarantine, "recovery-*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one recovery file, got %v (err %v)", files, err)
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	var rescued map[string]string
	if err := json.Unmarshal(data, &rescued); err != nil {
		t.Fatal(err)
	}
	if rescued[KeyCategories] != `["travel"]` {
		t.Fatalf("category record not rescued: %v", rescued)
	}
}

func TestGatewaySaveFailureReportsFalse(t *testing.T) {
	g := NewGateway(&brokenKV{}, "")

	if g.SaveNotes(sampleNotes()) {
		t.Error("SaveNotes should report false on write failure")
	}
	if g.SaveTheme(true) {
		t.Error("SaveTheme should report false on write failure")
	}
	if g.SaveCategories([]string{"a"}) {
		t.Error("SaveCategories should report false on write failure")
	}
}

func TestGatewaySaveNilNotesWritesEmptyList(t *testing.T) {
	kv := NewMemStore(0)
	g := NewGateway(kv, "")

	if !g.SaveNotes(nil) {
		t.Fatal("SaveNotes(nil) failed")
	}
	if kv.values[KeyNotes] != "[]" {
		t.Fatalf("expected empty JSON list, got %q", kv.values[KeyNotes])
	}
}

func TestGatewayClearFallsBackToPerKeyRemoval(t *testing.T) {
	kv := &noBulkClearKV{MemStore: NewMemStore(0)}
	kv.Set(KeyNotes, "[]")
	kv.Set(KeyTheme, "false")
	g := NewGateway(kv, "")

	if !g.Clear() {
		t.Fatal("clear should succeed via per-key removal")
	}
	if kv.Len() != 0 {
		t.Fatal("records not removed")
	}
}

// brokenKV fails every write.
type brokenKV struct{}

var errBroken = errors.New("disk on fire")

func (b *brokenKV) Get(string) (string, bool, error) { return "", false, nil }
func (b *brokenKV) Set(string, string) error         { return errBroken }
func (b *brokenKV) Remove(string) error              { return errBroken }
func (b *brokenKV) Clear() error                     { return errBroken }
func (b *brokenKV) Close() error                     { return nil }

// noBulkClearKV rejects bulk clears but allows individual removal.
type noBulkClearKV struct {
	*MemStore
}

func (n *noBulkClearKV) Clear() error { return errors.New("bulk clear unsupported") }
