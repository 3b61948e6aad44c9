package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"ramblings/internal/models"
)

func TestRecorder_RecordAndList(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Could not open db: %v", err)
	}
	defer db.Close()

	rec, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	published := time.Date(2025, 8, 25, 7, 42, 16, 0, time.FixedZone("", 3600))
	posts := []models.Post{
		{Identity: "25_08_2025_10", RunDate: "25_08_2025", Title: "Ten", URL: "https://e.com/10", Published: published, Path: "p/10.md"},
		{Identity: "25_08_2025_2", RunDate: "25_08_2025", Title: "Two", URL: "https://e.com/2", Published: published, Path: "p/2.md"},
		{Identity: "24_08_2025_0", RunDate: "24_08_2025", Title: "Yesterday", URL: "https://e.com/y", Published: published, Path: "p/y.md"},
	}
	for _, p := range posts {
		if err := rec.Record(t.Context(), p); err != nil {
			t.Fatalf("Record(%s) error = %v", p.Identity, err)
		}
	}
	// re-recording an identity replaces the row
	replaced := posts[1]
	replaced.Title = "Two again"
	if err := rec.Record(t.Context(), replaced); err != nil {
		t.Fatalf("Record() replace error = %v", err)
	}

	got, err := ListByRunDate(t.Context(), db, "25_08_2025")
	if err != nil {
		t.Fatalf("ListByRunDate() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 posts, found %d", len(got))
	}
	if got[0].Identity != "25_08_2025_2" || got[1].Identity != "25_08_2025_10" {
		t.Errorf("posts not in emission order: %s, %s", got[0].Identity, got[1].Identity)
	}
	if got[0].Title != "Two again" {
		t.Errorf("Title = %q, want replaced title", got[0].Title)
	}
	if !got[1].Published.Equal(published) {
		t.Errorf("Published = %v, want %v", got[1].Published, published)
	}
}

func TestRecordPost_RequiresIdentity(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Could not open db: %v", err)
	}
	defer db.Close()
	if err := InitSchema(db); err != nil {
		t.Fatal(err)
	}
	if err := RecordPost(t.Context(), db, models.Post{RunDate: "25_08_2025"}, time.Now()); err == nil {
		t.Fatal("expected error for missing identity")
	}
}

func TestNewRecorder_NilDB(t *testing.T) {
	if _, err := NewRecorder(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}
