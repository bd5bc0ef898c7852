package index

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/raido/internal/vault"
)

func tempDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpsertAndGet(t *testing.T) {
	db := tempDB(t)
	row := ObjectRow{
		Path:      "research/references/smith2024.md",
		Project:   "research",
		Citekey:   "smith2024",
		Title:     "A Paper",
		URL:       "https://example.org/paper",
		Checksum:  "abc",
		Tags:      []string{"collection:ml"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertObject(row); err != nil {
		t.Fatalf("UpsertObject: %v", err)
	}

	cs, err := db.GetChecksum(row.Path)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc" {
		t.Errorf("checksum = %q", cs)
	}

	// Upsert with a new checksum replaces in place.
	row.Checksum = "def"
	if err := db.UpsertObject(row); err != nil {
		t.Fatalf("UpsertObject: %v", err)
	}
	cs, _ = db.GetChecksum(row.Path)
	if cs != "def" {
		t.Errorf("checksum after upsert = %q", cs)
	}
}

func TestGetChecksumMissing(t *testing.T) {
	db := tempDB(t)
	cs, err := db.GetChecksum("nope.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "" {
		t.Errorf("checksum = %q, want empty", cs)
	}
}

func TestURLExists(t *testing.T) {
	db := tempDB(t)
	_ = db.UpsertObject(ObjectRow{Path: "p/a.md", Project: "p", URL: "https://example.org/a"})

	ok, err := db.URLExists("p", "https://example.org/a")
	if err != nil {
		t.Fatalf("URLExists: %v", err)
	}
	if !ok {
		t.Error("expected URL to exist")
	}

	ok, _ = db.URLExists("p", "https://example.org/other")
	if ok {
		t.Error("unexpected match")
	}
	ok, _ = db.URLExists("other-project", "https://example.org/a")
	if ok {
		t.Error("URL matched across projects")
	}
}

func TestFindObject(t *testing.T) {
	db := tempDB(t)
	_ = db.UpsertObject(ObjectRow{
		Path:    "p/smith2024.md",
		Project: "p",
		Citekey: "smith2024",
		URL:     "https://example.org/paper",
		Tags:    []string{"a"},
	})

	byKey, err := db.FindObject("p", "smith2024")
	if err != nil {
		t.Fatalf("FindObject by citekey: %v", err)
	}
	if byKey == nil || byKey.Path != "p/smith2024.md" {
		t.Errorf("byKey = %+v", byKey)
	}
	if len(byKey.Tags) != 1 || byKey.Tags[0] != "a" {
		t.Errorf("Tags = %v", byKey.Tags)
	}

	byURL, err := db.FindObject("p", "https://example.org/paper")
	if err != nil {
		t.Fatalf("FindObject by url: %v", err)
	}
	if byURL == nil || byURL.Citekey != "smith2024" {
		t.Errorf("byURL = %+v", byURL)
	}

	missing, err := db.FindObject("p", "nope")
	if err != nil {
		t.Fatalf("FindObject missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %+v, want nil", missing)
	}
}

func TestListObjects(t *testing.T) {
	db := tempDB(t)
	_ = db.UpsertObject(ObjectRow{Path: "p/a.md", Project: "p"})
	_ = db.UpsertObject(ObjectRow{Path: "p/b.md", Project: "p"})
	_ = db.UpsertObject(ObjectRow{Path: "q/c.md", Project: "q"})

	rows, err := db.ListObjects("p")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("len = %d, want 2", len(rows))
	}
}

func TestScan(t *testing.T) {
	db := tempDB(t)
	store, err := vault.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	_ = store.Write("research/references/smith2024.md", []byte(`---
citekey: smith2024
title: A Paper
url: https://example.org/paper
---
Body.
`))
	_ = store.Write("research/notes/idea.md", []byte("# Idea\n"))

	if err := Scan(db, store, discard()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	row, _ := db.FindObject("research", "smith2024")
	if row == nil {
		t.Fatal("smith2024 not indexed")
	}
	if row.URL != "https://example.org/paper" || row.Title != "A Paper" {
		t.Errorf("row = %+v", row)
	}

	// Removing a file on disk removes its row on the next scan.
	_ = store.Delete("research/notes/idea.md")
	if err := Scan(db, store, discard()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	cs, _ := db.GetChecksum("research/notes/idea.md")
	if cs != "" {
		t.Error("stale row survived rescan")
	}
}

func TestScanShortCircuitsUnchanged(t *testing.T) {
	db := tempDB(t)
	store, err := vault.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	_ = store.Write("p/a.md", []byte("---\ntitle: T\n---\nx\n"))

	if err := Scan(db, store, discard()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	before, _ := db.GetChecksum("p/a.md")

	// Second scan with no changes leaves the row intact.
	if err := Scan(db, store, discard()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	after, _ := db.GetChecksum("p/a.md")
	if before == "" || before != after {
		t.Errorf("checksum changed across no-op scan: %q vs %q", before, after)
	}
}
