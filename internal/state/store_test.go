package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestLoadMissingFile(t *testing.T) {
	s := tempStore(t)
	st, err := s.Load("fresh")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Project != "fresh" {
		t.Errorf("Project = %q", st.Project)
	}
	if st.References == nil || st.CollectionURIs == nil {
		t.Error("maps not initialized")
	}
	if len(st.References) != 0 {
		t.Errorf("References = %v, want empty", st.References)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	st := models.NewSyncState("proj")
	st.LastSync = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	st.SetCollectionURI("proj", "at://did:plc:x/app.cards.collection/c1")
	st.SetReference(&models.SyncedReference{
		LocalID:     "smith2024",
		URI:         "at://did:plc:x/app.cards.card/r1",
		CID:         "cid-1",
		ContentHash: "abcdef0123456789",
		SyncedAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Direction:   models.DirectionPush,
		RemoteCID:   "cid-1",
	})

	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("proj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ref := got.Reference("smith2024")
	if ref == nil {
		t.Fatal("reference lost in round trip")
	}
	if ref.URI != "at://did:plc:x/app.cards.card/r1" || ref.ContentHash != "abcdef0123456789" {
		t.Errorf("reference = %+v", ref)
	}
	if !got.LastSync.Equal(st.LastSync) {
		t.Errorf("LastSync = %v, want %v", got.LastSync, st.LastSync)
	}
	if got.CollectionURI("proj") == "" {
		t.Error("collection URI lost in round trip")
	}
}

func TestSaveIsHumanReadable(t *testing.T) {
	s := tempStore(t)
	st := models.NewSyncState("proj")
	st.SetReference(&models.SyncedReference{LocalID: "a", URI: "at://x/a"})
	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(s.Path("proj"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Indented JSON with a trailing newline, usable in a diff.
	if !strings.Contains(string(data), "\n  ") {
		t.Error("state file is not indented")
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("state file missing trailing newline")
	}
}

func TestTombstoneSurvivesRoundTrip(t *testing.T) {
	s := tempStore(t)
	st := models.NewSyncState("proj")
	st.SetReference(&models.SyncedReference{LocalID: "gone", URI: "at://x/gone", Deleted: true})
	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := s.Load("proj")
	ref := got.Reference("gone")
	if ref == nil || !ref.Deleted {
		t.Errorf("tombstone lost: %+v", ref)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	st := models.NewSyncState("proj")
	for i := 0; i < 5; i++ {
		if err := s.Save(st); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(s.dir, ".state-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path("bad"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := s.Load("bad"); err == nil {
		t.Error("expected error for corrupt state file")
	}
}
