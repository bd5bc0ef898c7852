package vault

import (
	"testing"

	"github.com/starford/raido/internal/models"
)

func TestLoadObjects(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("research/references/smith2024.md", []byte(`---
citekey: smith2024
url: https://example.org/paper
---
Notes.
`))
	_ = s.Write("research/notes/idea.md", []byte("# An Idea\n\nText.\n"))
	_ = s.Write("other/unrelated.md", []byte("elsewhere"))

	objs, err := LoadObjects(s, "research")
	if err != nil {
		t.Fatalf("LoadObjects: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("len = %d, want 2", len(objs))
	}

	byID := map[string]*models.VaultObject{}
	for _, o := range objs {
		byID[o.ID] = o
	}

	ref := byID["smith2024"]
	if ref == nil {
		t.Fatal("smith2024 not loaded")
	}
	if ref.Kind != models.KindReference {
		t.Errorf("Kind = %q, want reference (inferred from URL)", ref.Kind)
	}
	if ref.Project != "research" || ref.Path != "research/references/smith2024.md" {
		t.Errorf("object = %+v", ref)
	}

	note := byID["idea"]
	if note == nil {
		t.Fatal("idea not loaded")
	}
	if note.Kind != models.KindNote {
		t.Errorf("Kind = %q, want note", note.Kind)
	}
}

func TestLoadObjectsMissingProject(t *testing.T) {
	s := tempVault(t)
	objs, err := LoadObjects(s, "nothing-here")
	if err != nil {
		t.Fatalf("LoadObjects: %v", err)
	}
	if len(objs) != 0 {
		t.Errorf("len = %d, want 0", len(objs))
	}
}

func TestObjectKindExplicitTypeWins(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("p/x.md", []byte(`---
type: note
url: https://example.org
---
Has a URL but is declared a note.
`))
	objs, err := LoadObjects(s, "p")
	if err != nil {
		t.Fatalf("LoadObjects: %v", err)
	}
	if len(objs) != 1 || objs[0].Kind != models.KindNote {
		t.Errorf("objs = %+v", objs)
	}
}

func TestObjectVisibility(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("p/v.md", []byte("---\nvisibility: private\n---\nBody.\n"))
	objs, _ := LoadObjects(s, "p")
	if len(objs) != 1 || objs[0].Visibility != "private" {
		t.Errorf("objs = %+v", objs)
	}
}
