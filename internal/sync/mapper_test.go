package sync

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func TestObjectToCard(t *testing.T) {
	obj := &models.VaultObject{
		ID: "smith2024",
		Frontmatter: map[string]any{
			"citekey":  "smith2024",
			"title":    "A Paper",
			"url":      "https://example.org/paper",
			"abstract": "What it says.",
			"author":   []any{"Jane Smith", "Bob Jones"},
			"year":     2024,
			"journal":  "JMLR",
		},
	}

	card := ObjectToCard(obj)
	if card == nil {
		t.Fatal("ObjectToCard returned nil for URL-bearing object")
	}
	if card.Type != models.CardTypeURL || card.URL != "https://example.org/paper" {
		t.Errorf("card = %+v", card)
	}
	md := card.Metadata
	if md.Title != "A Paper" || md.Description != "What it says." {
		t.Errorf("metadata = %+v", md)
	}
	if md.Author != "Jane Smith, Bob Jones" {
		t.Errorf("Author = %q", md.Author)
	}
	if md.PublishedAt != "2024-01-01" {
		t.Errorf("PublishedAt = %q", md.PublishedAt)
	}
	if md.SiteName != "JMLR" {
		t.Errorf("SiteName = %q", md.SiteName)
	}
}

func TestObjectToCardNoURL(t *testing.T) {
	obj := &models.VaultObject{Frontmatter: map[string]any{"title": "No link"}}
	if card := ObjectToCard(obj); card != nil {
		t.Errorf("expected nil card, got %+v", card)
	}
}

func TestCardToObjectURL(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fm, body, kind := CardToObject(CardWithURI{
		URI: "at://did:plc:x/app.cards.card/abc",
		Card: models.Card{
			Type: models.CardTypeURL,
			URL:  "https://www.example.org/article",
			Metadata: &models.URLMetadata{
				Title:       "An Article",
				Description: "Summary.",
			},
		},
	}, now)

	if kind != models.KindReference {
		t.Errorf("kind = %q", kind)
	}
	if fm["visibility"] != "private" {
		t.Error("pulled object not stamped private")
	}
	if fm["remote-uri"] != "at://did:plc:x/app.cards.card/abc" {
		t.Errorf("remote-uri = %v", fm["remote-uri"])
	}
	if fm["url"] != "https://www.example.org/article" || fm["title"] != "An Article" {
		t.Errorf("fm = %v", fm)
	}
	ck, _ := fm["citekey"].(string)
	if !strings.HasPrefix(ck, "example-org-") {
		t.Errorf("citekey = %q, want example-org- prefix", ck)
	}
	if body != "Summary." {
		t.Errorf("body = %q", body)
	}
}

func TestCardToObjectNote(t *testing.T) {
	fm, body, kind := CardToObject(CardWithURI{
		URI:  "at://did:plc:x/app.cards.card/n1",
		Card: models.Card{Type: models.CardTypeNote, Content: "# Big Idea\n\nDetails here."},
	}, time.Now())

	if kind != models.KindNote {
		t.Errorf("kind = %q", kind)
	}
	if fm["title"] != "Big Idea" {
		t.Errorf("title = %v", fm["title"])
	}
	if body != "Details here." {
		t.Errorf("body = %q", body)
	}
}

func TestCardToObjectEmptyNote(t *testing.T) {
	_, body, _ := CardToObject(CardWithURI{
		Card: models.Card{Type: models.CardTypeNote, Content: ""},
	}, time.Now())
	if body == "" {
		t.Error("empty note should receive a placeholder body")
	}
}

func TestCardFilename(t *testing.T) {
	cases := []struct {
		name string
		card models.Card
		want string
	}{
		{
			name: "from title",
			card: models.Card{Type: models.CardTypeURL, URL: "https://x.org/a", Metadata: &models.URLMetadata{Title: "Attention Is All You Need"}},
			want: "attention-is-all-you-need.md",
		},
		{
			name: "from host",
			card: models.Card{Type: models.CardTypeURL, URL: "https://arxiv.org/abs/1706.03762"},
			want: "arxiv-org.md",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CardFilename(CardWithURI{Card: tc.card}); got != tc.want {
				t.Errorf("CardFilename = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCardFilenameNotesAreUnique(t *testing.T) {
	card := models.Card{Type: models.CardTypeNote, Content: "Same first words every time"}
	a := CardFilename(CardWithURI{Card: card})
	b := CardFilename(CardWithURI{Card: card})
	if a == b {
		t.Errorf("note filenames collide: %q", a)
	}
	if !strings.HasPrefix(a, "same-first-words-") {
		t.Errorf("filename = %q", a)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":  "hello-world",
		"  padded  ":     "padded",
		"ünïcode stuff":  "n-code-stuff",
		"":               "",
		"---":            "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
	long := strings.Repeat("word ", 30)
	if got := slugify(long); len(got) > maxSlugLen {
		t.Errorf("slug too long: %d chars", len(got))
	}
}
