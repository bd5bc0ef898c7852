package sync

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/raido/internal/models"
)

// Frontmatter fields written to every pulled object.
const (
	fmRemoteURI  = "remote-uri"
	fmSyncedAt   = "synced-at"
	fmVisibility = "visibility"
)

const maxSlugLen = 48

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ObjectToCard projects a vault object onto a URL card. It returns nil
// when the object carries no URL, which is the signal to skip the object
// rather than an error: only URL-bearing objects are currently syncable.
func ObjectToCard(obj *models.VaultObject) *models.Card {
	u := obj.URL()
	if u == "" {
		return nil
	}

	card := &models.Card{
		Type: models.CardTypeURL,
		URL:  u,
		Metadata: &models.URLMetadata{
			Title:       fmString(obj.Frontmatter, "title"),
			Description: fmString(obj.Frontmatter, "abstract"),
			Author:      fmAuthor(obj.Frontmatter),
			PublishedAt: fmPublished(obj.Frontmatter),
			SiteName:    fmFirst(obj.Frontmatter, "journal", "booktitle"),
		},
	}
	return card
}

// CardToObject converts a pulled card into frontmatter, body, and object
// kind. Every pulled object is stamped private, carries the remote URI,
// and records the pull timestamp.
func CardToObject(rec CardWithURI, now time.Time) (map[string]any, string, string) {
	fm := map[string]any{
		fmVisibility: "private",
		fmRemoteURI:  rec.URI,
		fmSyncedAt:   now.UTC().Format(time.RFC3339),
	}

	if rec.Card.Type == models.CardTypeURL {
		fm["type"] = models.KindReference
		fm["url"] = rec.Card.URL
		fm["citekey"] = synthCitekey(rec.Card.URL, now)
		body := ""
		if md := rec.Card.Metadata; md != nil {
			setIf(fm, "title", md.Title)
			setIf(fm, "abstract", md.Description)
			setIf(fm, "author", md.Author)
			setIf(fm, "date", md.PublishedAt)
			setIf(fm, "journal", md.SiteName)
			body = md.Description
		}
		return fm, body, models.KindReference
	}

	// Note card: promote a leading markdown heading to the title.
	fm["type"] = models.KindNote
	title, body := splitNoteContent(rec.Card.Content)
	if title != "" {
		fm["title"] = title
	}
	if body == "" {
		body = "(imported note)"
	}
	return fm, body, models.KindNote
}

// CardWithURI pairs a card payload with its repository URI.
type CardWithURI struct {
	URI  string
	Card models.Card
}

// CardFilename derives a vault filename for a pulled card: the slugified
// title, falling back to the URL host or the text content. Note filenames
// always receive a uniqueness suffix since note titles repeat freely.
func CardFilename(rec CardWithURI) string {
	var stem string
	if md := rec.Card.Metadata; md != nil && md.Title != "" {
		stem = slugify(md.Title)
	}
	if stem == "" && rec.Card.URL != "" {
		stem = slugify(urlHost(rec.Card.URL))
	}
	if stem == "" {
		stem = slugify(firstWords(rec.Card.Content, 6))
	}
	if stem == "" {
		stem = "card"
	}
	if rec.Card.Type == models.CardTypeNote {
		stem = stem + "-" + shortULID()
	}
	return stem + ".md"
}

// synthCitekey builds a citation-key-like identifier from the URL host
// plus a time-ordered suffix, guaranteeing uniqueness without querying
// existing keys.
func synthCitekey(rawURL string, now time.Time) string {
	host := urlHost(rawURL)
	host = strings.TrimPrefix(host, "www.")
	stem := slugify(host)
	if stem == "" {
		stem = "ref"
	}
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return stem + "-" + strings.ToLower(id.String())
}

// splitNoteContent strips a leading "# " heading line, returning it as
// the title and the remainder as body.
func splitNoteContent(content string) (title, body string) {
	trimmed := strings.TrimLeft(content, "\n\r ")
	if strings.HasPrefix(trimmed, "# ") {
		line, rest, _ := strings.Cut(trimmed, "\n")
		return strings.TrimSpace(strings.TrimPrefix(line, "# ")), strings.TrimLeft(rest, "\n\r")
	}
	return "", content
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	return s
}

func urlHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

func shortULID() string {
	return strings.ToLower(ulid.Make().String())
}

func setIf(fm map[string]any, key, value string) {
	if value != "" {
		fm[key] = value
	}
}

func fmString(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	v, _ := fm[key].(string)
	return v
}

func fmFirst(fm map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := fmString(fm, k); v != "" {
			return v
		}
	}
	return ""
}

// fmAuthor joins list-valued author fields with ", ".
func fmAuthor(fm map[string]any) string {
	if fm == nil {
		return ""
	}
	switch v := fm["author"].(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		var parts []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// fmPublished maps a date or bare year onto an ISO publish date.
func fmPublished(fm map[string]any) string {
	if v := fmString(fm, "date"); v != "" {
		return v
	}
	switch y := fm["year"].(type) {
	case int:
		return fmt.Sprintf("%04d-01-01", y)
	case string:
		if y != "" {
			return y + "-01-01"
		}
	}
	return ""
}
