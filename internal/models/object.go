// Package models defines the domain types for Raido.
package models

import (
	"strings"
	"time"
)

// Object kinds stored in the vault.
const (
	KindReference = "reference"
	KindNote      = "note"
)

// VaultObject represents a parsed Markdown file in the vault. The sync
// engine consumes these read-only; new ones are created only during pull.
type VaultObject struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Project     string         `json:"project"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Body        string         `json:"body"`
	Visibility  string         `json:"visibility,omitempty"`
	Path        string         `json:"path"`
}

// Citekey returns the stable local identity for sync purposes: the
// frontmatter citekey when present, otherwise the object's own ID.
// This must not change between runs or the object is treated as new.
func (o *VaultObject) Citekey() string {
	if o.Frontmatter != nil {
		if v, ok := o.Frontmatter["citekey"].(string); ok && v != "" {
			return v
		}
	}
	return o.ID
}

// urlKeys is the priority order of frontmatter fields checked for a
// syncable URL. A bare DOI is promoted to a resolver URL.
var urlKeys = []string{"url", "URL", "link", "doi"}

// URL returns the first non-empty URL-bearing frontmatter field, or ""
// when the object carries none (and is therefore not syncable).
func (o *VaultObject) URL() string {
	if o.Frontmatter == nil {
		return ""
	}
	for _, key := range urlKeys {
		v, ok := o.Frontmatter[key].(string)
		if !ok || v == "" {
			continue
		}
		if key == "doi" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return "https://doi.org/" + v
		}
		return v
	}
	return ""
}

// Tags returns the frontmatter tags list, tolerating both []any and
// []string YAML decodings.
func (o *VaultObject) Tags() []string {
	if o.Frontmatter == nil {
		return nil
	}
	switch v := o.Frontmatter["tags"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ObjectMetadata is a lightweight representation returned by list operations.
type ObjectMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
