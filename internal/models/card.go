package models

// Card types in the remote repository.
const (
	CardTypeURL  = "url"
	CardTypeNote = "note"
)

// URLMetadata carries the descriptive fields of a URL card.
type URLMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
}

// Card is a remote typed content record. Type discriminates the payload:
// a URL card wraps a link plus optional metadata, a note card wraps free
// text in Content. Cards are immutable-by-replacement on the remote side;
// every update produces a new CID.
type Card struct {
	Type      string       `json:"type"`
	Content   string       `json:"content,omitempty"`
	URL       string       `json:"url,omitempty"`
	Metadata  *URLMetadata `json:"metadata,omitempty"`
	CreatedAt string       `json:"createdAt,omitempty"`
}

// CollectionRef identifies a remote collection record.
type CollectionRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// CollectionValue is the stored payload of a collection record.
type CollectionValue struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}
