package remote

import (
	"encoding/json"

	"github.com/starford/raido/internal/models"
)

// Record collections (NSIDs) used by the card repository.
const (
	NSIDCard           = "app.cards.card"
	NSIDCollection     = "app.cards.collection"
	NSIDCollectionLink = "app.cards.collectionLink"
)

// RecordRef identifies one remote record.
type RecordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// CardRecord is a card record with its repository identity.
type CardRecord struct {
	URI   string      `json:"uri"`
	CID   string      `json:"cid"`
	Value models.Card `json:"value"`
}

// CollectionRecord is a collection record with its repository identity.
type CollectionRecord struct {
	URI   string                 `json:"uri"`
	CID   string                 `json:"cid"`
	Value models.CollectionValue `json:"value"`
}

// LinkValue is the stored payload of a card↔collection link record.
type LinkValue struct {
	Card       RecordRef `json:"card"`
	Collection RecordRef `json:"collection"`
	CreatedAt  string    `json:"createdAt,omitempty"`
}

// LinkRecord is a link record with its repository identity.
type LinkRecord struct {
	URI   string    `json:"uri"`
	Value LinkValue `json:"value"`
}

// Wire types.

type sessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	DID       string `json:"did"`
	Handle    string `json:"handle"`
	AccessJWT string `json:"accessJwt"`
}

type createRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

type putRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
	Record     any    `json:"record"`
}

type deleteRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}

type rawRecord struct {
	URI   string          `json:"uri"`
	CID   string          `json:"cid"`
	Value json.RawMessage `json:"value"`
}

type listRecordsResponse struct {
	Records []rawRecord `json:"records"`
	Cursor  string      `json:"cursor,omitempty"`
}

type xrpcError struct {
	ErrorCode string `json:"error"`
	Message   string `json:"message"`
}
