package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/starford/raido/internal/models"
)

// listPageSize is the page size used for bulk record listing.
const listPageSize = 100

// CreateCard creates a new card record and returns its identity.
func (c *Client) CreateCard(ctx context.Context, card models.Card) (*RecordRef, error) {
	if card.CreatedAt == "" {
		card.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	var ref RecordRef
	err := c.do(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil,
		createRecordRequest{Repo: c.did, Collection: NSIDCard, Record: card}, &ref)
	if err != nil {
		return nil, fmt.Errorf("remote: create card: %w", err)
	}
	return &ref, nil
}

// UpdateCard replaces the card record at uri. The remote assigns a new CID.
func (c *Client) UpdateCard(ctx context.Context, uri string, card models.Card) (*RecordRef, error) {
	var ref RecordRef
	err := c.do(ctx, http.MethodPost, "com.atproto.repo.putRecord", nil,
		putRecordRequest{Repo: c.did, Collection: NSIDCard, RKey: rkeyFromURI(uri), Record: card}, &ref)
	if err != nil {
		return nil, fmt.Errorf("remote: update card: %w", err)
	}
	return &ref, nil
}

// GetCard fetches one card record. A missing record yields an error
// wrapping apperr.ErrNotFound.
func (c *Client) GetCard(ctx context.Context, uri string) (*CardRecord, error) {
	params := url.Values{}
	params.Set("repo", c.did)
	params.Set("collection", NSIDCard)
	params.Set("rkey", rkeyFromURI(uri))

	var raw rawRecord
	if err := c.do(ctx, http.MethodGet, "com.atproto.repo.getRecord", params, nil, &raw); err != nil {
		return nil, fmt.Errorf("remote: get card: %w", err)
	}
	rec := CardRecord{URI: raw.URI, CID: raw.CID}
	if err := json.Unmarshal(raw.Value, &rec.Value); err != nil {
		return nil, fmt.Errorf("remote: decode card: %w", err)
	}
	return &rec, nil
}

// DeleteRecord removes a record of any collection by its key.
func (c *Client) DeleteRecord(ctx context.Context, collection, rkey string) error {
	err := c.do(ctx, http.MethodPost, "com.atproto.repo.deleteRecord", nil,
		deleteRecordRequest{Repo: c.did, Collection: collection, RKey: rkey}, nil)
	if err != nil {
		return fmt.Errorf("remote: delete record: %w", err)
	}
	return nil
}

// GetAllCards lists every card record, paginating with a cursor.
func (c *Client) GetAllCards(ctx context.Context) ([]CardRecord, error) {
	raws, err := c.listAll(ctx, NSIDCard)
	if err != nil {
		return nil, fmt.Errorf("remote: list cards: %w", err)
	}
	out := make([]CardRecord, 0, len(raws))
	for _, r := range raws {
		rec := CardRecord{URI: r.URI, CID: r.CID}
		if err := json.Unmarshal(r.Value, &rec.Value); err != nil {
			return nil, fmt.Errorf("remote: decode card %s: %w", r.URI, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// CreateCollection creates a named collection record.
func (c *Client) CreateCollection(ctx context.Context, name, description string) (*models.CollectionRef, error) {
	value := models.CollectionValue{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	var ref RecordRef
	err := c.do(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil,
		createRecordRequest{Repo: c.did, Collection: NSIDCollection, Record: value}, &ref)
	if err != nil {
		return nil, fmt.Errorf("remote: create collection: %w", err)
	}
	return &models.CollectionRef{URI: ref.URI, CID: ref.CID}, nil
}

// ListCollections lists every collection record.
func (c *Client) ListCollections(ctx context.Context) ([]CollectionRecord, error) {
	raws, err := c.listAll(ctx, NSIDCollection)
	if err != nil {
		return nil, fmt.Errorf("remote: list collections: %w", err)
	}
	out := make([]CollectionRecord, 0, len(raws))
	for _, r := range raws {
		rec := CollectionRecord{URI: r.URI, CID: r.CID}
		if err := json.Unmarshal(r.Value, &rec.Value); err != nil {
			return nil, fmt.Errorf("remote: decode collection %s: %w", r.URI, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindCollectionByName returns the collection with the given name, or nil
// when no such collection exists.
func (c *Client) FindCollectionByName(ctx context.Context, name string) (*models.CollectionRef, error) {
	recs, err := c.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.Value.Name == name {
			return &models.CollectionRef{URI: rec.URI, CID: rec.CID}, nil
		}
	}
	return nil, nil
}

// LinkCardToCollection creates a link record associating a card with a
// collection.
func (c *Client) LinkCardToCollection(ctx context.Context, cardURI, cardCID, collectionURI, collectionCID string) error {
	value := LinkValue{
		Card:       RecordRef{URI: cardURI, CID: cardCID},
		Collection: RecordRef{URI: collectionURI, CID: collectionCID},
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	var ref RecordRef
	err := c.do(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil,
		createRecordRequest{Repo: c.did, Collection: NSIDCollectionLink, Record: value}, &ref)
	if err != nil {
		return fmt.Errorf("remote: link card: %w", err)
	}
	return nil
}

// UnlinkCardFromCollection removes the link record between a card and a
// collection, if one exists.
func (c *Client) UnlinkCardFromCollection(ctx context.Context, cardURI, collectionURI string) error {
	links, err := c.GetAllCollectionLinks(ctx)
	if err != nil {
		return fmt.Errorf("remote: unlink card: %w", err)
	}
	for _, l := range links {
		if l.Value.Card.URI == cardURI && l.Value.Collection.URI == collectionURI {
			return c.DeleteRecord(ctx, NSIDCollectionLink, rkeyFromURI(l.URI))
		}
	}
	return nil
}

// GetAllCollectionLinks lists every card↔collection link record.
func (c *Client) GetAllCollectionLinks(ctx context.Context) ([]LinkRecord, error) {
	raws, err := c.listAll(ctx, NSIDCollectionLink)
	if err != nil {
		return nil, fmt.Errorf("remote: list links: %w", err)
	}
	out := make([]LinkRecord, 0, len(raws))
	for _, r := range raws {
		rec := LinkRecord{URI: r.URI}
		if err := json.Unmarshal(r.Value, &rec.Value); err != nil {
			return nil, fmt.Errorf("remote: decode link %s: %w", r.URI, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// listAll paginates through com.atproto.repo.listRecords until the cursor
// runs out.
func (c *Client) listAll(ctx context.Context, collection string) ([]rawRecord, error) {
	var all []rawRecord
	cursor := ""
	for {
		params := url.Values{}
		params.Set("repo", c.did)
		params.Set("collection", collection)
		params.Set("limit", strconv.Itoa(listPageSize))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp listRecordsResponse
		if err := c.do(ctx, http.MethodGet, "com.atproto.repo.listRecords", params, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Records...)

		if resp.Cursor == "" || len(resp.Records) == 0 {
			break
		}
		cursor = resp.Cursor
	}
	return all, nil
}
