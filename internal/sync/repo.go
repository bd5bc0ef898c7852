package sync

import (
	"context"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/remote"
)

// RemoteRepo is the card repository surface the engine depends on.
// Consumers depend on this interface rather than the concrete
// *remote.Client to facilitate testing with fakes. No call is atomic with
// respect to any other; every call may fail with a network or
// authorization error.
type RemoteRepo interface {
	Login(ctx context.Context, identifier, password string) error
	FindCollectionByName(ctx context.Context, name string) (*models.CollectionRef, error)
	CreateCollection(ctx context.Context, name, description string) (*models.CollectionRef, error)
	ListCollections(ctx context.Context) ([]remote.CollectionRecord, error)
	CreateCard(ctx context.Context, card models.Card) (*remote.RecordRef, error)
	UpdateCard(ctx context.Context, uri string, card models.Card) (*remote.RecordRef, error)
	GetCard(ctx context.Context, uri string) (*remote.CardRecord, error)
	DeleteRecord(ctx context.Context, collection, rkey string) error
	LinkCardToCollection(ctx context.Context, cardURI, cardCID, collectionURI, collectionCID string) error
	UnlinkCardFromCollection(ctx context.Context, cardURI, collectionURI string) error
	GetAllCollectionLinks(ctx context.Context) ([]remote.LinkRecord, error)
	GetAllCards(ctx context.Context) ([]remote.CardRecord, error)
}

// Verify *remote.Client satisfies RemoteRepo at compile time.
var _ RemoteRepo = (*remote.Client)(nil)
