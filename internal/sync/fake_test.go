package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/remote"
	"github.com/starford/raido/internal/state"
	"github.com/starford/raido/internal/vault"
)

// fakeRepo is an in-memory RemoteRepo. Every call is appended to calls so
// tests can assert how many remote operations a run issued.
type fakeRepo struct {
	cards       map[string]*remote.CardRecord
	collections []remote.CollectionRecord
	links       []remote.LinkRecord

	nextID int
	calls  []string

	loginErr           error
	getCardErr         error
	createCardErr      error
	listCollectionsErr error
	deleteErr          error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{cards: make(map[string]*remote.CardRecord)}
}

func (f *fakeRepo) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRepo) callCount(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeRepo) newRef(collection string) remote.RecordRef {
	f.nextID++
	return remote.RecordRef{
		URI: fmt.Sprintf("at://did:plc:test/%s/rkey%d", collection, f.nextID),
		CID: fmt.Sprintf("cid-%d", f.nextID),
	}
}

// seedCard stores a card as if it had been created out of band.
func (f *fakeRepo) seedCard(card models.Card) remote.RecordRef {
	ref := f.newRef(remote.NSIDCard)
	f.cards[ref.URI] = &remote.CardRecord{URI: ref.URI, CID: ref.CID, Value: card}
	return ref
}

func (f *fakeRepo) Login(ctx context.Context, identifier, password string) error {
	f.record("Login")
	return f.loginErr
}

func (f *fakeRepo) FindCollectionByName(ctx context.Context, name string) (*models.CollectionRef, error) {
	f.record("FindCollectionByName " + name)
	for _, rec := range f.collections {
		if rec.Value.Name == name {
			return &models.CollectionRef{URI: rec.URI, CID: rec.CID}, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CreateCollection(ctx context.Context, name, description string) (*models.CollectionRef, error) {
	f.record("CreateCollection " + name)
	ref := f.newRef(remote.NSIDCollection)
	f.collections = append(f.collections, remote.CollectionRecord{
		URI:   ref.URI,
		CID:   ref.CID,
		Value: models.CollectionValue{Name: name, Description: description},
	})
	return &models.CollectionRef{URI: ref.URI, CID: ref.CID}, nil
}

func (f *fakeRepo) ListCollections(ctx context.Context) ([]remote.CollectionRecord, error) {
	f.record("ListCollections")
	if f.listCollectionsErr != nil {
		return nil, f.listCollectionsErr
	}
	return append([]remote.CollectionRecord(nil), f.collections...), nil
}

func (f *fakeRepo) CreateCard(ctx context.Context, card models.Card) (*remote.RecordRef, error) {
	f.record("CreateCard " + card.URL)
	if f.createCardErr != nil {
		return nil, f.createCardErr
	}
	ref := f.newRef(remote.NSIDCard)
	f.cards[ref.URI] = &remote.CardRecord{URI: ref.URI, CID: ref.CID, Value: card}
	return &ref, nil
}

func (f *fakeRepo) UpdateCard(ctx context.Context, uri string, card models.Card) (*remote.RecordRef, error) {
	f.record("UpdateCard " + uri)
	rec, ok := f.cards[uri]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	f.nextID++
	rec.CID = fmt.Sprintf("cid-%d", f.nextID)
	rec.Value = card
	return &remote.RecordRef{URI: uri, CID: rec.CID}, nil
}

func (f *fakeRepo) GetCard(ctx context.Context, uri string) (*remote.CardRecord, error) {
	f.record("GetCard " + uri)
	if f.getCardErr != nil {
		return nil, f.getCardErr
	}
	rec, ok := f.cards[uri]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) DeleteRecord(ctx context.Context, collection, rkey string) error {
	f.record("DeleteRecord " + collection + "/" + rkey)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for uri := range f.cards {
		if strings.HasSuffix(uri, "/"+rkey) {
			delete(f.cards, uri)
			return nil
		}
	}
	for i, l := range f.links {
		if strings.HasSuffix(l.URI, "/"+rkey) {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) LinkCardToCollection(ctx context.Context, cardURI, cardCID, collectionURI, collectionCID string) error {
	f.record("Link " + cardURI + " " + collectionURI)
	ref := f.newRef(remote.NSIDCollectionLink)
	f.links = append(f.links, remote.LinkRecord{
		URI: ref.URI,
		Value: remote.LinkValue{
			Card:       remote.RecordRef{URI: cardURI, CID: cardCID},
			Collection: remote.RecordRef{URI: collectionURI, CID: collectionCID},
		},
	})
	return nil
}

func (f *fakeRepo) UnlinkCardFromCollection(ctx context.Context, cardURI, collectionURI string) error {
	f.record("Unlink " + cardURI + " " + collectionURI)
	for i, l := range f.links {
		if l.Value.Card.URI == cardURI && l.Value.Collection.URI == collectionURI {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) GetAllCollectionLinks(ctx context.Context) ([]remote.LinkRecord, error) {
	f.record("GetAllCollectionLinks")
	return append([]remote.LinkRecord(nil), f.links...), nil
}

func (f *fakeRepo) GetAllCards(ctx context.Context) ([]remote.CardRecord, error) {
	f.record("GetAllCards")
	out := make([]remote.CardRecord, 0, len(f.cards))
	for _, rec := range f.cards {
		out = append(out, *rec)
	}
	return out, nil
}

var _ RemoteRepo = (*fakeRepo)(nil)

// testEnv bundles an engine with its fake repo and on-disk collaborators.
type testEnv struct {
	repo   *fakeRepo
	fs     *vault.FS
	states *state.Store
	engine *Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fs, err := vault.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	states, err := state.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	repo := newFakeRepo()
	engine := New(EngineConfig{
		Repo:       repo,
		Vault:      fs,
		States:     states,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Project:    "research",
		Identifier: "user.test",
		Password:   "hunter2",
	})
	return &testEnv{repo: repo, fs: fs, states: states, engine: engine}
}

func (env *testEnv) writeObject(t *testing.T, relPath, content string) {
	t.Helper()
	if err := env.fs.Write(relPath, []byte(content)); err != nil {
		t.Fatalf("Write %s: %v", relPath, err)
	}
}

func (env *testEnv) run(t *testing.T, opts Options) *Result {
	t.Helper()
	result, err := env.engine.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

const paperMD = `---
citekey: smith2024
title: A Paper
url: https://example.org/paper
author:
  - Jane Smith
tags:
  - collection:ml
---
Notes about the paper.
`
