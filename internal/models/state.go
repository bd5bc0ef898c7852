package models

import "time"

// Direction records which way a reference was last synced.
type Direction string

const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
)

// SyncedReference is the last known correspondence between one local
// object and one remote card. References are never physically removed:
// when the local object disappears and the remote delete succeeds the
// reference is marked Deleted, preserving sync history.
type SyncedReference struct {
	LocalID        string    `json:"localId"`
	URI            string    `json:"uri"`
	CID            string    `json:"cid"`
	ContentHash    string    `json:"contentHash"`
	SyncedAt       time.Time `json:"syncedAt"`
	Direction      Direction `json:"direction"`
	Deleted        bool      `json:"deleted,omitempty"`
	RemoteCID      string    `json:"remoteCid,omitempty"`
	CollectionURIs []string  `json:"collectionUris,omitempty"`
}

// SyncState is everything the engine believes about the remote side of
// one project. It is owned by the orchestrator for the duration of a run
// and persisted as JSON afterwards.
type SyncState struct {
	Project        string                      `json:"project"`
	CollectionURIs map[string]string           `json:"collectionUris"`
	References     map[string]*SyncedReference `json:"references"`
	LastSync       time.Time                   `json:"lastSync"`
}

// NewSyncState creates an empty state for a project.
func NewSyncState(project string) *SyncState {
	return &SyncState{
		Project:        project,
		CollectionURIs: make(map[string]string),
		References:     make(map[string]*SyncedReference),
	}
}

// Reference returns the reference for a local ID, or nil.
func (s *SyncState) Reference(localID string) *SyncedReference {
	if s.References == nil {
		return nil
	}
	return s.References[localID]
}

// SetReference stores ref under its local ID.
func (s *SyncState) SetReference(ref *SyncedReference) {
	if s.References == nil {
		s.References = make(map[string]*SyncedReference)
	}
	s.References[ref.LocalID] = ref
}

// CollectionURI returns the cached URI for a collection name, or "".
func (s *SyncState) CollectionURI(name string) string {
	if s.CollectionURIs == nil {
		return ""
	}
	return s.CollectionURIs[name]
}

// SetCollectionURI caches a resolved collection URI under its name.
func (s *SyncState) SetCollectionURI(name, uri string) {
	if s.CollectionURIs == nil {
		s.CollectionURIs = make(map[string]string)
	}
	s.CollectionURIs[name] = uri
}
