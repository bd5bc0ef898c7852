package sync

import "github.com/starford/raido/internal/models"

// Conflict reasons.
const (
	ReasonRemoteChanged = "remote-changed"
	ReasonRemoteMissing = "remote-missing"
)

// Conflict describes one object whose local and remote sides diverged.
type Conflict struct {
	ID        string `json:"id"`
	LocalHash string `json:"localHash"`
	RemoteCID string `json:"remoteCid,omitempty"`
	Reason    string `json:"reason"`
}

// ObjectError records a per-object failure; the run continues past it.
type ObjectError struct {
	ID        string           `json:"id"`
	Error     string           `json:"error"`
	Direction models.Direction `json:"direction"`
}

// Result aggregates the outcome of one sync run.
type Result struct {
	Pushed    int           `json:"pushed"`
	Pulled    int           `json:"pulled"`
	Updated   int           `json:"updated"`
	Deleted   int           `json:"deleted"`
	Skipped   int           `json:"skipped"`
	Conflicts []Conflict    `json:"conflicts,omitempty"`
	Errors    []ObjectError `json:"errors,omitempty"`

	// NewObjects are vault objects created by the pull phase, returned so
	// callers can update their in-memory view without a full reload.
	NewObjects []*models.VaultObject `json:"-"`
}

func (r *Result) addError(id string, direction models.Direction, err error) {
	r.Errors = append(r.Errors, ObjectError{ID: id, Error: err.Error(), Direction: direction})
}

func (r *Result) addConflict(id, localHash, remoteCID, reason string) {
	r.Conflicts = append(r.Conflicts, Conflict{ID: id, LocalHash: localHash, RemoteCID: remoteCID, Reason: reason})
}
