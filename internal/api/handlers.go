package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/starford/raido/internal/state"
	syncengine "github.com/starford/raido/internal/sync"
)

// SyncRunner runs one sync session. *sync.Engine satisfies it.
type SyncRunner interface {
	Run(ctx context.Context, opts syncengine.Options) (*syncengine.Result, error)
}

// Handler holds API route handlers.
type Handler struct {
	runner  SyncRunner
	states  *state.Store
	project string

	// running guards against concurrent sync sessions: the engine
	// assumes one session per project at a time.
	running atomic.Bool
}

// NewHandler creates a new Handler.
func NewHandler(runner SyncRunner, states *state.Store, project string) *Handler {
	return &Handler{runner: runner, states: states, project: project}
}

// statusResponse summarizes the persisted sync state.
type statusResponse struct {
	Project     string `json:"project"`
	References  int    `json:"references"`
	Deleted     int    `json:"deleted"`
	Collections int    `json:"collections"`
	LastSync    string `json:"lastSync,omitempty"`
	SyncRunning bool   `json:"syncRunning"`
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	st, err := h.states.Load(h.project)
	if err != nil {
		slog.Error("load sync state failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	resp := statusResponse{
		Project:     st.Project,
		Collections: len(st.CollectionURIs),
		SyncRunning: h.running.Load(),
	}
	for _, ref := range st.References {
		if ref.Deleted {
			resp.Deleted++
		} else {
			resp.References++
		}
	}
	if !st.LastSync.IsZero() {
		resp.LastSync = st.LastSync.Format("2006-01-02T15:04:05Z07:00")
	}
	writeJSON(w, http.StatusOK, resp)
}

// syncRequest mirrors the engine's run options.
type syncRequest struct {
	PushOnly    bool   `json:"pushOnly"`
	PullOnly    bool   `json:"pullOnly"`
	DryRun      bool   `json:"dryRun"`
	Force       bool   `json:"force"`
	Strategy    string `json:"strategy"`
	SyncDeletes bool   `json:"syncDeletes"`
	Relink      bool   `json:"relink"`
}

// Sync handles POST /api/sync: it runs one sync session and returns the
// aggregated result. A session already in flight yields 409.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
			return
		}
	}
	if req.Strategy != "" && !syncengine.Strategy(req.Strategy).IsValid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown strategy"))
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, errorBody("sync already running"))
		return
	}
	defer h.running.Store(false)

	result, err := h.runner.Run(r.Context(), syncengine.Options{
		PushOnly:          req.PushOnly,
		PullOnly:          req.PullOnly,
		DryRun:            req.DryRun,
		Force:             req.Force,
		Strategy:          syncengine.Strategy(req.Strategy),
		SyncDeletes:       req.SyncDeletes,
		RelinkCollections: req.Relink,
	})
	if err != nil {
		slog.Error("sync run failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
