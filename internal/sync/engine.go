package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/state"
	"github.com/starford/raido/internal/vault"
)

// Engine orchestrates one sync session per project: load state, log in,
// resolve collections, push, optionally propagate deletes and relink,
// pull, persist state. Phases run sequentially; per-object failures are
// recorded and do not abort later phases.
type Engine struct {
	repo   RemoteRepo
	store  vault.Provider
	idx    index.ObjectIndex
	states *state.Store
	logger *slog.Logger

	project    string
	identifier string
	password   string
}

// EngineConfig wires an Engine together. Index is optional; when present
// the pull phase uses it for its URL de-duplication fast path.
type EngineConfig struct {
	Repo       RemoteRepo
	Vault      vault.Provider
	Index      index.ObjectIndex
	States     *state.Store
	Logger     *slog.Logger
	Project    string
	Identifier string
	Password   string
}

// New creates a sync engine.
func New(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:       cfg.Repo,
		store:      cfg.Vault,
		idx:        cfg.Index,
		states:     cfg.States,
		logger:     logger,
		project:    cfg.Project,
		identifier: cfg.Identifier,
		password:   cfg.Password,
	}
}

// Run executes one sync session. Only a configuration error, a failed
// login, or an unreadable vault aborts the run before any remote
// mutation; everything after that is best-effort and lands in the result.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.normalized()
	if !opts.Strategy.IsValid() {
		return nil, fmt.Errorf("sync: unknown merge strategy %q", opts.Strategy)
	}
	if e.identifier == "" || e.password == "" {
		return nil, fmt.Errorf("sync: remote credentials are required")
	}
	if e.project == "" {
		return nil, fmt.Errorf("sync: project is required")
	}

	st, err := e.states.Load(e.project)
	if err != nil {
		return nil, err
	}

	objects, err := vault.LoadObjects(e.store, e.project)
	if err != nil {
		return nil, fmt.Errorf("sync: load vault objects: %w", err)
	}
	e.progress(opts, "loaded %d vault objects for project %q", len(objects), e.project)

	if err := e.repo.Login(ctx, e.identifier, e.password); err != nil {
		return nil, err
	}

	result := &Result{}

	collections, err := e.resolveCollections(ctx, st, objects, opts)
	if err != nil {
		// Push proceeds with whatever resolved; link failures surface
		// per object.
		e.logger.Warn("collection resolution incomplete", slog.String("error", err.Error()))
		result.addError("collections", models.DirectionPush, err)
	}

	if !opts.PullOnly {
		e.push(ctx, st, objects, collections, opts, result)

		if opts.SyncDeletes {
			e.propagateDeletes(ctx, st, objects, opts, result)
		}
		if opts.RelinkCollections {
			e.relink(ctx, st, objects, collections, opts, result)
		}
	}

	if !opts.PushOnly {
		e.pull(ctx, st, objects, opts, result)
	}

	if !opts.DryRun {
		st.LastSync = time.Now().UTC()
		if err := e.states.Save(st); err != nil {
			// The sync itself happened; flag that recorded progress may
			// be lost and some objects reprocessed next run.
			result.addError("state", models.DirectionPush,
				fmt.Errorf("persist sync state (operations may be retried next run): %w", err))
		}
	}

	e.progress(opts, "sync done: pushed=%d updated=%d pulled=%d deleted=%d skipped=%d conflicts=%d errors=%d",
		result.Pushed, result.Updated, result.Pulled, result.Deleted, result.Skipped,
		len(result.Conflicts), len(result.Errors))

	return result, nil
}

// progress logs a line and forwards it to the run's progress callback.
func (e *Engine) progress(opts Options, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	e.logger.Debug(line)
	if opts.Progress != nil {
		opts.Progress(line)
	}
}
