package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/remote"
	"github.com/starford/raido/internal/state"
	syncengine "github.com/starford/raido/internal/sync"
	"github.com/starford/raido/internal/vault"
)

// buildEngine assembles the sync engine and its collaborators from config.
// The returned cleanup closes the object index.
func buildEngine(cfg *Config, logger *slog.Logger) (*syncengine.Engine, *state.Store, *index.DB, func(), error) {
	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init vault: %w", err)
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Scan(db, store, logger); err != nil {
		logger.Warn("index scan failed", slog.String("error", err.Error()))
	}

	states, err := state.NewStore(cfg.Sync.StateDir)
	if err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("init state store: %w", err)
	}

	engine := syncengine.New(syncengine.EngineConfig{
		Repo:       remote.NewClient(cfg.Remote.URL),
		Vault:      store,
		Index:      db,
		States:     states,
		Logger:     logger,
		Project:    cfg.Sync.Project,
		Identifier: cfg.Remote.Identifier,
		Password:   cfg.Remote.Password,
	})
	return engine, states, db, func() { _ = db.Close() }, nil
}

func cliLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// RunSync executes one sync session from the CLI and prints a summary.
func RunSync(ctx context.Context, cfg *Config, opts syncengine.Options) error {
	logger := cliLogger(cfg)

	engine, _, _, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.Progress == nil {
		opts.Progress = func(line string) { fmt.Println(line) }
	}

	result, err := engine.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("pushed:    %d\n", result.Pushed)
	fmt.Printf("updated:   %d\n", result.Updated)
	fmt.Printf("pulled:    %d\n", result.Pulled)
	fmt.Printf("deleted:   %d\n", result.Deleted)
	fmt.Printf("skipped:   %d\n", result.Skipped)
	if len(result.Conflicts) > 0 {
		fmt.Printf("conflicts: %d\n", len(result.Conflicts))
		for _, c := range result.Conflicts {
			fmt.Printf("  %s (%s)\n", c.ID, c.Reason)
		}
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s (%s): %s\n", e.ID, e.Direction, e.Error)
		}
		return fmt.Errorf("sync finished with %d errors", len(result.Errors))
	}
	return nil
}

// RunStatus prints a one-screen summary of the persisted sync state.
func RunStatus(cfg *Config) error {
	states, err := state.NewStore(cfg.Sync.StateDir)
	if err != nil {
		return fmt.Errorf("init state store: %w", err)
	}
	st, err := states.Load(cfg.Sync.Project)
	if err != nil {
		return err
	}

	active, deleted := 0, 0
	for _, ref := range st.References {
		if ref.Deleted {
			deleted++
		} else {
			active++
		}
	}

	fmt.Printf("project:     %s\n", st.Project)
	fmt.Printf("state file:  %s\n", states.Path(st.Project))
	fmt.Printf("references:  %d active, %d deleted\n", active, deleted)
	fmt.Printf("collections: %d\n", len(st.CollectionURIs))
	if st.LastSync.IsZero() {
		fmt.Println("last sync:   never")
	} else {
		fmt.Printf("last sync:   %s\n", st.LastSync.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

// RunMCP starts the MCP stdio server.
func RunMCP(cfg *Config) error {
	logger := cliLogger(cfg)

	engine, states, db, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return mcpserver.New(engine, states, db, cfg.Sync.Project).ServeStdio()
}
