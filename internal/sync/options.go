// Package sync implements the engine that keeps a vault project and the
// remote card repository consistent: content-hash change detection,
// per-object reference tracking, conflict resolution, collection
// membership reconciliation, delete propagation, and push/pull
// orchestration.
package sync

// Strategy defines how the push engine resolves a conflict, i.e. an
// object whose local content and remote card both changed since the last
// successful sync. Resolution happens at a single decision point so all
// strategies share one code path.
type Strategy string

const (
	// StrategyLocalWins updates the remote card with local content.
	StrategyLocalWins Strategy = "local-wins"

	// StrategyRemoteWins keeps the remote card and skips the local push.
	StrategyRemoteWins Strategy = "remote-wins"

	// StrategySkipConflicts leaves both sides untouched (default).
	StrategySkipConflicts Strategy = "skip-conflicts"

	// StrategyErrorOnConflict records the conflict as an error and
	// modifies nothing.
	StrategyErrorOnConflict Strategy = "error-on-conflict"
)

// IsValid returns true if the strategy is recognized.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyLocalWins, StrategyRemoteWins, StrategySkipConflicts, StrategyErrorOnConflict:
		return true
	default:
		return false
	}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// AllStrategies returns all supported merge strategies.
func AllStrategies() []Strategy {
	return []Strategy{StrategyLocalWins, StrategyRemoteWins, StrategySkipConflicts, StrategyErrorOnConflict}
}

// Options control one sync run.
type Options struct {
	// PushOnly skips the pull phase.
	PushOnly bool
	// PullOnly skips the push, delete, and relink phases.
	PullOnly bool
	// DryRun executes every decision, including conflict detection
	// against the remote, but issues no mutating call.
	DryRun bool
	// Force pushes objects even when their content hash is unchanged.
	Force bool
	// Strategy selects conflict resolution; empty means skip-conflicts.
	Strategy Strategy
	// SyncDeletes enables remote deletion of cards whose local objects
	// vanished. Off by default since it is destructive.
	SyncDeletes bool
	// RelinkCollections reconciles collection membership of already
	// synced cards against current local tags.
	RelinkCollections bool
	// Progress, if non-nil, receives human-readable log lines.
	Progress func(line string)
}

// normalized returns a copy with defaults applied.
func (o Options) normalized() Options {
	if o.Strategy == "" {
		o.Strategy = StrategySkipConflicts
	}
	return o
}
