package sync

import (
	"context"
	"time"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/remote"
)

// propagateDeletes removes remote cards whose local objects vanished.
// Candidates are push references, not yet tombstoned, whose local ID no
// longer appears among current objects. On success the reference is
// marked deleted with a fresh timestamp; history is retained, never
// erased. This phase only runs when explicitly enabled.
func (e *Engine) propagateDeletes(ctx context.Context, st *models.SyncState, objects []*models.VaultObject, opts Options, result *Result) {
	present := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		present[obj.Citekey()] = struct{}{}
	}

	for localID, ref := range st.References {
		if ref.Direction != models.DirectionPush || ref.Deleted {
			continue
		}
		if _, ok := present[localID]; ok {
			continue
		}

		if opts.DryRun {
			e.progress(opts, "dry-run: would delete remote card for %s", localID)
			result.Deleted++
			continue
		}

		if err := e.repo.DeleteRecord(ctx, remote.NSIDCard, rkeyOf(ref.URI)); err != nil {
			result.addError(localID, models.DirectionPush, err)
			continue
		}
		ref.Deleted = true
		ref.SyncedAt = time.Now().UTC()
		result.Deleted++
		e.progress(opts, "deleted remote card for %s", localID)
	}
}

// rkeyOf extracts the record key from an at:// URI.
func rkeyOf(uri string) string {
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == '/' {
			return uri[i+1:]
		}
	}
	return uri
}
