package sync

import (
	"context"

	"github.com/starford/raido/internal/models"
)

// relink reconciles collection membership for already-synced cards
// against current local tags. Tag edits do not change card content, so
// the push engine's hash check never sees them; this phase does.
//
// All existing link records are fetched in one bulk call up front and per
// card decisions work off that map, avoiding one remote query per card.
func (e *Engine) relink(ctx context.Context, st *models.SyncState, objects []*models.VaultObject, collections collectionSet, opts Options, result *Result) {
	links, err := e.repo.GetAllCollectionLinks(ctx)
	if err != nil {
		result.addError("relink", models.DirectionPush, err)
		return
	}

	// card URI → collection URIs currently linked.
	linkedTo := make(map[string][]string)
	for _, l := range links {
		linkedTo[l.Value.Card.URI] = append(linkedTo[l.Value.Card.URI], l.Value.Collection.URI)
	}

	byID := make(map[string]*models.VaultObject, len(objects))
	for _, obj := range objects {
		byID[obj.Citekey()] = obj
	}

	for localID, ref := range st.References {
		if ref.Direction != models.DirectionPush || ref.Deleted {
			continue
		}
		obj, ok := byID[localID]
		if !ok {
			continue
		}

		desired := objectCollections(e.project, obj)
		current := linkedTo[ref.URI]

		linked := e.reconcileLinks(ctx, st, localID, ref.URI, ref.CID, current, desired, collections, opts, result)
		if !opts.DryRun {
			ref.CollectionURIs = linked
		}
	}
}
