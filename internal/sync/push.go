package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// push walks every local object and creates or updates its remote card.
// Objects without a URL are skipped. For previously pushed objects the
// content hash short-circuits unchanged content; changed content goes
// through conflict detection against the live remote CID, and the
// configured strategy is applied at this single decision point.
func (e *Engine) push(ctx context.Context, st *models.SyncState, objects []*models.VaultObject, collections collectionSet, opts Options, result *Result) {
	for _, obj := range objects {
		localID := obj.Citekey()

		card := ObjectToCard(obj)
		if card == nil {
			result.Skipped++
			e.progress(opts, "skip %s: no url", localID)
			continue
		}
		hash, err := HashCard(*card)
		if err != nil {
			result.addError(localID, models.DirectionPush, err)
			continue
		}

		desired := objectCollections(e.project, obj)
		ref := st.Reference(localID)

		// A tombstoned reference whose object reappeared locally is
		// treated as new: the old remote card is gone.
		if ref == nil || ref.Deleted {
			e.createCard(ctx, st, localID, *card, hash, desired, collections, opts, result)
			continue
		}

		if hash == ref.ContentHash && !opts.Force {
			result.Skipped++
			continue
		}

		// Conflict detection reads the remote state immediately before
		// mutating it.
		currentCID := ""
		remoteMissing := false
		rec, err := e.repo.GetCard(ctx, ref.URI)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			remoteMissing = true
		case err != nil:
			result.addError(localID, models.DirectionPush, err)
			continue
		default:
			currentCID = rec.CID
		}

		if remoteMissing || currentCID != ref.RemoteCID {
			reason := ReasonRemoteChanged
			if remoteMissing {
				reason = ReasonRemoteMissing
			}
			result.addConflict(localID, hash, currentCID, reason)

			switch opts.Strategy {
			case StrategySkipConflicts, StrategyRemoteWins:
				result.Skipped++
				e.progress(opts, "conflict %s (%s): skipped under %s", localID, reason, opts.Strategy)
				continue
			case StrategyErrorOnConflict:
				result.addError(localID, models.DirectionPush,
					fmt.Errorf("conflict: remote cid %q != last synced %q", currentCID, ref.RemoteCID))
				continue
			case StrategyLocalWins:
				if remoteMissing {
					// The card was deleted externally: re-create it
					// rather than updating a gone record.
					e.progress(opts, "conflict %s: remote card gone, re-creating", localID)
					e.createCard(ctx, st, localID, *card, hash, desired, collections, opts, result)
					continue
				}
				e.progress(opts, "conflict %s: overwriting remote under local-wins", localID)
			}
		}

		e.updateCard(ctx, st, localID, ref, *card, hash, desired, collections, opts, result)
	}
}

// createCard creates the remote card, links it to every required
// collection, and records a fresh push reference.
func (e *Engine) createCard(ctx context.Context, st *models.SyncState, localID string, card models.Card, hash string, desired []string, collections collectionSet, opts Options, result *Result) {
	if opts.DryRun {
		e.progress(opts, "dry-run: would create card for %s", localID)
		result.Pushed++
		return
	}

	recRef, err := e.repo.CreateCard(ctx, card)
	if err != nil {
		result.addError(localID, models.DirectionPush, err)
		return
	}

	var linked []string
	for _, name := range desired {
		cref, ok := collections[name]
		if !ok {
			continue
		}
		if err := e.repo.LinkCardToCollection(ctx, recRef.URI, recRef.CID, cref.URI, cref.CID); err != nil {
			result.addError(localID, models.DirectionPush, fmt.Errorf("link to %q: %w", name, err))
			continue
		}
		linked = append(linked, cref.URI)
	}
	sort.Strings(linked)

	st.SetReference(&models.SyncedReference{
		LocalID:        localID,
		URI:            recRef.URI,
		CID:            recRef.CID,
		ContentHash:    hash,
		SyncedAt:       time.Now().UTC(),
		Direction:      models.DirectionPush,
		RemoteCID:      recRef.CID,
		CollectionURIs: linked,
	})
	result.Pushed++
	e.progress(opts, "pushed %s", localID)
}

// updateCard replaces the remote card content, reconciles its collection
// links, and refreshes the reference.
func (e *Engine) updateCard(ctx context.Context, st *models.SyncState, localID string, ref *models.SyncedReference, card models.Card, hash string, desired []string, collections collectionSet, opts Options, result *Result) {
	if opts.DryRun {
		e.progress(opts, "dry-run: would update card for %s", localID)
		result.Updated++
		return
	}

	recRef, err := e.repo.UpdateCard(ctx, ref.URI, card)
	if err != nil {
		result.addError(localID, models.DirectionPush, err)
		return
	}

	linked := e.reconcileLinks(ctx, st, localID, recRef.URI, recRef.CID, ref.CollectionURIs, desired, collections, opts, result)

	ref.CID = recRef.CID
	ref.RemoteCID = recRef.CID
	ref.ContentHash = hash
	ref.SyncedAt = time.Now().UTC()
	ref.Direction = models.DirectionPush
	ref.Deleted = false
	ref.CollectionURIs = linked
	st.SetReference(ref)
	result.Updated++
	e.progress(opts, "updated %s", localID)
}

// reconcileLinks brings a card's collection links in line with the
// desired set: missing links are created, stale links to collections this
// engine manages are removed, links to foreign collections are left
// untouched. It returns the card's resulting collection URIs.
func (e *Engine) reconcileLinks(ctx context.Context, st *models.SyncState, localID, cardURI, cardCID string, currentURIs, desired []string, collections collectionSet, opts Options, result *Result) []string {
	desiredByURI := make(map[string]models.CollectionRef, len(desired))
	for _, name := range desired {
		if ref, ok := collections[name]; ok {
			desiredByURI[ref.URI] = ref
		}
	}
	current := make(map[string]struct{}, len(currentURIs))
	for _, uri := range currentURIs {
		current[uri] = struct{}{}
	}
	managed := make(map[string]struct{}, len(st.CollectionURIs))
	for _, uri := range st.CollectionURIs {
		managed[uri] = struct{}{}
	}

	var final []string

	for uri, cref := range desiredByURI {
		if _, ok := current[uri]; ok {
			final = append(final, uri)
			continue
		}
		if opts.DryRun {
			e.progress(opts, "dry-run: would link %s to %s", localID, uri)
			final = append(final, uri)
			continue
		}
		if err := e.repo.LinkCardToCollection(ctx, cardURI, cardCID, cref.URI, cref.CID); err != nil {
			result.addError(localID, models.DirectionPush, fmt.Errorf("link %s: %w", uri, err))
			continue
		}
		final = append(final, uri)
	}

	for uri := range current {
		if _, ok := desiredByURI[uri]; ok {
			continue
		}
		if _, ours := managed[uri]; !ours {
			// Foreign collection: keep the link and keep recording it.
			final = append(final, uri)
			continue
		}
		if opts.DryRun {
			e.progress(opts, "dry-run: would unlink %s from %s", localID, uri)
			continue
		}
		if err := e.repo.UnlinkCardFromCollection(ctx, cardURI, uri); err != nil {
			result.addError(localID, models.DirectionPush, fmt.Errorf("unlink %s: %w", uri, err))
			final = append(final, uri)
		}
	}

	sort.Strings(final)
	return final
}
