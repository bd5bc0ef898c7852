package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/raido/internal/models"
)

// CollectionTagPrefix marks tags that derive extra collection membership:
// an object tagged "collection:data" in project "p" belongs to "p:data"
// in addition to the project collection "p".
const CollectionTagPrefix = "collection:"

// collectionSet maps resolved collection names to their remote refs.
type collectionSet map[string]models.CollectionRef

// requiredCollections computes every collection name the project needs:
// the project's own collection plus one derived collection per distinct
// collection tag across all objects.
func requiredCollections(project string, objects []*models.VaultObject) []string {
	seen := map[string]struct{}{project: {}}
	for _, obj := range objects {
		for _, name := range derivedCollections(project, obj) {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// derivedCollections returns the tag-derived collection names of one object.
func derivedCollections(project string, obj *models.VaultObject) []string {
	var out []string
	for _, tag := range obj.Tags() {
		suffix := strings.TrimPrefix(tag, CollectionTagPrefix)
		if suffix == tag || suffix == "" {
			continue
		}
		out = append(out, project+":"+suffix)
	}
	return out
}

// objectCollections returns every collection name one object belongs to:
// the project collection plus its derived ones.
func objectCollections(project string, obj *models.VaultObject) []string {
	return append([]string{project}, derivedCollections(project, obj)...)
}

// resolveCollections ensures every required collection exists remotely and
// returns their refs. Cached URIs in sync state are verified against a
// single bulk listing; a cached name that no longer resolves is treated as
// uncached and re-resolved by name, then created if absent. Creation is
// skipped under dry-run and only logged.
func (e *Engine) resolveCollections(ctx context.Context, st *models.SyncState, objects []*models.VaultObject, opts Options) (collectionSet, error) {
	required := requiredCollections(st.Project, objects)

	recs, err := e.repo.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: list collections: %w", err)
	}
	byURI := make(map[string]models.CollectionRef, len(recs))
	byName := make(map[string]models.CollectionRef, len(recs))
	for _, rec := range recs {
		ref := models.CollectionRef{URI: rec.URI, CID: rec.CID}
		byURI[rec.URI] = ref
		byName[rec.Value.Name] = ref
	}

	resolved := make(collectionSet, len(required))
	for _, name := range required {
		// Cached and still alive remotely.
		if uri := st.CollectionURI(name); uri != "" {
			if ref, ok := byURI[uri]; ok {
				resolved[name] = ref
				continue
			}
			// Cached URI is stale (collection deleted manually): re-resolve.
			e.progress(opts, "collection %q: cached reference is gone, re-resolving", name)
		}

		if ref, ok := byName[name]; ok {
			st.SetCollectionURI(name, ref.URI)
			resolved[name] = ref
			continue
		}

		if opts.DryRun {
			e.progress(opts, "dry-run: would create collection %q", name)
			continue
		}

		ref, err := e.repo.CreateCollection(ctx, name, collectionDescription(st.Project, name))
		if err != nil {
			return resolved, fmt.Errorf("sync: create collection %q: %w", name, err)
		}
		st.SetCollectionURI(name, ref.URI)
		resolved[name] = *ref
		e.progress(opts, "created collection %q", name)
	}

	return resolved, nil
}

func collectionDescription(project, name string) string {
	if name == project {
		return fmt.Sprintf("Cards synced from the %s vault", project)
	}
	return fmt.Sprintf("Cards tagged %s%s in the %s vault",
		CollectionTagPrefix, strings.TrimPrefix(name, project+":"), project)
}
