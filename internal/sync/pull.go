package sync

import (
	"context"
	"time"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/vault"
)

// pull imports remote cards that are not yet represented locally. Cards
// already recorded in sync state are skipped, as is any URL card whose
// URL already exists among current local objects. That de-duplication
// holds even when no reference was ever recorded (e.g. after the state
// file was deleted).
func (e *Engine) pull(ctx context.Context, st *models.SyncState, objects []*models.VaultObject, opts Options, result *Result) {
	cards, err := e.repo.GetAllCards(ctx)
	if err != nil {
		result.addError("pull", models.DirectionPull, err)
		return
	}

	knownURI := make(map[string]struct{}, len(st.References))
	for _, ref := range st.References {
		knownURI[ref.URI] = struct{}{}
	}
	localURLs := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		if u := obj.URL(); u != "" {
			localURLs[u] = struct{}{}
		}
	}

	now := time.Now().UTC()
	for _, rec := range cards {
		if _, ok := knownURI[rec.URI]; ok {
			continue
		}
		if rec.Value.Type == models.CardTypeURL && rec.Value.URL != "" {
			if _, ok := localURLs[rec.Value.URL]; ok {
				result.Skipped++
				e.progress(opts, "skip pull %s: url already in vault", rec.Value.URL)
				continue
			}
			if e.idx != nil {
				if exists, err := e.idx.URLExists(e.project, rec.Value.URL); err == nil && exists {
					result.Skipped++
					continue
				}
			}
		}

		cw := CardWithURI{URI: rec.URI, Card: rec.Value}
		fm, body, kind := CardToObject(cw, now)
		filename := CardFilename(cw)

		subdir := vault.NotesDir
		if kind == models.KindReference {
			subdir = vault.ReferencesDir
		}
		relPath := e.project + "/" + subdir + "/" + filename

		localID, _ := fm["citekey"].(string)
		if localID == "" {
			localID = objectIDFromFilename(filename)
		}

		if opts.DryRun {
			e.progress(opts, "dry-run: would import %s as %s", rec.URI, relPath)
			result.Pulled++
			continue
		}

		content, err := parser.Render(fm, body)
		if err != nil {
			result.addError(localID, models.DirectionPull, err)
			continue
		}
		if err := e.store.Write(relPath, content); err != nil {
			result.addError(localID, models.DirectionPull, err)
			continue
		}

		hash, _ := HashCard(rec.Value)

		st.SetReference(&models.SyncedReference{
			LocalID:     localID,
			URI:         rec.URI,
			CID:         rec.CID,
			ContentHash: hash,
			SyncedAt:    now,
			Direction:   models.DirectionPull,
			RemoteCID:   rec.CID,
		})
		knownURI[rec.URI] = struct{}{}
		if rec.Value.URL != "" {
			localURLs[rec.Value.URL] = struct{}{}
		}

		obj := &models.VaultObject{
			ID:          objectIDFromFilename(filename),
			Kind:        kind,
			Project:     e.project,
			Frontmatter: fm,
			Body:        body,
			Visibility:  "private",
			Path:        relPath,
		}
		result.NewObjects = append(result.NewObjects, obj)
		result.Pulled++
		e.progress(opts, "pulled %s -> %s", rec.URI, relPath)
	}
}

func objectIDFromFilename(filename string) string {
	if len(filename) > 3 && filename[len(filename)-3:] == ".md" {
		return filename[:len(filename)-3]
	}
	return filename
}
