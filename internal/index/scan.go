package index

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/vault"
)

// Scan walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Scan(db *DB, store vault.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("scan: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("scan: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("scan: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteObject(p); err != nil {
				logger.Warn("scan: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("scan: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, relPath string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	obj := vault.BuildObject(pathProject(relPath), relPath, res)

	row := ObjectRow{
		Path:      relPath,
		Project:   obj.Project,
		Citekey:   obj.Citekey(),
		Title:     res.Title,
		URL:       obj.URL(),
		Checksum:  vault.Checksum(data),
		Tags:      obj.Tags(),
		UpdatedAt: time.Now(),
	}
	return db.UpsertObject(row)
}

// pathProject derives the owning project from the first path segment.
func pathProject(relPath string) string {
	if i := strings.Index(relPath, "/"); i > 0 {
		return path.Clean(relPath[:i])
	}
	return ""
}
