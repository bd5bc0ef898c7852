package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ObjectRow represents a row in the objects table.
type ObjectRow struct {
	Path      string
	Project   string
	Citekey   string
	Title     string
	URL       string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// UpsertObject inserts or replaces an object row.
func (db *DB) UpsertObject(o ObjectRow) error {
	tagsJSON, _ := json.Marshal(o.Tags)

	_, err := db.conn.Exec(`
		INSERT INTO objects (path, project, citekey, title, url, checksum, tags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			project    = excluded.project,
			citekey    = excluded.citekey,
			title      = excluded.title,
			url        = excluded.url,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			updated_at = excluded.updated_at
	`, o.Path, o.Project, o.Citekey, o.Title, o.URL, o.Checksum, string(tagsJSON), o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert object: %w", err)
	}
	return nil
}

// DeleteObject removes an object row.
func (db *DB) DeleteObject(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM objects WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete object: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a path, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM objects WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed object.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM objects`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// URLExists reports whether any object of the project carries the URL.
func (db *DB) URLExists(project, url string) (bool, error) {
	if url == "" {
		return false, nil
	}
	var n int
	err := db.conn.QueryRow(
		`SELECT count(*) FROM objects WHERE project = ? AND url = ?`, project, url,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("index: url exists: %w", err)
	}
	return n > 0, nil
}

// FindObject looks an object up by citekey or URL, whichever matches first.
func (db *DB) FindObject(project, key string) (*ObjectRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, project, citekey, title, url, checksum, tags, updated_at
		FROM objects
		WHERE project = ? AND (citekey = ? OR url = ?)
		LIMIT 1
	`, project, key, key)
	return scanObject(row)
}

// ListObjects returns all objects of a project ordered by path.
func (db *DB) ListObjects(project string) ([]ObjectRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, project, citekey, title, url, checksum, tags, updated_at
		FROM objects WHERE project = ? ORDER BY path
	`, project)
	if err != nil {
		return nil, fmt.Errorf("index: list objects: %w", err)
	}
	defer rows.Close()

	var out []ObjectRow
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(r rowScanner) (*ObjectRow, error) {
	var o ObjectRow
	var tagsJSON string
	err := r.Scan(&o.Path, &o.Project, &o.Citekey, &o.Title, &o.URL, &o.Checksum, &tagsJSON, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: scan object: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &o.Tags)
	return &o, nil
}
