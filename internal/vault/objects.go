package vault

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
)

// Subdirectories used for files created during pull.
const (
	ReferencesDir = "references"
	NotesDir      = "notes"
)

// LoadObjects reads and parses every Markdown file of a project into
// VaultObjects. The project name doubles as the subdirectory under the
// vault root; an empty project loads the whole vault.
func LoadObjects(p Provider, project string) ([]*models.VaultObject, error) {
	metas, err := p.List(project)
	if errors.Is(err, fs.ErrNotExist) {
		// Project directory not created yet; pulling will make it.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]*models.VaultObject, 0, len(metas))
	for _, m := range metas {
		data, err := p.Read(m.Path)
		if err != nil {
			return nil, err
		}
		res, err := parser.Parse(data)
		if err != nil {
			return nil, err
		}
		out = append(out, BuildObject(project, m.Path, res))
	}
	return out, nil
}

// BuildObject assembles a VaultObject from a parsed file.
func BuildObject(project, relPath string, res *parser.Result) *models.VaultObject {
	obj := &models.VaultObject{
		ID:          objectID(relPath),
		Project:     project,
		Frontmatter: res.Frontmatter,
		Body:        res.Body,
		Path:        relPath,
	}
	obj.Kind = objectKind(obj)
	if res.Frontmatter != nil {
		if v, ok := res.Frontmatter["visibility"].(string); ok {
			obj.Visibility = v
		}
	}
	return obj
}

// objectID derives the object identifier from its path stem.
func objectID(relPath string) string {
	base := path.Base(relPath)
	return strings.TrimSuffix(base, ".md")
}

// objectKind reads the frontmatter type tag, inferring "reference" for
// URL-bearing objects when no explicit type is set.
func objectKind(obj *models.VaultObject) string {
	if obj.Frontmatter != nil {
		if v, ok := obj.Frontmatter["type"].(string); ok && v != "" {
			return v
		}
	}
	if obj.URL() != "" {
		return models.KindReference
	}
	return models.KindNote
}
