// Package loader walks a product's raw_data tree, reads Markdown source
// files, and sanitises embedded HTML spans before the chunker strategies
// see the content (§4.5). Grounded on the regexp-table style of the
// pack's html and markdown normalisers, but narrower: the spec only asks
// for span/style stripping, never full Markdown-to-plaintext conversion,
// since the chunkers need the Markdown headers intact.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

// Load walks root recursively, reading every ".md" file into a
// domain.Document. subdirs restricts the walk to the named top-level
// directories (a product's configured doc_subdirs); when empty every
// top-level directory is walked. Results are sorted by RelativePath for
// deterministic ingestion order.
func Load(root string, subdirs []string) ([]domain.Document, error) {
	var docs []domain.Document

	allowed := make(map[string]bool, len(subdirs))
	for _, d := range subdirs {
		allowed[d] = true
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if len(allowed) > 0 {
			top := strings.SplitN(rel, "/", 2)[0]
			if !allowed[top] {
				return nil
			}
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if strings.TrimSpace(string(raw)) == "" {
			return nil
		}

		docs = append(docs, buildDocument(rel, Sanitize(string(raw))))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })
	return docs, nil
}

// buildDocument derives Document metadata from a file's path relative to
// raw_data: ID collapses separators to underscores and strips the
// extension, PathHierarchy is the sequence of path components, and
// Category comes from the first path component.
func buildDocument(relPath, content string) domain.Document {
	hierarchy := strings.Split(relPath, "/")
	ext := filepath.Ext(relPath)
	id := strings.TrimSuffix(relPath, ext)
	id = strings.ReplaceAll(id, "/", "_")
	id = strings.ReplaceAll(id, " ", "_")

	category := domain.CategoryForDir(hierarchy[0])

	return domain.Document{
		ID:            id,
		Content:       content,
		RelativePath:  relPath,
		Category:      category,
		PathHierarchy: hierarchy,
	}
}
