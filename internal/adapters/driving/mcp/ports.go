// Package mcp builds one MCP server instance per session, registering the
// three tools and the guidelines resources the spec's variant declares.
// Grounded directly on the teacher's server.go/tools.go/resources.go/
// ports.go/errors.go shape, adapted from Sercha's generic search/sources/
// documents surface to the fixed search/fetch/get_code_guidelines tool set.
package mcp

import (
	"context"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

// Searcher is the subset of internal/search.Searcher the MCP adapter needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit *int, useRerank *bool, debug *bool) (domain.SearchResponse, error)
	GetDocChunks(ctx context.Context, docID string) ([]map[string]any, error)
}

// Ports aggregates everything one product's MCP server instance needs.
type Ports struct {
	// Search runs queries and document fetches against this product's
	// collection.
	Search Searcher

	// Config is the resolved product/language configuration: limits,
	// instructions, and the resources exposed as guidelines.
	Config domain.ProductConfig
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
