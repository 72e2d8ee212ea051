package mcp

import (
	"context"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

// fakeSearcher is a test double for Searcher.
type fakeSearcher struct {
	searchResp domain.SearchResponse
	searchErr  error

	chunks    []map[string]any
	chunksErr error

	capturedLimit *int
	capturedDebug *bool
}

func (f *fakeSearcher) Search(_ context.Context, _ string, limit *int, _ *bool, debug *bool) (domain.SearchResponse, error) {
	f.capturedLimit = limit
	f.capturedDebug = debug
	return f.searchResp, f.searchErr
}

func (f *fakeSearcher) GetDocChunks(_ context.Context, _ string) ([]map[string]any, error) {
	return f.chunks, f.chunksErr
}
