package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

const (
	minSearchLimit     = 1
	maxSearchLimit     = 20
	noGuidelinesNotice = "No code guidelines are configured for this product."
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find documentation for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return, 1-20"`
	Debug bool   `json:"debug,omitempty" jsonschema:"when true, attach token-usage and retrieval diagnostics to the response"`
}

// SearchOutput is the output schema for the search tool: the full
// SearchResponse plus a next_step advisory pointing the caller at fetch.
type SearchOutput struct {
	domain.SearchResponse
	NextStep string `json:"next_step"`
}

// FetchInput is the input schema for the fetch tool.
type FetchInput struct {
	DocID string `json:"doc_id" jsonschema:"the document id returned by a prior search result"`
}

// FetchOutput is the output schema for the fetch tool.
type FetchOutput struct {
	DocID       string `json:"doc_id"`
	ChunkCount  int    `json:"chunk_count"`
	FullContent string `json:"full_content"`
	NextStep    string `json:"next_step"`
}

// GetCodeGuidelinesInput is the (empty) input schema for get_code_guidelines.
type GetCodeGuidelinesInput struct{}

// GuidelineOutput is one entry of the get_code_guidelines response.
type GuidelineOutput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// GetCodeGuidelinesOutput is the output schema for get_code_guidelines.
type GetCodeGuidelinesOutput struct {
	Guidelines map[string]GuidelineOutput `json:"guidelines,omitempty"`
	Message    string                     `json:"message,omitempty"`
}

// registerTools registers the fixed three-tool surface with the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the product's documentation for relevant passages",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch",
		Description: "Fetch the full content of a document by id, assembled from its chunks",
	}, s.handleFetch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_code_guidelines",
		Description: "Return any code style guidelines configured for this product",
	}, s.handleGetCodeGuidelines)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	started := time.Now()
	var resultCount int
	var err error
	defer func() { logAccess(ctx, started, resultCount, err) }()

	if strings.TrimSpace(input.Query) == "" {
		err = fmt.Errorf("query must not be empty")
		return nil, SearchOutput{}, err
	}

	var limit *int
	if input.Limit > 0 {
		l := input.Limit
		if l < minSearchLimit {
			l = minSearchLimit
		}
		if l > maxSearchLimit {
			l = maxSearchLimit
		}
		limit = &l
	}

	var debug *bool
	if input.Debug {
		debug = &input.Debug
	}

	var resp domain.SearchResponse
	resp, err = s.ports.Search.Search(ctx, input.Query, limit, nil, debug)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	resultCount = len(resp.Results)

	return nil, SearchOutput{
		SearchResponse: resp,
		NextStep:       "Call fetch with a result's doc_id to read the full document, or get_code_guidelines for style rules before writing code.",
	}, nil
}

func (s *Server) handleFetch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, FetchOutput, error) {
	started := time.Now()
	var resultCount int
	var err error
	defer func() { logAccess(ctx, started, resultCount, err) }()

	var chunks []map[string]any
	chunks, err = s.ports.Search.GetDocChunks(ctx, input.DocID)
	if err != nil {
		return nil, FetchOutput{}, err
	}
	resultCount = len(chunks)

	sort.Slice(chunks, func(i, j int) bool {
		return chunkIndex(chunks[i]) < chunkIndex(chunks[j])
	})

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		content, _ := c["content"].(string)
		contents[i] = content
	}

	return nil, FetchOutput{
		DocID:       input.DocID,
		ChunkCount:  len(chunks),
		FullContent: strings.Join(contents, "\n\n"),
		NextStep:    "Use search again with a more specific query if this document did not answer the question.",
	}, nil
}

func chunkIndex(payload map[string]any) int {
	switch v := payload["chunk_index"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (s *Server) handleGetCodeGuidelines(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetCodeGuidelinesInput,
) (*mcp.CallToolResult, GetCodeGuidelinesOutput, error) {
	started := time.Now()
	defer func() { logAccess(ctx, started, len(s.ports.Config.Resources), nil) }()

	if len(s.ports.Config.Resources) == 0 {
		return nil, GetCodeGuidelinesOutput{Message: noGuidelinesNotice}, nil
	}

	out := make(map[string]GuidelineOutput, len(s.ports.Config.Resources))
	for key, r := range s.ports.Config.Resources {
		out[key] = GuidelineOutput{Name: r.Name, Description: r.Description, Content: r.Content}
	}
	return nil, GetCodeGuidelinesOutput{Guidelines: out}, nil
}
