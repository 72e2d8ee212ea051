package mcp

import "errors"

// ErrMissingSearchService is returned when the search port is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
