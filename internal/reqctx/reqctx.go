// Package reqctx carries the ambient per-request metadata (request id,
// session id, product id, client info, client IP) into MCP tool handlers.
//
// The teacher's upstream ecosystem would reach for a task-local store; Go
// has no such facility, so this is threaded as an ordinary context.Context
// value — never module-global mutable state.
package reqctx

import (
	"context"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

type ctxKey struct{}

// With attaches a RequestContext to ctx, returning the derived context.
func With(ctx context.Context, rc domain.RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// From retrieves the RequestContext attached to ctx, if any.
func From(ctx context.Context) (domain.RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(domain.RequestContext)
	return rc, ok
}
