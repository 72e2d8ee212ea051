package domain

import "time"

// Session is the bookkeeping entry the session pool keeps alongside the
// MCP SDK's own transport for one client connection to one product endpoint.
type Session struct {
	ID           string
	ProductID    string
	LastActivity time.Time
	ClientInfo   string
}

// RequestContext is propagated ambient through tool execution via
// context.Context (see internal/reqctx) rather than threaded explicitly
// through every handler signature.
type RequestContext struct {
	RequestID  string
	SessionID  string
	ProductID  string
	ClientInfo string
	ClientIP   string
}
