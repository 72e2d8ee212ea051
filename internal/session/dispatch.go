package session

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/reqctx"
)

// JSON-RPC error codes (§9): standard codes plus a local extension for
// session-not-found, which has no standard JSON-RPC equivalent.
const (
	codeBadRequest     = -32600
	codeSessionMissing = -32001
)

const (
	sessionHeader = "Mcp-Session-Id"
	requestIDHdr  = "X-Request-Id"
)

// jsonrpcRequest is the minimal shape this dispatcher needs to inspect: the
// method name, to recognize an initialize call.
type jsonrpcRequest struct {
	Method string `json:"method"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcErrorResponse struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      any          `json:"id"`
	Error   jsonrpcError `json:"error"`
}

func writeJSONRPCError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonrpcErrorResponse{
		JSONRPC: "2.0",
		Error:   jsonrpcError{Code: code, Message: message},
	})
}

// ProductMount dispatches HTTP requests for one product's MCP endpoint
// according to the routing table in §4.10. The MCP SDK's streamable HTTP
// handler (constructed by the caller, see NewProductMount) owns protocol
// framing and per-session transport state; this layer is the source of
// truth for whether a session id is still considered live, and is
// responsible for the request-context/access-log plumbing around it.
type ProductMount struct {
	cfg     domain.ProductConfig
	handler http.Handler
	pool    *Pool
}

// NewProductMount builds a dispatcher for one product. handler is expected
// to be built from mcp.NewStreamableHTTPHandler with a getServer callback
// that constructs a fresh per-session MCP server (§4.9).
func NewProductMount(cfg domain.ProductConfig, handler http.Handler) *ProductMount {
	return &ProductMount{
		cfg:     cfg,
		handler: handler,
		pool:    NewPool(cfg.ID, DefaultIdleTTL),
	}
}

// Pool exposes the session pool so the caller can start its sweeper and
// report session counts on /health.
func (m *ProductMount) Pool() *Pool {
	return m.pool
}

func (m *ProductMount) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	clientIP := clientIP(r)
	clientInfo := r.Header.Get("User-Agent")
	requestID := r.Header.Get(requestIDHdr)
	if requestID == "" {
		requestID = newRequestID()
	}

	if sessionID != "" {
		sess, ok := m.pool.Touch(sessionID)
		if !ok {
			writeJSONRPCError(w, http.StatusNotFound, codeSessionMissing, "Session not found. Client must re-initialize.")
			return
		}

		ctx := reqctx.With(r.Context(), domain.RequestContext{
			RequestID:  requestID,
			SessionID:  sessionID,
			ProductID:  m.cfg.ID,
			ClientInfo: sess.ClientInfo,
			ClientIP:   clientIP,
		})
		m.handler.ServeHTTP(w, r.WithContext(ctx))

		if r.Method == http.MethodDelete {
			m.pool.Remove(sessionID)
		}
		return
	}

	if r.Method != http.MethodPost {
		writeJSONRPCError(w, http.StatusBadRequest, codeBadRequest, "Missing session ID or not an initialize request.")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONRPCError(w, http.StatusBadRequest, codeBadRequest, "Missing session ID or not an initialize request.")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Method != "initialize" {
		writeJSONRPCError(w, http.StatusBadRequest, codeBadRequest, "Missing session ID or not an initialize request.")
		return
	}

	ctx := reqctx.With(r.Context(), domain.RequestContext{
		RequestID:  requestID,
		ProductID:  m.cfg.ID,
		ClientInfo: clientInfo,
		ClientIP:   clientIP,
	})

	m.handler.ServeHTTP(w, r.WithContext(ctx))

	if newID := w.Header().Get(sessionHeader); newID != "" {
		m.pool.Put(newID, clientInfo)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func newRequestID() string {
	return uuid.NewString()
}
