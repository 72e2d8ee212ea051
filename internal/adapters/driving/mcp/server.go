package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsearch-mcp/docserver/internal/logger"
	"github.com/docsearch-mcp/docserver/internal/reqctx"
)

// Version is the MCP server version reported in the implementation block
// and the /health endpoint.
const Version = "0.1.0"

const instructionsTemplate = `This server searches the %s documentation (%s).

Workflow:
1. Call search with a natural-language query to find relevant passages.
2. Call fetch with a result's doc_id to read the full document when a
   passage alone is not enough context.
3. Call get_code_guidelines before writing code against this product, if
   any style guidelines are configured.
`

// Server is one session's MCP server instance.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer constructs a fresh MCP server for one session, bound to one
// product's configuration and searcher (§4.9).
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "docsearch-" + ports.Config.ID,
		Version: Version,
	}

	instructions := fmt.Sprintf(instructionsTemplate, ports.Config.Name, ports.Config.Lang)
	if ports.Config.Instructions != "" {
		instructions += "\n" + ports.Config.Instructions
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer exposes the underlying *mcp.Server for the session layer to
// connect a transport to.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// logAccess emits one structured access log line per tool invocation,
// carrying the ambient request context and the call's outcome (§4.9).
func logAccess(ctx context.Context, started time.Time, resultCount int, err error) {
	rc, _ := reqctx.From(ctx)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	logger.Access(logger.AccessFields{
		RequestID:   rc.RequestID,
		SessionID:   rc.SessionID,
		ProductID:   rc.ProductID,
		ClientInfo:  rc.ClientInfo,
		ClientIP:    rc.ClientIP,
		DurationMS:  time.Since(started).Milliseconds(),
		ResultCount: resultCount,
		Err:         errMsg,
	})
}
