package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const guidelinesScheme = "guidelines://"

// registerResources exposes every configured resource under
// guidelines://{key} with its declared MIME type (§4.9).
func (s *Server) registerResources() {
	for key, r := range s.ports.Config.Resources {
		key, r := key, r
		s.server.AddResource(&mcp.Resource{
			URI:         guidelinesScheme + key,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      req.Params.URI,
					MIMEType: r.MIMEType,
					Text:     r.Content,
				}},
			}, nil
		})
	}
}
