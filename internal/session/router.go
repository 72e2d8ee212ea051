package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

// ProductInfo is the per-product summary shown on /health and the service
// manifest.
type ProductInfo struct {
	ID         string
	Name       string
	Lang       string
	Collection string
	Endpoint   string
}

type healthProduct struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Lang       string `json:"lang"`
	Collection string `json:"collection"`
	Endpoint   string `json:"endpoint"`
}

type healthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Products  []healthProduct `json:"products"`
	Timestamp string          `json:"timestamp"`
}

// Router multiplexes every product's MCP mount behind /mcp/{product_id},
// plus the /health and / manifest endpoints, all wrapped in permissive CORS
// (§4.10).
type Router struct {
	mux      *http.ServeMux
	version  string
	products []ProductInfo
	now      func() time.Time
}

// NewRouter builds the top-level HTTP handler. mounts keys by product id
// match the path segment under /mcp/.
func NewRouter(version string, mounts map[string]*ProductMount, products []ProductInfo) *Router {
	mux := http.NewServeMux()
	r := &Router{mux: mux, version: version, products: products, now: time.Now}

	for id, mount := range mounts {
		mux.Handle("/mcp/"+id, mount)
	}
	mux.HandleFunc("/health", r.handleHealth)
	mux.HandleFunc("/", r.handleRoot)

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+sessionHeader)
	w.Header().Set("Access-Control-Expose-Headers", sessionHeader)

	if req.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	r.mux.ServeHTTP(w, req)
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	products := make([]healthProduct, len(r.products))
	for i, p := range r.products {
		products[i] = healthProduct{ID: p.ID, Name: p.Name, Lang: p.Lang, Collection: p.Collection, Endpoint: p.Endpoint}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Version:   r.version,
		Products:  products,
		Timestamp: r.now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	if !strings.Contains(req.Header.Get("Accept"), "text/markdown") {
		http.NotFound(w, req)
		return
	}

	var sb strings.Builder
	sb.WriteString("# Documentation search service\n\n")
	sb.WriteString(fmt.Sprintf("Version %s. %d product endpoint(s):\n\n", r.version, len(r.products)))
	for _, p := range r.products {
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", p.Name, p.Lang))
		sb.WriteString(fmt.Sprintf("Endpoint: `%s`\n\n", p.Endpoint))
		sb.WriteString("Sample MCP client configuration:\n\n")
		sb.WriteString("```json\n")
		sb.WriteString(fmt.Sprintf("{\"mcpServers\": {%q: {\"url\": %q}}}\n", p.ID, p.Endpoint))
		sb.WriteString("```\n\n")
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(sb.String()))
}

// ProductInfoFrom builds a ProductInfo from a resolved product config and
// its mount path.
func ProductInfoFrom(cfg domain.ProductConfig, endpoint string) ProductInfo {
	return ProductInfo{ID: cfg.ID, Name: cfg.Name, Lang: cfg.Lang, Collection: cfg.Collection, Endpoint: endpoint}
}
