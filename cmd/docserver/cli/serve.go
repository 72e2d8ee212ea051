package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsearch-mcp/docserver/internal/adapters/driving/mcp"
	"github.com/docsearch-mcp/docserver/internal/configresolver"
	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/embedclient"
	"github.com/docsearch-mcp/docserver/internal/logger"
	"github.com/docsearch-mcp/docserver/internal/search"
	"github.com/docsearch-mcp/docserver/internal/session"
	"github.com/docsearch-mcp/docserver/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP HTTP server",
	Long: `serve mounts one MCP Streamable HTTP endpoint per product named by PRODUCT
(comma-separated), all sharing the DOC_LANG language, the embedder, and the
vector store client.

Example:
  PRODUCT=spreadjs,gcexcel DOC_LANG=en VOYAGE_API_KEY=... docserver serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ids, err := products()
	if err != nil {
		return err
	}

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	store := newStore()
	resolver := configresolver.New(productsDir)

	mounts := make(map[string]*session.ProductMount, len(ids))
	var infos []session.ProductInfo

	for _, product := range ids {
		cfg, err := resolveProduct(resolver, product)
		if err != nil {
			return err
		}

		mount := buildMount(*cfg, embedder, store)
		mounts[product] = mount
		infos = append(infos, session.ProductInfoFrom(*cfg, "/mcp/"+product))
	}

	router := session.NewRouter(mcp.Version, mounts, infos)

	host := configresolver.EnvOrDefault("HOST", defaultHost)
	port := configresolver.EnvOrDefault("PORT", defaultPort)
	addr := fmt.Sprintf("%s:%s", host, port)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, mount := range mounts {
		go mount.Pool().RunSweeper(ctx, session.DefaultSweepInterval)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed: %v", err)
		}
	}()

	logger.Info("docserver listening on %s for products %v", addr, ids)
	err = httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// buildMount constructs one product's searcher, per-session MCP server
// factory, and session-bookkeeping HTTP dispatcher.
func buildMount(cfg domain.ProductConfig, embedder *embedclient.Client, store *vectorstore.Client) *session.ProductMount {
	searcher := search.New(embedder, store, cfg, cfg.Search.RerankTopK > 0)
	ports := &mcp.Ports{Search: searcher, Config: cfg}

	getServer := func(_ *http.Request) *sdkmcp.Server {
		srv, err := mcp.NewServer(ports)
		if err != nil {
			logger.Error("building MCP server for %s: %v", cfg.ID, err)
			return nil
		}
		return srv.MCPServer()
	}

	handler := sdkmcp.NewStreamableHTTPHandler(getServer, nil)
	return session.NewProductMount(cfg, handler)
}
