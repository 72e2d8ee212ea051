package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/docsearch-mcp/docserver/internal/configresolver"
	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/embedclient"
	"github.com/docsearch-mcp/docserver/internal/vectorstore"
)

const (
	productsDir    = "products"
	checkpointDir  = "checkpoints"
	rawDataRoot    = "raw_data"
	defaultPort    = "8900"
	defaultHost    = "0.0.0.0"
	defaultQdrant  = "http://localhost:6333"
	defaultChunk   = 3000
	defaultBatch   = 128
	defaultRPM     = 2000
	defaultTPM     = 3000000
)

// products reads and splits the required, comma-separated PRODUCT
// environment variable.
func products() ([]string, error) {
	raw, err := configresolver.RequiredEnv("PRODUCT")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	if len(ids) == 0 {
		return nil, &domain.ConfigError{Field: "PRODUCT", Cause: fmt.Errorf("must name at least one product id")}
	}
	return ids, nil
}

// resolveProduct loads one product's merged configuration for the shared
// DOC_LANG environment variable.
func resolveProduct(resolver *configresolver.Resolver, product string) (*domain.ProductConfig, error) {
	lang, err := configresolver.RequiredEnv("DOC_LANG")
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(product, lang)
}

// productsOverride resolves the comma-separated product id list from
// flagVal (the index command's --product flag) when non-empty, falling
// back to the required PRODUCT environment variable products() reads.
func productsOverride(flagVal string) ([]string, error) {
	if flagVal == "" {
		return products()
	}
	var ids []string
	for _, p := range strings.Split(flagVal, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	if len(ids) == 0 {
		return nil, &domain.ConfigError{Field: "product", Cause: fmt.Errorf("must name at least one product id")}
	}
	return ids, nil
}

// resolveProductLang loads one product's merged configuration for langFlag
// (the index command's --lang flag) when non-empty, falling back to the
// required DOC_LANG environment variable resolveProduct reads.
func resolveProductLang(resolver *configresolver.Resolver, product, langFlag string) (*domain.ProductConfig, error) {
	if langFlag != "" {
		return resolver.Resolve(product, langFlag)
	}
	return resolveProduct(resolver, product)
}

// newEmbedder builds the shared Voyage client from the documented
// VOYAGE_* environment variables.
func newEmbedder() (*embedclient.Client, error) {
	apiKey, err := configresolver.RequiredEnv("VOYAGE_API_KEY")
	if err != nil {
		return nil, err
	}

	rpm, err := envInt("VOYAGE_RPM_LIMIT", defaultRPM)
	if err != nil {
		return nil, err
	}
	tpm, err := envInt("VOYAGE_TPM_LIMIT", defaultTPM)
	if err != nil {
		return nil, err
	}

	return embedclient.New(embedclient.Config{
		APIKey:      apiKey,
		EmbedModel:  configresolver.EnvOrDefault("VOYAGE_EMBED_MODEL", "voyage-code-3"),
		RerankModel: configresolver.EnvOrDefault("VOYAGE_RERANK_MODEL", "rerank-2.5"),
		RPMLimit:    rpm,
		TPMLimit:    tpm,
	})
}

// newStore builds the shared vector store client from QDRANT_URL/QDRANT_API_KEY.
func newStore() *vectorstore.Client {
	return vectorstore.New(
		configresolver.EnvOrDefault("QDRANT_URL", defaultQdrant),
		os.Getenv("QDRANT_API_KEY"),
	)
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ConfigError{Field: name, Cause: fmt.Errorf("must be an integer, got %q", v)}
	}
	return n, nil
}
