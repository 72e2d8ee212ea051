// Package configresolver loads and merges per-product, per-language
// configuration descriptors (§4.1). It fails closed with a ConfigError
// naming the offending field or variable, and caches resolved
// configuration with no time-based invalidation (write-once per key).
package configresolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

// productDescriptor mirrors products/{id}/product.yaml.
type productDescriptor struct {
	Name         string         `yaml:"name"`
	Company      string         `yaml:"company"`
	Chunker      string         `yaml:"chunker"`
	DocSubdirs   []string       `yaml:"doc_subdirs"`
	Instructions string         `yaml:"instructions"`
	Search       searchOverride `yaml:"search"`
}

type searchOverride struct {
	PrefetchLimit        *int     `yaml:"prefetch_limit"`
	RerankTopK           *int     `yaml:"rerank_top_k"`
	DefaultLimit         *int     `yaml:"default_limit"`
	DenseScoreThreshold  *float64 `yaml:"dense_score_threshold"`
	SparseScoreThreshold *float64 `yaml:"sparse_score_threshold"`
}

// languageDescriptor mirrors products/{id}/{lang}.yaml.
type languageDescriptor struct {
	DocLanguage string                     `yaml:"doc_language"`
	Collection  string                     `yaml:"collection"`
	RawData     string                     `yaml:"raw_data"`
	Description string                     `yaml:"description"`
	Resources   map[string]domain.Resource `yaml:"resources"`
}

// Resolver loads and caches ProductConfig by (product, lang).
type Resolver struct {
	productsDir string

	mu    sync.RWMutex
	cache map[string]*domain.ProductConfig
}

// New creates a Resolver rooted at productsDir (typically "products").
func New(productsDir string) *Resolver {
	return &Resolver{
		productsDir: productsDir,
		cache:       make(map[string]*domain.ProductConfig),
	}
}

// Resolve loads, merges, validates, and caches the configuration for one
// (product, lang) pair.
func (r *Resolver) Resolve(product, lang string) (*domain.ProductConfig, error) {
	key := product + "/" + lang

	r.mu.RLock()
	if cfg, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return cfg, nil
	}
	r.mu.RUnlock()

	cfg, err := r.load(product, lang)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = cfg
	r.mu.Unlock()

	return cfg, nil
}

func (r *Resolver) load(product, lang string) (*domain.ProductConfig, error) {
	if err := validateIdentifier(product); err != nil {
		return nil, &domain.ConfigError{Field: "product", Cause: err}
	}
	if err := validateIdentifier(lang); err != nil {
		return nil, &domain.ConfigError{Field: "lang", Cause: err}
	}

	productPath := filepath.Join(r.productsDir, product, "product.yaml")
	var pd productDescriptor
	if err := loadYAML(productPath, &pd); err != nil {
		return nil, &domain.ConfigError{Field: productPath, Cause: err}
	}
	if pd.Name == "" {
		return nil, &domain.ConfigError{Field: "product.yaml:name", Cause: fmt.Errorf("required field missing")}
	}
	if pd.Chunker != "markdown" && pd.Chunker != "typedoc" && pd.Chunker != "javadoc" {
		return nil, &domain.ConfigError{
			Field: "product.yaml:chunker",
			Cause: fmt.Errorf("must be one of markdown, typedoc, javadoc, got %q", pd.Chunker),
		}
	}
	if len(pd.DocSubdirs) == 0 {
		return nil, &domain.ConfigError{Field: "product.yaml:doc_subdirs", Cause: fmt.Errorf("required field missing")}
	}

	langPath := filepath.Join(r.productsDir, product, lang+".yaml")
	var ld languageDescriptor
	if err := loadYAML(langPath, &ld); err != nil {
		return nil, &domain.ConfigError{Field: langPath, Cause: err}
	}
	if ld.DocLanguage == "" {
		return nil, &domain.ConfigError{Field: lang + ".yaml:doc_language", Cause: fmt.Errorf("required field missing")}
	}
	if ld.RawData == "" {
		return nil, &domain.ConfigError{Field: lang + ".yaml:raw_data", Cause: fmt.Errorf("required field missing")}
	}

	search := domain.DefaultSearchConfig()
	if pd.Search.PrefetchLimit != nil {
		search.PrefetchLimit = *pd.Search.PrefetchLimit
	}
	if pd.Search.RerankTopK != nil {
		search.RerankTopK = *pd.Search.RerankTopK
	}
	if pd.Search.DefaultLimit != nil {
		search.DefaultLimit = *pd.Search.DefaultLimit
	}
	if pd.Search.DenseScoreThreshold != nil {
		search.DenseScoreThreshold = *pd.Search.DenseScoreThreshold
	}
	if pd.Search.SparseScoreThreshold != nil {
		search.SparseScoreThreshold = *pd.Search.SparseScoreThreshold
	}

	collection := ld.Collection
	if collection == "" {
		collection = product + "_" + lang
	}
	if err := validateIdentifier(collection); err != nil {
		return nil, &domain.ConfigError{Field: "collection", Cause: err}
	}

	companyShort := strings.ToUpper(pd.Company)
	if len(companyShort) > 2 {
		companyShort = companyShort[:2]
	}

	return &domain.ProductConfig{
		ID:           product,
		Name:         pd.Name,
		ChunkerType:  pd.Chunker,
		DocSubdirs:   pd.DocSubdirs,
		Search:       search,
		Instructions: pd.Instructions,
		CompanyShort: companyShort,
		Lang:         lang,
		DocLanguage:  ld.DocLanguage,
		Collection:   collection,
		RawDataPath:  ld.RawData,
		Description:  ld.Description,
		Resources:    ld.Resources,
	}, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// validateIdentifier enforces the spec's invariant that product ids,
// language codes, and collection names are lowercase [a-z0-9_].
func validateIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("empty identifier")
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' {
			return fmt.Errorf("invalid identifier %q: must be lowercase [a-z0-9_]", s)
		}
	}
	return nil
}

// RequiredEnv reads a required environment variable, returning a
// ConfigError naming the variable if it is unset.
func RequiredEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", &domain.ConfigError{Field: name, Cause: fmt.Errorf("required environment variable is not set")}
	}
	return v, nil
}

// EnvOrDefault reads an optional environment variable, returning def when unset.
func EnvOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
