package domain

// SearchConfig holds tunable retrieval parameters for one product. Zero
// values are filled from DefaultSearchConfig by the config resolver.
type SearchConfig struct {
	PrefetchLimit       int     `yaml:"prefetch_limit"`
	RerankTopK          int     `yaml:"rerank_top_k"`
	DefaultLimit        int     `yaml:"default_limit"`
	DenseScoreThreshold float64 `yaml:"dense_score_threshold"`

	// SparseScoreThreshold is carried through for forward compatibility
	// but never enforced: the vector store's hybrid query does not expose
	// a per-sparse-vector score filter.
	SparseScoreThreshold float64 `yaml:"sparse_score_threshold"`
}

// DefaultSearchConfig is merged under a product's search overrides.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		PrefetchLimit:       20,
		RerankTopK:          10,
		DefaultLimit:        5,
		DenseScoreThreshold: 0.3,
	}
}

// Resource is a single named guideline/resource exposed verbatim by the
// get_code_guidelines tool and as an MCP resource under guidelines://{key}.
type Resource struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MIMEType    string `yaml:"mime_type"`
	Content     string `yaml:"content"`
}

// ProductConfig is the resolved, merged configuration for one product.
type ProductConfig struct {
	ID           string
	Name         string
	ChunkerType  string // "markdown", "typedoc", "javadoc"
	DocSubdirs   []string
	Search       SearchConfig
	Instructions string

	// CompanyShort is the first two letters of Company, uppercased.
	CompanyShort string

	Lang        string
	DocLanguage string
	Collection  string
	RawDataPath string
	Description string
	Resources   map[string]Resource
}
