package domain

// FusionMode records which retrieval strategy a search used, per the
// cross-language degradation rule in the searcher (§4.8).
type FusionMode string

const (
	FusionRRF       FusionMode = "rrf"
	FusionDenseOnly FusionMode = "dense_only"
)

// SearchResult is a single shaped hit returned to an MCP tool caller.
type SearchResult struct {
	Rank           int
	DocID          string
	ChunkID        string
	Score          float64
	Content        string
	ContentPreview string
	Metadata       map[string]any
}

// SearchResponse is the full payload of the search tool.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	FusionMode   FusionMode     `json:"fusion_mode"`
	DetectedLang string         `json:"detected_lang"`
	RerankUsed   bool           `json:"rerank_used"`
	Debug        *DebugInfo     `json:"debug_info,omitempty"`
}

// TokenUsage reports the approximate embedding/rerank cost of one search,
// estimated with the same char-per-token heuristic the rate limiter uses.
type TokenUsage struct {
	EmbedTokens  int `json:"embed_tokens"`
	RerankTokens int `json:"rerank_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// RetrievalStats summarizes how a search's candidates were retrieved.
type RetrievalStats struct {
	FusionMode      FusionMode `json:"fusion_mode"`
	DetectedLang    string     `json:"detected_lang"`
	DocLanguage     string     `json:"doc_language"`
	PrefetchLimit   int        `json:"prefetch_limit"`
	RerankTopK      int        `json:"rerank_top_k"`
	FinalLimit      int        `json:"final_limit"`
	CandidatesCount int        `json:"candidates_count"`
	AvgChunkLength  float64    `json:"avg_chunk_length"`
}

// DebugInfo is attached to a SearchResponse when the caller opts into debug
// mode, surfacing the diagnostics the original service exposed alongside
// every search (token accounting and retrieval stats) rather than only a
// flat results list.
type DebugInfo struct {
	TokenUsage     TokenUsage     `json:"token_usage"`
	RetrievalStats RetrievalStats `json:"retrieval_stats"`
}
