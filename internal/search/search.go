// Package search implements the single public search operation (§4.8):
// language detection, embedding, fusion-mode selection, optional rerank,
// and result shaping. Grounded on the teacher's
// internal/core/services/search.go effectiveMode dispatch idiom, repurposed
// here for the rrf/dense_only fusion-mode decision since RRF itself runs
// server-side in the vector store rather than client-side.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/docsearch-mcp/docserver/internal/bm25"
	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/embedclient"
	"github.com/docsearch-mcp/docserver/internal/langdetect"
	"github.com/docsearch-mcp/docserver/internal/logger"
	"github.com/docsearch-mcp/docserver/internal/vectorstore"
)

const contentPreviewLen = 200

// Embedder is the subset of embedclient.Client the searcher needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Rerank(ctx context.Context, query string, documents []string) []embedclient.RerankedIndex
}

// Store is the subset of vectorstore.Client the searcher needs.
type Store interface {
	QueryHybrid(ctx context.Context, collection string, dense []float32, sparse map[int]float32, prefetchLimit, limit int) ([]vectorstore.QueryResult, error)
	QueryDense(ctx context.Context, collection string, dense []float32, limit int, scoreThreshold *float64) ([]vectorstore.QueryResult, error)
	Scroll(ctx context.Context, collection, docID string, limit int) ([]map[string]any, error)
}

const getDocChunksCap = 100

// Searcher runs searches against one product's collection.
type Searcher struct {
	embedder Embedder
	store    Store
	cfg      domain.ProductConfig

	useRerank bool
}

// New creates a Searcher bound to one product/language configuration.
// useRerank reflects whether a reranker is configured; callers may still
// disable it per-call.
func New(embedder Embedder, store Store, cfg domain.ProductConfig, useRerank bool) *Searcher {
	return &Searcher{embedder: embedder, store: store, cfg: cfg, useRerank: useRerank}
}

// Search runs the full pipeline described in §4.8. limit, useRerank and
// debug are pointers so callers can omit them and fall back to configured
// defaults; debug attaches a DebugInfo block to the response, carried over
// from the original service's search(..., debug=True) mode (§7).
func (s *Searcher) Search(ctx context.Context, query string, limit *int, useRerank *bool, debug *bool) (domain.SearchResponse, error) {
	if query == "" {
		return domain.SearchResponse{}, &domain.SearchError{Op: "search", Cause: fmt.Errorf("query must not be empty")}
	}

	effectiveLimit := s.cfg.Search.DefaultLimit
	if limit != nil && *limit > 0 {
		effectiveLimit = *limit
	}

	rerank := s.useRerank
	if useRerank != nil {
		rerank = *useRerank
	}

	detectedLang := langdetect.Normalize(langdetect.Detect(query, s.cfg.DocLanguage))
	embedTokens := embedclient.EstimateTokens(query)

	vecs, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return domain.SearchResponse{}, &domain.SearchError{Op: "embed_query", Cause: err}
	}
	queryVec := vecs[0]

	fusionMode := domain.FusionDenseOnly
	if detectedLang == s.cfg.DocLanguage {
		fusionMode = domain.FusionRRF
	}

	var results []vectorstore.QueryResult
	switch fusionMode {
	case domain.FusionRRF:
		sparseVec := bm25.Vector(query)
		results, err = s.store.QueryHybrid(ctx, s.cfg.Collection, queryVec, sparseVec, s.cfg.Search.PrefetchLimit, s.cfg.Search.PrefetchLimit)
	default:
		threshold := s.cfg.Search.DenseScoreThreshold
		results, err = s.store.QueryDense(ctx, s.cfg.Collection, queryVec, s.cfg.Search.PrefetchLimit, &threshold)
	}
	if err != nil {
		return domain.SearchResponse{}, &domain.SearchError{Op: "vector_query", Cause: err}
	}
	candidatesCount := len(results)
	avgChunkLength := avgContentLength(results)

	rerankTokens := 0
	rerankUsed := false
	if rerank && len(results) > 0 {
		if debug != nil && *debug {
			for _, r := range results {
				if content, ok := r.Payload["content"].(string); ok {
					rerankTokens += embedclient.EstimateTokens(content)
				}
			}
		}
		results = applyRerank(ctx, s.embedder, query, results, s.cfg.Search.RerankTopK)
		rerankUsed = true
	}

	if effectiveLimit > 0 && len(results) > effectiveLimit {
		results = results[:effectiveLimit]
	}

	resp := domain.SearchResponse{
		Results:      shapeResults(results),
		FusionMode:   fusionMode,
		DetectedLang: detectedLang,
		RerankUsed:   rerankUsed,
	}

	if debug != nil && *debug {
		resp.Debug = &domain.DebugInfo{
			TokenUsage: domain.TokenUsage{
				EmbedTokens:  embedTokens,
				RerankTokens: rerankTokens,
				TotalTokens:  embedTokens + rerankTokens,
			},
			RetrievalStats: domain.RetrievalStats{
				FusionMode:      fusionMode,
				DetectedLang:    detectedLang,
				DocLanguage:     s.cfg.DocLanguage,
				PrefetchLimit:   s.cfg.Search.PrefetchLimit,
				RerankTopK:      s.cfg.Search.RerankTopK,
				FinalLimit:      effectiveLimit,
				CandidatesCount: candidatesCount,
				AvgChunkLength:  avgChunkLength,
			},
		}
	}

	return resp, nil
}

func avgContentLength(results []vectorstore.QueryResult) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0
	for _, r := range results {
		if content, ok := r.Payload["content"].(string); ok {
			total += len([]rune(content))
		}
	}
	return float64(total) / float64(len(results))
}

// applyRerank reranks up to prefetch candidates and returns them reordered
// best-first, truncated to rerankTopK. A reranker failure is absorbed by
// embedclient.Client.Rerank itself (it falls back to input order and logs
// a warning), so this never fails the surrounding search.
func applyRerank(ctx context.Context, embedder Embedder, query string, results []vectorstore.QueryResult, rerankTopK int) []vectorstore.QueryResult {
	docs := make([]string, len(results))
	for i, r := range results {
		if content, ok := r.Payload["content"].(string); ok {
			docs[i] = content
		}
	}

	ranked := embedder.Rerank(ctx, query, docs)

	n := rerankTopK
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}

	out := make([]vectorstore.QueryResult, 0, n)
	for _, r := range ranked[:n] {
		if r.Index < 0 || r.Index >= len(results) {
			logger.Warn("rerank returned out-of-range index %d, skipping", r.Index)
			continue
		}
		res := results[r.Index]
		res.Score = r.Score
		out = append(out, res)
	}
	return out
}

func shapeResults(results []vectorstore.QueryResult) []domain.SearchResult {
	out := make([]domain.SearchResult, len(results))
	for i, r := range results {
		content, _ := r.Payload["content"].(string)
		docID, _ := r.Payload["doc_id"].(string)

		out[i] = domain.SearchResult{
			Rank:           i + 1,
			DocID:          docID,
			ChunkID:        r.ChunkID,
			Score:          r.Score,
			Content:        content,
			ContentPreview: preview(content),
			Metadata:       r.Payload,
		}
	}
	return out
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= contentPreviewLen {
		return content
	}
	return string(runes[:contentPreviewLen])
}

// GetDocChunks scrolls the collection for every chunk of docID, capped at
// getDocChunksCap, sorted by chunk_index ascending (§4.8 secondary
// operation).
func (s *Searcher) GetDocChunks(ctx context.Context, docID string) ([]map[string]any, error) {
	payloads, err := s.store.Scroll(ctx, s.cfg.Collection, docID, getDocChunksCap)
	if err != nil {
		return nil, &domain.SearchError{Op: "get_doc_chunks", Cause: err}
	}

	sort.Slice(payloads, func(i, j int) bool {
		return chunkIndexOf(payloads[i]) < chunkIndexOf(payloads[j])
	})
	return payloads, nil
}

func chunkIndexOf(payload map[string]any) int {
	switch v := payload["chunk_index"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
