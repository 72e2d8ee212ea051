// Package vectorstore is a Qdrant-shaped HTTP client for the collection
// each product/language pair is indexed into (§4.4, §4.7). It speaks raw
// JSON over net/http rather than an SDK: no vector-store client appears
// anywhere in the retrieval pack, so the client follows the hand-rolled
// HTTP idiom the pack's own embedding clients use.
package vectorstore

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

const (
	DefaultTimeout = 30 * time.Second

	hnswM              = 16
	hnswEfConstruct    = 100
	indexingThreshold  = 10_000
	upsertSubBatchSize = 32
	upsertMaxRetries   = 3
	upsertRetryDelay   = time.Second
)

// Client talks to the Qdrant-compatible HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// New creates a Client pointed at baseURL (e.g. http://localhost:6333).
func New(baseURL, apiKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &domain.ApiError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type createCollectionRequest struct {
	Vectors          map[string]vectorParams `json:"vectors"`
	Sparse           map[string]sparseParams `json:"sparse_vectors,omitempty"`
	HNSW             hnswConfig              `json:"hnsw_config"`
	OptimizersConfig optimizersConfig        `json:"optimizers_config"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type sparseParams struct {
	Index    sparseIndexParams `json:"index"`
	Modifier string            `json:"modifier,omitempty"`
}

type sparseIndexParams struct {
	OnDisk bool `json:"on_disk"`
}

type hnswConfig struct {
	M           int `json:"m"`
	EfConstruct int `json:"ef_construct"`
}

type optimizersConfig struct {
	IndexingThreshold int `json:"indexing_threshold"`
}

// CreateCollection creates a collection with a dense cosine HNSW vector
// space plus a BM25-weighted sparse vector space, matching the spec's
// hybrid retrieval shape.
func (c *Client) CreateCollection(ctx context.Context, name string, dimensions int) error {
	req := createCollectionRequest{
		Vectors: map[string]vectorParams{
			"dense": {Size: dimensions, Distance: "Cosine"},
		},
		Sparse: map[string]sparseParams{
			"sparse": {Index: sparseIndexParams{OnDisk: false}, Modifier: "idf"},
		},
		HNSW: hnswConfig{M: hnswM, EfConstruct: hnswEfConstruct},
		OptimizersConfig: optimizersConfig{IndexingThreshold: indexingThreshold},
	}
	return c.do(ctx, http.MethodPut, "/collections/"+name, req, nil)
}

// CollectionExists reports whether the named collection exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/collections/"+name, nil, nil)
	if err == nil {
		return true, nil
	}
	var apiErr *domain.ApiError
	if isNotFound(err, &apiErr) {
		return false, nil
	}
	return false, err
}

func isNotFound(err error, target **domain.ApiError) bool {
	apiErr, ok := err.(*domain.ApiError)
	if !ok {
		return false
	}
	*target = apiErr
	return apiErr.StatusCode == http.StatusNotFound
}

// DeleteCollection removes a collection, used before a forced re-index.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/collections/"+name, nil, nil)
}

// Point is one chunk's dense+sparse vectors plus its stored payload.
type Point struct {
	ChunkID string
	Dense   []float32
	Sparse  map[int]float32
	Payload map[string]any
}

type upsertRequest struct {
	Points []upsertPoint `json:"points"`
}

type upsertPoint struct {
	ID      string         `json:"id"`
	Vector  map[string]any `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// PointID derives the stable UUID Qdrant requires as a point identifier
// from a chunk's string ID, so re-ingesting the same chunk always
// upserts the same point instead of creating a duplicate.
func PointID(chunkID string) string {
	sum := sha1.Sum([]byte(chunkID)) //nolint:gosec
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		// sha1.Sum always yields >=16 bytes; unreachable in practice.
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
	}
	return id.String()
}

// Upsert writes points in sub-batches of upsertSubBatchSize, retrying each
// sub-batch on transient failure with a linear backoff.
func (c *Client) Upsert(ctx context.Context, collection string, points []Point) error {
	for start := 0; start < len(points); start += upsertSubBatchSize {
		end := min(start+upsertSubBatchSize, len(points))
		if err := c.upsertSubBatch(ctx, collection, points[start:end]); err != nil {
			return fmt.Errorf("upsert batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (c *Client) upsertSubBatch(ctx context.Context, collection string, points []Point) error {
	req := upsertRequest{Points: make([]upsertPoint, len(points))}
	for i, p := range points {
		vec := map[string]any{"dense": p.Dense}
		if len(p.Sparse) > 0 {
			indices := make([]int, 0, len(p.Sparse))
			values := make([]float32, 0, len(p.Sparse))
			for idx, val := range p.Sparse {
				indices = append(indices, idx)
				values = append(values, val)
			}
			vec["sparse"] = map[string]any{"indices": indices, "values": values}
		}
		req.Points[i] = upsertPoint{ID: PointID(p.ChunkID), Vector: vec, Payload: p.Payload}
	}

	var lastErr error
	for attempt := 1; attempt <= upsertMaxRetries; attempt++ {
		err := c.do(ctx, http.MethodPut, "/collections/"+collection+"/points", req, nil)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *domain.ApiError
		if ae, ok := err.(*domain.ApiError); ok {
			apiErr = ae
		}
		if apiErr != nil && !apiErr.Retryable {
			return err
		}
		if attempt < upsertMaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(upsertRetryDelay * time.Duration(attempt)):
			}
		}
	}
	return lastErr
}

// QueryResult is one scored point returned from a query.
type QueryResult struct {
	ChunkID string
	Score   float64
	Payload map[string]any
}

type queryRequest struct {
	Prefetch       []prefetchClause `json:"prefetch,omitempty"`
	Query          any              `json:"query"`
	Using          string           `json:"using,omitempty"`
	Limit          int              `json:"limit"`
	ScoreThreshold *float64         `json:"score_threshold,omitempty"`
	WithPayload    bool             `json:"with_payload"`
}

type prefetchClause struct {
	Query any    `json:"query"`
	Using string `json:"using"`
	Limit int    `json:"limit"`
}

// fusionQuery selects Qdrant's reciprocal-rank-fusion scoring. Qdrant's
// fusion query schema takes only the fusion method name; the RRF rank
// constant is fixed server-side and has no client-tunable field.
type fusionQuery struct {
	Fusion string `json:"fusion"`
}

type queryResponse struct {
	Result struct {
		Points []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	} `json:"result"`
}

// QueryHybrid runs dense + sparse prefetch and fuses the result lists
// server-side with reciprocal rank fusion, returning the top limit points.
func (c *Client) QueryHybrid(ctx context.Context, collection string, denseVec []float32, sparseVec map[int]float32, prefetchLimit, limit int) ([]QueryResult, error) {
	indices := make([]int, 0, len(sparseVec))
	values := make([]float32, 0, len(sparseVec))
	for idx, val := range sparseVec {
		indices = append(indices, idx)
		values = append(values, val)
	}

	req := queryRequest{
		Prefetch: []prefetchClause{
			{Query: denseVec, Using: "dense", Limit: prefetchLimit},
			{Query: map[string]any{"indices": indices, "values": values}, Using: "sparse", Limit: prefetchLimit},
		},
		Query:       fusionQuery{Fusion: "rrf"},
		Limit:       limit,
		WithPayload: true,
	}

	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/query", req, &resp); err != nil {
		return nil, err
	}
	return toResults(resp), nil
}

// QueryDense runs a dense-only similarity search, optionally filtering by
// a minimum score threshold, used when the query language does not match
// the collection's declared document language (§4.8).
func (c *Client) QueryDense(ctx context.Context, collection string, denseVec []float32, limit int, scoreThreshold *float64) ([]QueryResult, error) {
	req := queryRequest{
		Query:          denseVec,
		Using:          "dense",
		Limit:          limit,
		ScoreThreshold: scoreThreshold,
		WithPayload:    true,
	}
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/query", req, &resp); err != nil {
		return nil, err
	}
	return toResults(resp), nil
}

func toResults(resp queryResponse) []QueryResult {
	out := make([]QueryResult, len(resp.Result.Points))
	for i, p := range resp.Result.Points {
		out[i] = QueryResult{ChunkID: p.ID, Score: p.Score, Payload: p.Payload}
	}
	return out
}

type scrollRequest struct {
	Filter      any  `json:"filter"`
	Limit       int  `json:"limit"`
	WithPayload bool `json:"with_payload"`
}

type scrollResponse struct {
	Result struct {
		Points []struct {
			ID      string         `json:"id"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	} `json:"result"`
}

// Scroll returns up to limit points whose payload.doc_id matches docID,
// used by get_doc_chunks (§4.9).
func (c *Client) Scroll(ctx context.Context, collection, docID string, limit int) ([]map[string]any, error) {
	req := scrollRequest{
		Filter: map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"value": docID}},
			},
		},
		Limit:       limit,
		WithPayload: true,
	}
	var resp scrollResponse
	if err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", req, &resp); err != nil {
		return nil, err
	}
	payloads := make([]map[string]any, len(resp.Result.Points))
	for i, p := range resp.Result.Points {
		payloads[i] = p.Payload
	}
	return payloads, nil
}

// DeletePoints removes points by chunk ID. Nothing in the indexing pipeline
// calls it; re-ingestion overwrites points by their derived IDs.
func (c *Client) DeletePoints(ctx context.Context, collection string, chunkIDs []string) error {
	ids := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		ids[i] = PointID(id)
	}
	req := map[string]any{"points": ids}
	return c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/delete", req, nil)
}
