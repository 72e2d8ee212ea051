// Package embedclient is the Voyage AI embedder and reranker client (§4.3).
// It estimates token cost per input, batches dynamically against a token and
// input-count ceiling, checks the sliding-window rate limiter before every
// call, retries transient failures with exponential backoff, and verifies
// the returned vector dimension matches what the collection expects.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/logger"
	"github.com/docsearch-mcp/docserver/internal/ratelimit"
)

const (
	DefaultBaseURL     = "https://api.voyageai.com/v1"
	DefaultEmbedModel  = "voyage-3"
	DefaultRerankModel = "rerank-2"
	DefaultTimeout     = 60 * time.Second

	maxRetries = 3
	retryBase  = time.Second
)

// Config configures a Client.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbedModel     string
	RerankModel    string
	Dimensions     int
	MaxBatchInputs int
	RPMLimit       int
	TPMLimit       int
	Timeout        time.Duration
}

// Client is a Voyage embedder+reranker HTTP client.
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	model       string
	rerankModel string
	dimensions  int
	maxInputs   int

	limiter *ratelimit.Limiter
	pacer   *rate.Limiter
}

// New creates a Client. APIKey is required; other fields fall back to
// Voyage's documented defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigError{Field: "VOYAGE_API_KEY", Cause: fmt.Errorf("required")}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.RerankModel == "" {
		cfg.RerankModel = DefaultRerankModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.EmbedModel,
		rerankModel: cfg.RerankModel,
		dimensions:  cfg.Dimensions,
		maxInputs:   cfg.MaxBatchInputs,
		limiter:     ratelimit.New(cfg.RPMLimit, cfg.TPMLimit),
		// The outbound pacer smooths request issuance independent of the
		// RPM/TPM contract: ~10 requests/sec sustained, small burst.
		pacer: rate.NewLimiter(rate.Limit(10), 3),
	}, nil
}

// Dimensions returns the expected embedding vector length, 0 if unknown
// until the first successful embed call.
func (c *Client) Dimensions() int { return c.dimensions }

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error string `json:"detail"`
}

// EmbedBatch embeds all texts, internally splitting into batches sized to
// the token and input-count ceilings, and returns vectors in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, len(texts))
	for _, batch := range planBatches(texts, c.maxInputs) {
		vecs, err := c.embedOne(ctx, batch)
		if err != nil {
			return nil, err
		}
		for i, in := range batch {
			result[in.index] = vecs[i]
		}
	}
	return result, nil
}

func (c *Client) embedOne(ctx context.Context, batch []batchInput) ([][]float32, error) {
	texts := make([]string, len(batch))
	tokens := 0
	for i, in := range batch {
		texts[i] = in.text
		tokens += in.tokens
	}

	if err := c.limiter.CheckAndRecord(tokens); err != nil {
		return nil, err
	}

	reqBody := embedRequest{Input: texts, Model: c.model}
	var resp embedResponse
	if err := c.doWithRetry(ctx, "/embeddings", reqBody, &resp); err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			continue
		}
		vecs[d.Index] = d.Embedding
	}

	for _, v := range vecs {
		if v == nil {
			continue
		}
		if c.dimensions == 0 {
			c.dimensions = len(v)
		} else if len(v) != c.dimensions {
			return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, c.dimensions, len(v))
		}
	}

	return vecs, nil
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
}

type rerankResponse struct {
	Data []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"data"`
}

// RerankedIndex pairs a candidate's original position with its rerank score.
type RerankedIndex struct {
	Index int
	Score float64
}

// Rerank scores documents against query and returns them best-first. On
// any failure it logs a warning and returns the documents in their
// original order rather than failing the surrounding search.
func (c *Client) Rerank(ctx context.Context, query string, documents []string) []RerankedIndex {
	if len(documents) == 0 {
		return nil
	}

	reqBody := rerankRequest{Query: query, Documents: documents, Model: c.rerankModel}
	var resp rerankResponse
	if err := c.doWithRetry(ctx, "/rerank", reqBody, &resp); err != nil {
		logger.Warn("rerank failed, falling back to original order: %v", err)
		return identityOrder(len(documents))
	}
	if len(resp.Data) == 0 {
		return identityOrder(len(documents))
	}

	out := make([]RerankedIndex, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = RerankedIndex{Index: d.Index, Score: d.RelevanceScore}
	}
	return out
}

func identityOrder(n int) []RerankedIndex {
	out := make([]RerankedIndex, n)
	for i := range out {
		out[i] = RerankedIndex{Index: i, Score: 0}
	}
	return out
}

// doWithRetry posts reqBody as JSON to path, decoding the response into out.
// Retryable failures (timeouts, 429, 5xx) are attempted up to maxRetries
// times in total with exponential backoff; other failures return immediately.
func (c *Client) doWithRetry(ctx context.Context, path string, reqBody, out any) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}

		apiErr, err := c.doOnce(ctx, path, data, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if apiErr == nil {
			return err
		}
		if !apiErr.Retryable {
			return apiErr
		}

		if attempt < maxRetries {
			delay := retryBase * time.Duration(1<<(attempt-1))
			logger.Warn("voyage request to %s failed (attempt %d/%d), retrying in %s: %v", path, attempt, maxRetries, delay, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, path string, body []byte, out any) (*domain.ApiError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// Network-level failures (timeouts, resets) are retryable.
		return &domain.ApiError{Message: err.Error(), Retryable: true}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ApiError{Message: err.Error(), Retryable: true}, err
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		apiErr := &domain.ApiError{StatusCode: resp.StatusCode, Message: string(respBody), Retryable: retryable}
		return apiErr, apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return nil, nil
}
