package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("doc_chunk0")
	b := PointID("doc_chunk0")
	c := PointID("doc_chunk1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCreateCollection_SendsExpectedShape(t *testing.T) {
	var captured createCollectionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	require.NoError(t, c.CreateCollection(context.Background(), "spreadjs_en", 1536))

	assert.Equal(t, 1536, captured.Vectors["dense"].Size)
	assert.Equal(t, "Cosine", captured.Vectors["dense"].Distance)
	assert.Contains(t, captured.Sparse, "sparse")
	assert.Equal(t, hnswM, captured.HNSW.M)
}

func TestCollectionExists_True(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	exists, err := c.CollectionExists(context.Background(), "spreadjs_en")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCollectionExists_False(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	exists, err := c.CollectionExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsert_SubBatches(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		var req upsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Points), upsertSubBatchSize)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	points := make([]Point, 70)
	for i := range points {
		points[i] = Point{ChunkID: "chunk", Dense: []float32{0.1}, Payload: map[string]any{"n": i}}
	}

	require.NoError(t, c.Upsert(context.Background(), "coll", points))
	assert.EqualValues(t, 3, atomic.LoadInt32(&requests)) // 32 + 32 + 6
}

func TestUpsert_RetriesTransientFailure(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.Upsert(context.Background(), "coll", []Point{{ChunkID: "a", Dense: []float32{0.1}}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}

func TestQueryHybrid_ParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Prefetch, 2)

		resp := queryResponse{}
		resp.Result.Points = []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		}{
			{ID: "p1", Score: 0.9, Payload: map[string]any{"doc_id": "doc1"}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	results, err := c.QueryHybrid(context.Background(), "coll", []float32{0.1, 0.2}, map[int]float32{1: 0.5}, 20, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].Payload["doc_id"])
}

func TestScroll_FiltersByDocID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := scrollResponse{}
		resp.Result.Points = []struct {
			ID      string         `json:"id"`
			Payload map[string]any `json:"payload"`
		}{
			{ID: "p1", Payload: map[string]any{"chunk_index": 0}},
			{ID: "p2", Payload: map[string]any{"chunk_index": 1}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	payloads, err := c.Scroll(context.Background(), "coll", "doc1", 100)
	require.NoError(t, err)
	assert.Len(t, payloads, 2)
}

func TestDeletePoints_SendsDerivedIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		points, ok := body["points"].([]any)
		require.True(t, ok)
		assert.Len(t, points, 2)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	require.NoError(t, c.DeletePoints(context.Background(), "coll", []string{"a", "b"}))
}
