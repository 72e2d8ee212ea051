package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Health(t *testing.T) {
	r := NewRouter("0.1.0", nil, []ProductInfo{
		{ID: "spreadjs", Name: "SpreadJS", Lang: "en", Collection: "spreadjs_en", Endpoint: "/mcp/spreadjs"},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "spreadjs_en")
}

func TestRouter_ManifestOnMarkdownAccept(t *testing.T) {
	r := NewRouter("0.1.0", nil, []ProductInfo{
		{ID: "spreadjs", Name: "SpreadJS", Lang: "en", Endpoint: "/mcp/spreadjs"},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/markdown")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Documentation search service")
	assert.Contains(t, rec.Body.String(), "SpreadJS")
}

func TestRouter_RootWithoutMarkdownAcceptIs404(t *testing.T) {
	r := NewRouter("0.1.0", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CORSHeaders(t *testing.T) {
	r := NewRouter("0.1.0", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, sessionHeader, rec.Header().Get("Access-Control-Expose-Headers"))
}
