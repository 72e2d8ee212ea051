package configresolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

func writeProduct(t *testing.T, root, product, productYAML, langYAML, lang string) {
	t.Helper()
	dir := filepath.Join(root, product)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "product.yaml"), []byte(productYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, lang+".yaml"), []byte(langYAML), 0o644))
}

func TestResolve_DefaultsAndOverrides(t *testing.T) {
	root := t.TempDir()
	writeProduct(t, root, "spreadjs", `
name: SpreadJS
company: GrapeCity
chunker: typedoc
doc_subdirs: ["apis", "demos"]
instructions: "Use for spreadsheet API questions."
search:
  rerank_top_k: 15
`, `
doc_language: en
raw_data: /data/spreadjs/en
description: English SpreadJS docs
resources:
  style:
    name: style
    description: coding style
    mime_type: text/markdown
    content: "use camelCase"
`, "en")

	r := New(root)
	cfg, err := r.Resolve("spreadjs", "en")
	require.NoError(t, err)

	assert.Equal(t, "SpreadJS", cfg.Name)
	assert.Equal(t, "typedoc", cfg.ChunkerType)
	assert.Equal(t, "GR", cfg.CompanyShort)
	assert.Equal(t, "spreadjs_en", cfg.Collection)
	assert.Equal(t, 15, cfg.Search.RerankTopK)
	assert.Equal(t, domain.DefaultSearchConfig().PrefetchLimit, cfg.Search.PrefetchLimit)
	assert.Contains(t, cfg.Resources, "style")
}

func TestResolve_CachesResult(t *testing.T) {
	root := t.TempDir()
	writeProduct(t, root, "spreadjs", `
name: SpreadJS
company: GC
chunker: markdown
doc_subdirs: ["docs"]
`, `
doc_language: en
raw_data: /data/spreadjs/en
`, "en")

	r := New(root)
	first, err := r.Resolve("spreadjs", "en")
	require.NoError(t, err)

	// Remove the files on disk; a cached resolve must still succeed.
	require.NoError(t, os.RemoveAll(filepath.Join(root, "spreadjs")))

	second, err := r.Resolve("spreadjs", "en")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestResolve_MissingProductFile(t *testing.T) {
	root := t.TempDir()
	r := New(root)
	_, err := r.Resolve("missing", "en")
	require.Error(t, err)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestResolve_InvalidChunkerType(t *testing.T) {
	root := t.TempDir()
	writeProduct(t, root, "spreadjs", `
name: SpreadJS
company: GC
chunker: bogus
doc_subdirs: ["docs"]
`, `
doc_language: en
raw_data: /data/spreadjs/en
`, "en")

	r := New(root)
	_, err := r.Resolve("spreadjs", "en")
	require.Error(t, err)
}

func TestResolve_InvalidProductIdentifier(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.Resolve("Spread JS", "en")
	require.Error(t, err)
}

func TestRequiredEnv(t *testing.T) {
	t.Setenv("DOCSERVER_TEST_VAR", "")
	_, err := RequiredEnv("DOCSERVER_TEST_VAR")
	require.Error(t, err)

	t.Setenv("DOCSERVER_TEST_VAR", "value")
	v, err := RequiredEnv("DOCSERVER_TEST_VAR")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("DOCSERVER_TEST_VAR2", "")
	assert.Equal(t, "fallback", EnvOrDefault("DOCSERVER_TEST_VAR2", "fallback"))

	t.Setenv("DOCSERVER_TEST_VAR2", "set")
	assert.Equal(t, "set", EnvOrDefault("DOCSERVER_TEST_VAR2", "fallback"))
}
