package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_ReadsMarkdownRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/getting-started.md", "# Getting Started\n\nHello.")
	writeFile(t, root, "apis/Workbook.md", "# Workbook\n\nAPI docs.")
	writeFile(t, root, "docs/image.png", "not markdown")

	docs, err := Load(root, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "apis_Workbook", docs[0].ID)
	assert.Equal(t, "apis/Workbook.md", docs[0].RelativePath)
	assert.Equal(t, []string{"apis", "Workbook.md"}, docs[0].PathHierarchy)
}

func TestLoad_FiltersBySubdirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/a.md", "# A")
	writeFile(t, root, "demos/b.md", "# B")

	docs, err := Load(root, []string{"docs"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "docs/a.md", docs[0].RelativePath)
}

func TestLoad_AssignsCategory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "demos/d.md", "# D")

	docs, err := Load(root, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.EqualValues(t, "demo", docs[0].Category)
}

func TestSanitize_StripsSpansButKeepsText(t *testing.T) {
	in := `# Title

<span style="color:red" class="foo">Hello</span> <span>world</span>`
	out := Sanitize(in)
	assert.NotContains(t, out, "<span")
	assert.NotContains(t, out, "style=")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "world")
}

func TestSanitize_DropsEmptySpans(t *testing.T) {
	in := `text <span class="x"></span> more`
	out := Sanitize(in)
	assert.NotContains(t, out, "<span")
	assert.Contains(t, out, "text")
	assert.Contains(t, out, "more")
}

func TestSanitize_UnwrapsNestedSpans(t *testing.T) {
	in := `<span><span><span>deep</span></span></span>`
	out := Sanitize(in)
	assert.Equal(t, "deep", out)
}

func TestSanitize_ConvertsBrToNewline(t *testing.T) {
	in := "line one<br/>line two<br>line three"
	out := Sanitize(in)
	assert.Contains(t, out, "line one\nline two")
}

func TestSanitize_PreservesFencedCodeBlocks(t *testing.T) {
	in := "```js\nconst x = <span>not html</span>;\n```\n\ntext <span>here</span>"
	out := Sanitize(in)
	assert.Contains(t, out, "const x = <span>not html</span>;")
	assert.NotContains(t, out, "<span>here</span>")
}

func TestSanitize_StripsDataCcpProps(t *testing.T) {
	in := `<span data-ccp-props="{&quot;some&quot;:1}">kept</span>`
	out := Sanitize(in)
	assert.NotContains(t, out, "data-ccp-props")
	assert.Contains(t, out, "kept")
}

func TestSanitize_CollapsesWhitespaceRuns(t *testing.T) {
	in := "a    b\n\n\n\nc"
	out := Sanitize(in)
	assert.Equal(t, "a b\n\nc", out)
}
