package chunker

import (
	"fmt"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

// DefaultChunkSize and DefaultMinChunkSize apply when Options leaves
// ChunkSize or MinChunkSize at zero. The index command passes CHUNK_SIZE
// (default 3000) as ChunkSize and never sets MinChunkSize.
const (
	DefaultChunkSize    = 2000
	DefaultMinChunkSize = 100
)

// Options configures chunk sizing, shared across all three strategies.
type Options struct {
	ChunkSize    int
	MinChunkSize int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = DefaultMinChunkSize
	}
	return o
}

// Chunk dispatches doc to the chunker strategy named by chunkerType
// ("markdown", "typedoc", "javadoc" — a tagged-variant selector, not a
// subclass hierarchy, since the dispatch is fixed at three variants), then
// back-fills TotalChunks and DocTOC across every resulting chunk.
func Chunk(doc domain.Document, chunkerType string, opts Options) ([]domain.Chunk, error) {
	opts = opts.withDefaults()

	var raw []rawChunk
	switch chunkerType {
	case "markdown":
		raw = chunkMarkdown(doc.Content, opts.ChunkSize)
	case "typedoc":
		raw = chunkTypeDoc(doc.Content, doc.Category, opts.ChunkSize, opts.MinChunkSize)
	case "javadoc":
		raw = chunkJavaDoc(doc.Content, doc.Category, opts.ChunkSize, opts.MinChunkSize)
	default:
		return nil, fmt.Errorf("unknown chunker type %q", chunkerType)
	}

	raw = discardTrivial(raw, opts.MinChunkSize)
	if len(raw) == 0 {
		return nil, nil
	}

	toc := extractTOC(doc.Content)
	total := len(raw)

	chunks := make([]domain.Chunk, total)
	for i, r := range raw {
		chunks[i] = domain.Chunk{
			ID:            fmt.Sprintf("%s_chunk%d", doc.ID, i),
			DocID:         doc.ID,
			ChunkIndex:    i,
			Content:       r.content,
			SectionPath:   r.sectionPath,
			DocTOC:        toc,
			TotalChunks:   total,
			Category:      doc.Category,
			RelativePath:  doc.RelativePath,
			PathHierarchy: doc.PathHierarchy,
		}
	}
	return chunks, nil
}
