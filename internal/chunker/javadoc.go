package chunker

import (
	"regexp"
	"strings"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

var (
	summaryMarker = regexp.MustCompile(`(?m)^##[ \t]+(Method Summary|Field Summary)[ \t]*$`)
	detailMarker  = regexp.MustCompile(`(?m)^##[ \t]+(Method Detail|Method Details)[ \t]*$`)
	methodSplit   = regexp.MustCompile(`(?m)^[ \t]*\+?[ \t]*###[ \t]+(\w+)`)
)

const (
	minMethodsForJavaDocStrategy = 3
	summaryMarkerFallbackLine    = 15
	summaryMarkerScanLines       = 30
)

// chunkJavaDoc implements the JavaDoc chunker strategy (§4.6). API-category
// documents are split at a Method Summary/Detail boundary into a header
// region and a body of individual method sections, which are then
// regrouped into chunk_size-bounded batches, each carrying the header
// region again. demo and doc categories share the TypeDoc strategy's
// handling of those categories.
func chunkJavaDoc(content string, category domain.Category, chunkSize, minChunkSize int) []rawChunk {
	if len(content) <= chunkSize {
		return []rawChunk{{content: content}}
	}

	switch category {
	case domain.CategoryAPI:
		if chunks := chunkJavaDocAPI(content, chunkSize); chunks != nil {
			return chunks
		}
		// Fewer than three methods found; fall back to plain protected splitting.
		pieces := splitProtected(content, chunkSize)
		chunks := make([]rawChunk, len(pieces))
		for i, p := range pieces {
			chunks[i] = rawChunk{content: p}
		}
		return chunks
	case domain.CategoryDemo:
		return chunkWithTitlePrefix(content, chunkSize)
	default:
		return chunkMarkdown(content, chunkSize)
	}
}

func chunkJavaDocAPI(content string, chunkSize int) []rawChunk {
	headerEnd := findSummaryMarkerLine(content)
	header := content[:headerEnd]

	detailLoc := detailMarker.FindStringIndex(content)
	if detailLoc == nil {
		return nil
	}
	body := content[detailLoc[1]:]

	splits := methodSplit.FindAllStringSubmatchIndex(body, -1)
	if len(splits) < minMethodsForJavaDocStrategy {
		return nil
	}

	var methods []string
	var names []string
	for i, m := range splits {
		start := m[0]
		end := len(body)
		if i+1 < len(splits) {
			end = splits[i+1][0]
		}
		methods = append(methods, body[start:end])
		names = append(names, body[m[2]:m[3]])
	}

	budget := chunkSize - len(header) - len("\n\n---\n\n")
	if budget < 1 {
		budget = chunkSize / 2
	}

	var chunks []rawChunk
	var acc strings.Builder
	var path []string

	flush := func() {
		if acc.Len() == 0 {
			return
		}
		chunks = append(chunks, rawChunk{
			content:     header + "\n\n---\n\n" + acc.String(),
			sectionPath: sectionPath(path...),
		})
		acc.Reset()
		path = nil
	}

	for i, m := range methods {
		if acc.Len() > 0 && acc.Len()+len(m) > budget {
			flush()
		}
		acc.WriteString(m)
		path = append(path, names[i])
	}
	flush()

	return chunks
}

// findSummaryMarkerLine finds the byte offset of the Method/Field Summary
// marker within the first summaryMarkerScanLines lines, falling back to
// summaryMarkerFallbackLine when absent.
func findSummaryMarkerLine(content string) int {
	lines := strings.SplitAfter(content, "\n")
	scanLimit := min(summaryMarkerScanLines, len(lines))

	offset := 0
	for i := 0; i < scanLimit; i++ {
		if summaryMarker.MatchString(lines[i]) {
			return offset
		}
		offset += len(lines[i])
	}

	offset = 0
	fallback := min(summaryMarkerFallbackLine, len(lines))
	for i := 0; i < fallback; i++ {
		offset += len(lines[i])
	}
	return offset
}
