package chunker

import "strings"

// chunkMarkdown implements the Markdown chunker strategy (§4.6): small
// documents emit one chunk; otherwise the document is split primarily at
// h2, and any section still over chunkSize is split again at h3, then
// split_protected. Non-first sub-chunks get their section's header line
// re-prepended so the continuation keeps its context.
func chunkMarkdown(content string, chunkSize int) []rawChunk {
	if len(content) <= chunkSize {
		return []rawChunk{{content: content}}
	}

	var chunks []rawChunk
	for _, h2 := range splitByHeaders(content, 2) {
		if len(h2.content) <= chunkSize {
			chunks = append(chunks, rawChunk{
				content:     h2.content,
				sectionPath: sectionPath(h2.header),
			})
			continue
		}

		for _, h3 := range splitByHeaders(h2.content, 3) {
			pieces := splitProtected(h3.content, chunkSize)
			header := h3.header
			headerLevel := 3
			if header == "" {
				header = h2.header
				headerLevel = 2
			}

			for i, piece := range pieces {
				if i > 0 {
					if line := headerLine(headerLevel, header); line != "" && !strings.HasPrefix(strings.TrimSpace(piece), "#") {
						piece = line + "\n\n" + piece
					}
				}
				chunks = append(chunks, rawChunk{
					content:     piece,
					sectionPath: sectionPath(h2.header, h3.header),
				})
			}
		}
	}

	return chunks
}
