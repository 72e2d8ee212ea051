// Package chunker implements the three chunking strategies (§4.6): markdown,
// typedoc, and javadoc. All three share the splitting primitives in this
// file — split_by_headers, split_protected, split_code_block, and
// extract_toc — behind a tagged-variant selector (chunker.go) rather than
// a subclass hierarchy, since the dispatch is fixed at three variants.
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var fencedBlock = regexp.MustCompile("(?s)```.*?```")

// segment is one piece of text tagged as code or prose, produced by
// splitting a document on its fenced code blocks.
type segment struct {
	isCode bool
	text   string
}

func splitCodeAndText(text string) []segment {
	matches := fencedBlock.FindAllStringIndex(text, -1)
	var segs []segment
	last := 0
	for _, m := range matches {
		if m[0] > last {
			segs = append(segs, segment{isCode: false, text: text[last:m[0]]})
		}
		segs = append(segs, segment{isCode: true, text: text[m[0]:m[1]]})
		last = m[1]
	}
	if last < len(text) {
		segs = append(segs, segment{isCode: false, text: text[last:]})
	}
	return segs
}

// headerSection is one region of a document delimited by headers at a
// single level. header is the header text with the "#" markers stripped;
// the preamble before the first header at that level carries an empty
// header. content always includes the header line itself, so
// re-prepending a section's content reconstructs it exactly.
type headerSection struct {
	header  string
	content string
}

// headerPattern returns a regexp matching Markdown headers of exactly
// `level` (not more, not fewer) "#" markers.
func headerPattern(level int) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^#{` + strconv.Itoa(level) + `}[ \t]+(.*)$`)
}

// splitByHeaders partitions content into sections at header boundaries of
// exactly `level`. If no header of that level exists, the whole content
// is returned as a single section with an empty header.
func splitByHeaders(content string, level int) []headerSection {
	pattern := headerPattern(level)
	matches := pattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return []headerSection{{header: "", content: content}}
	}

	var sections []headerSection
	if preamble := content[:matches[0][0]]; strings.TrimSpace(preamble) != "" {
		sections = append(sections, headerSection{header: "", content: preamble})
	}

	for i, m := range matches {
		start := m[0]
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		header := strings.TrimSpace(content[m[2]:m[3]])
		sections = append(sections, headerSection{header: header, content: content[start:end]})
	}
	return sections
}

// headerLine reconstructs a Markdown header line for re-prepending to a
// continuation chunk.
func headerLine(level int, header string) string {
	if header == "" {
		return ""
	}
	return strings.Repeat("#", level) + " " + header
}

// extractTOC walks every header in content (levels 1-6) and emits an
// indented outline, two spaces per level beyond the first.
func extractTOC(content string) string {
	pattern := regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*)$`)
	matches := pattern.FindAllStringSubmatch(content, -1)
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		level := len(m[1])
		indent := strings.Repeat("  ", level-1)
		lines = append(lines, indent+strings.TrimSpace(m[2]))
	}
	return strings.Join(lines, "\n")
}

func isSpaceByte(b byte) bool {
	return unicode.IsSpace(rune(b))
}

// findBreakPoint searches backward from budget (bounded by len(text))
// through the priority list "\n\n" > "\n" > "。" > "." for a cut point,
// accepting it only if its position falls past half the budget. A
// trailing period only counts as a break if followed by whitespace or
// end-of-string, so URLs are not split mid-dot. Falls back to a hard cut
// at budget.
func findBreakPoint(text string, budget int) int {
	if budget >= len(text) {
		budget = len(text)
	}
	half := budget / 2
	window := text[:budget]

	for _, sep := range []string{"\n\n", "\n", "。"} {
		if idx := strings.LastIndex(window, sep); idx >= half {
			return idx + len(sep)
		}
	}

	for i := budget - 1; i >= half; i-- {
		if text[i] != '.' {
			continue
		}
		if i+1 >= len(text) || isSpaceByte(text[i+1]) {
			return i + 1
		}
	}

	return budget
}

// splitProtected performs size-bounded splitting of text that never cuts
// inside a fenced code block (§4.6). Code segments are kept whole when
// they (plus whatever is already accumulated) fit within chunkSize*1.5;
// segments larger than chunkSize*3 are exploded by splitCodeBlock. Prose
// is cut at the best break point found by findBreakPoint.
func splitProtected(text string, chunkSize int) []string {
	segs := splitCodeAndText(text)

	var result []string
	var acc strings.Builder

	flush := func() {
		if strings.TrimSpace(acc.String()) != "" {
			result = append(result, acc.String())
		}
		acc.Reset()
	}

	codeSoftLimit := int(float64(chunkSize) * 1.5)
	codeHardLimit := chunkSize * 3

	for _, seg := range segs {
		if seg.isCode {
			if len(seg.text) > codeHardLimit {
				flush()
				result = append(result, splitCodeBlock(seg.text, chunkSize)...)
				continue
			}
			if acc.Len() > 0 && acc.Len()+len(seg.text) > codeSoftLimit {
				flush()
			}
			acc.WriteString(seg.text)
			continue
		}

		remaining := seg.text
		for len(remaining) > 0 {
			budget := chunkSize - acc.Len()
			if budget <= 0 {
				flush()
				budget = chunkSize
			}
			if len(remaining) <= budget {
				acc.WriteString(remaining)
				remaining = ""
				break
			}
			cut := findBreakPoint(remaining, budget)
			if cut <= 0 {
				cut = budget
			}
			acc.WriteString(remaining[:cut])
			flush()
			remaining = remaining[cut:]
		}
	}
	flush()
	return result
}

// splitCodeBlock splits an oversize fenced code block while preserving
// its fence markers on every emitted piece. It splits first by blank
// lines; if that produces a single piece (no blank lines present), it
// falls back to splitting by single newlines. Any individual line that
// still exceeds the budget (e.g. a base64 blob) is hard-sliced.
func splitCodeBlock(block string, chunkSize int) []string {
	nl := strings.IndexByte(block, '\n')
	if nl == -1 {
		return []string{block}
	}
	opening := block[:nl+1]
	rest := block[nl+1:]

	closing := ""
	body := rest
	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		body = rest[:idx]
		closing = rest[idx:]
	}

	budget := chunkSize - len(opening) - len(closing)
	if budget < 1 {
		budget = 1
	}

	pieces := splitCodeBody(body, budget)
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = opening + p + closing
	}
	return out
}

func splitCodeBody(body string, budget int) []string {
	sep := "\n\n"
	segments := strings.Split(body, sep)
	if len(segments) == 1 {
		sep = "\n"
		segments = strings.Split(body, sep)
	}

	var pieces []string
	var acc strings.Builder

	flush := func() {
		if acc.Len() > 0 {
			pieces = append(pieces, acc.String())
			acc.Reset()
		}
	}

	for _, s := range segments {
		if len(s) > budget {
			flush()
			for start := 0; start < len(s); start += budget {
				end := min(start+budget, len(s))
				pieces = append(pieces, s[start:end])
			}
			continue
		}

		if acc.Len() == 0 {
			acc.WriteString(s)
			continue
		}
		if acc.Len()+len(sep)+len(s) > budget {
			flush()
			acc.WriteString(s)
			continue
		}
		acc.WriteString(sep)
		acc.WriteString(s)
	}
	flush()
	return pieces
}

// rawChunk is a chunker strategy's output before the orchestrator assigns
// ChunkIndex, TotalChunks, and DocTOC.
type rawChunk struct {
	content     string
	sectionPath []string
}

func sectionPath(parts ...string) []string {
	var path []string
	for _, p := range parts {
		if p != "" {
			path = append(path, p)
		}
	}
	return path
}

// discardTrivial drops whitespace-only chunks and, unless it is the sole
// chunk, any chunk whose trimmed length is below minChunkSize (§4.6 edge
// cases).
func discardTrivial(chunks []rawChunk, minChunkSize int) []rawChunk {
	var kept []rawChunk
	for _, c := range chunks {
		if strings.TrimSpace(c.content) == "" {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) <= 1 {
		return kept
	}

	var filtered []rawChunk
	for _, c := range kept {
		if len(strings.TrimSpace(c.content)) >= minChunkSize {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
