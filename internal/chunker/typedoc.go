package chunker

import (
	"regexp"
	"strings"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

var tocHeaderNames = map[string]bool{
	"Content":           true,
	"Table of contents": true,
	"Hierarchy":         true,
}

var h1Pattern = regexp.MustCompile(`(?m)^#[ \t]+(.*)$`)

func firstH1(content string) (title string, rest string) {
	loc := h1Pattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", content
	}
	title = strings.TrimSpace(content[loc[2]:loc[3]])
	rest = content[loc[1]:]
	return title, rest
}

// chunkTypeDoc implements the TypeDoc chunker strategy (§4.6). API-category
// documents get their own member-accumulation algorithm; demo documents
// behave like Markdown but re-prepend the document title to continuation
// chunks; doc-category documents fall back to the plain Markdown strategy.
func chunkTypeDoc(content string, category domain.Category, chunkSize, minChunkSize int) []rawChunk {
	if len(content) <= chunkSize {
		return []rawChunk{{content: content}}
	}

	switch category {
	case domain.CategoryAPI:
		return chunkTypeDocAPI(content, chunkSize, minChunkSize)
	case domain.CategoryDemo:
		return chunkWithTitlePrefix(content, chunkSize)
	default:
		return chunkMarkdown(content, chunkSize)
	}
}

func chunkTypeDocAPI(content string, chunkSize, minChunkSize int) []rawChunk {
	classHeader, rest := firstH1(content)
	if classHeader == "" {
		return chunkMarkdown(content, chunkSize)
	}

	contentStart := findContentStart(rest)
	body := rest[contentStart:]

	var members []headerSection
	for _, h2 := range splitByHeaders(body, 2) {
		sub := splitByHeaders(h2.content, 3)
		if len(sub) == 1 && sub[0].header == "" {
			members = append(members, h2)
			continue
		}
		members = append(members, sub...)
	}

	var filtered []headerSection
	for _, m := range members {
		if len(strings.TrimSpace(m.content)) >= minChunkSize {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		filtered = members
	}

	budget := chunkSize - len(classHeader) - 10
	if budget < minChunkSize {
		budget = minChunkSize
	}

	var chunks []rawChunk
	var acc strings.Builder
	var path []string

	flush := func() {
		if acc.Len() == 0 {
			return
		}
		text := "# " + classHeader + "\n\n---\n\n" + acc.String()
		chunks = append(chunks, rawChunk{content: text, sectionPath: sectionPath(append([]string{classHeader}, path...)...)})
		acc.Reset()
		path = nil
	}

	for _, m := range filtered {
		if acc.Len() > 0 && acc.Len()+len(m.content) > budget {
			flush()
		}
		if acc.Len() > 0 {
			acc.WriteString("\n\n")
		}
		acc.WriteString(m.content)
		path = append(path, m.header)
	}
	flush()

	return chunks
}

// findContentStart scans for the first h2 whose text is not one of the
// TOC-region markers, skipping past the table-of-contents block.
func findContentStart(content string) int {
	pattern := headerPattern(2)
	matches := pattern.FindAllStringSubmatchIndex(content, -1)
	for _, m := range matches {
		text := strings.TrimSpace(content[m[2]:m[3]])
		if !tocHeaderNames[text] {
			return m[0]
		}
	}
	return 0
}

// chunkWithTitlePrefix behaves like the Markdown chunker but re-prepends
// the document's title (its first h1) to every continuation chunk
// instead of the nearest section header, matching the demo-category
// variant of both the TypeDoc and JavaDoc strategies.
func chunkWithTitlePrefix(content string, chunkSize int) []rawChunk {
	title, _ := firstH1(content)
	chunks := chunkMarkdown(content, chunkSize)
	if title == "" {
		return chunks
	}
	for i := 1; i < len(chunks); i++ {
		if !strings.HasPrefix(strings.TrimSpace(chunks[i].content), "#") {
			chunks[i].content = "# " + title + "\n\n" + chunks[i].content
		}
	}
	return chunks
}
