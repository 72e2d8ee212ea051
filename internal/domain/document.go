package domain

// Category classifies a document by its top-level raw_data subdirectory.
type Category string

const (
	CategoryAPI  Category = "api"
	CategoryDoc  Category = "doc"
	CategoryDemo Category = "demo"
)

// categoryByDir maps a top-level directory name to its document category.
var categoryByDir = map[string]Category{
	"apis":  CategoryAPI,
	"docs":  CategoryDoc,
	"demos": CategoryDemo,
}

// CategoryForDir resolves a top-level raw_data directory name to its
// category, defaulting to CategoryDoc when the directory is unrecognised.
func CategoryForDir(dir string) Category {
	if c, ok := categoryByDir[dir]; ok {
		return c
	}
	return CategoryDoc
}

// Document is an immutable source unit read from the raw_data tree.
type Document struct {
	// ID is derived from RelativePath: separators collapsed to
	// underscores, extension stripped.
	ID string

	// Content is the raw text after HTML sanitisation.
	Content string

	// RelativePath is the path relative to the product's raw_data root.
	RelativePath string

	// Category is derived from the first path component.
	Category Category

	// PathHierarchy is the sequence of path components leading to the file.
	PathHierarchy []string
}

// Chunk is an ordered slice of a Document produced by a chunker strategy.
type Chunk struct {
	// ID is "{doc_id}_chunk{N}".
	ID string

	DocID      string
	ChunkIndex int
	Content    string

	// SectionPath is the breadcrumb of enclosing headers, e.g. ["Usage", "Options"].
	SectionPath []string

	// DocTOC is the full indented header outline of the parent document,
	// identical across every chunk of that document.
	DocTOC string

	// TotalChunks is back-filled once the parent document finishes chunking.
	TotalChunks int

	Category      Category
	RelativePath  string
	PathHierarchy []string
}
