// Package bm25 derives the lexical half of hybrid retrieval (§4.4, §4.7,
// §4.8): a BM25-style sparse vector (term index -> saturated term
// frequency) from arbitrary text, used both to populate a chunk's sparse
// vector at index time and to embed a query's sparse vector at search
// time. Grounded on hypnagonia-rag's BM25Retriever scoring formula
// (internal/adapter/retriever/bm25.go) and its Tokenizer
// (internal/adapter/analyzer/tokenizer.go), restructured from a single
// corpus-wide relevance score into a reusable term-index/weight map since
// Qdrant's hybrid RRF fusion needs an independent sparse vector per point
// and per query, not a precomputed score.
package bm25

import (
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	// k1 and b are the classic Okapi BM25 term-frequency saturation and
	// length-normalization tunables, as used by hypnagonia-rag's
	// BM25Retriever.
	k1 = 1.2
	b  = 0.75

	// assumedAvgDocLength approximates the corpus-wide average chunk
	// length in tokens. The true average is only known after the whole
	// corpus has been chunked, and Vector is called one chunk (or one
	// query) at a time; Qdrant's own "idf" sparse-vector modifier
	// (vectorstore.CreateCollection) supplies the corpus-wide IDF term
	// from the collection's real document-frequency statistics, so this
	// constant only needs to keep the length-normalization factor in a
	// reasonable range, not match the corpus exactly.
	assumedAvgDocLength = 150.0

	minTermLength = 2
)

// Vector computes a sparse vector from text: each distinct term hashes to
// a stable non-negative index, weighted by its BM25-saturated term
// frequency within text. The same term always hashes to the same index
// whether Vector is called at index time (chunk content) or query time
// (query text), so a query term lands in the same sparse dimension as a
// matching chunk term without either side needing a shared vocabulary.
func Vector(text string) map[int]float32 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[int]int, len(tokens))
	for _, t := range tokens {
		counts[termIndex(t)]++
	}

	docLen := float64(len(tokens))
	norm := 1 - b + b*docLen/assumedAvgDocLength

	vec := make(map[int]float32, len(counts))
	for idx, tf := range counts {
		saturated := float64(tf) * (k1 + 1) / (float64(tf) + k1*norm)
		vec[idx] = float32(saturated)
	}
	return vec
}

// termIndex hashes a lowercased term to a non-negative int sparse-vector
// index using FNV-1a, masked to the positive int32 range Qdrant's sparse
// vector indices expect.
func termIndex(term string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return int(h.Sum32() & 0x7fffffff)
}

// tokenize splits text on unicode letter/digit runs and lowercases each
// token, discarding anything shorter than minTermLength. No stopword list
// or stemmer is applied: the corpus spans zh/en/ja documentation, and a
// single English stopword/stemming pass (as hypnagonia-rag's Tokenizer
// applies) would silently degrade recall for the other two.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if current.Len() >= minTermLength {
			tokens = append(tokens, strings.ToLower(current.String()))
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
