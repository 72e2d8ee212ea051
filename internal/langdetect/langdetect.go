// Package langdetect provides a lightweight script-based language guess for
// search queries, used by the searcher to pick between hybrid (rrf) and
// dense-only fusion (§4.8).
//
// This is a small, self-contained Unicode-range classifier on the standard
// library rather than a statistical language-identification library such as
// github.com/pemistahl/lingua-go; see DESIGN.md's internal/langdetect entry
// for why that library doesn't fit this package's zh/ja/ko/en disjoint-script
// classification.
package langdetect

import "unicode"

// MinQueryLength is the minimum character count before detection is even
// attempted (spec §9 open question default).
const MinQueryLength = 10

// normalize maps the three-letter/variant codes the spec calls out
// (zho, cmn, lzh -> zh; eng -> en; jpn -> ja) onto the two-letter codes
// used throughout product configuration.
var normalize = map[string]string{
	"zho": "zh", "cmn": "zh", "lzh": "zh",
	"eng": "en",
	"jpn": "ja",
}

// Normalize applies the spec's code-normalisation table, passing unknown
// codes through unchanged.
func Normalize(code string) string {
	if n, ok := normalize[code]; ok {
		return n
	}
	return code
}

// Detect guesses the dominant script of query and returns a two-letter
// language code. If the query is shorter than MinQueryLength, or no
// script-bearing rune is found, it returns fallback.
func Detect(query string, fallback string) string {
	runes := []rune(query)
	if len(runes) < MinQueryLength {
		return fallback
	}

	var han, kana, hangul, latin, total int
	for _, r := range runes {
		switch {
		case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			kana++
			total++
		case unicode.Is(unicode.Han, r):
			han++
			total++
		case unicode.Is(unicode.Hangul, r):
			hangul++
			total++
		case unicode.IsLetter(r) && r < 0x2000:
			latin++
			total++
		}
	}

	if total == 0 {
		return fallback
	}

	// Kana is a stronger signal for Japanese than bare Han (which overlaps
	// with Chinese); check it first.
	if kana > 0 {
		return "ja"
	}
	if hangul > 0 {
		return "ko"
	}
	if han > 0 {
		return "zh"
	}
	if latin > 0 {
		return "en"
	}
	return fallback
}
