package embedclient

import "unicode"

// EstimateTokens approximates the token cost of text using a char-per-token
// heuristic: CJK runs cost more tokens per character than Latin-script text.
func EstimateTokens(text string) int {
	var cjk, other float64
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		} else {
			other++
		}
	}
	return int(cjk/1.5+other/2.5) + 1
}
