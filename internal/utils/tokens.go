package utils

import "strings"

// charsPerToken is the rough ratio used where no real tokenizer is loaded.
const charsPerToken = 4

// CountTokens estimates tokens at about four characters each; any non-empty text is at least one token.
func CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return max(n/charsPerToken, 1)
}

// TruncateToTokenLimit cuts text to roughly fit within limit tokens. When the cut
// lands inside a line and an earlier line break exists, the partial line is dropped
// so tabular excerpts never end mid-row.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if limit*charsPerToken >= len(runes) {
		return text
	}
	cut := string(runes[:limit*charsPerToken])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i+1]
	}
	return cut
}
