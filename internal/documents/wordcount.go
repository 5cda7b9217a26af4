package documents

import "strings"

// CountWords counts CJK ideographs plus space-separated tokens. Runs of CJK
// text without spaces therefore count once as a token and once per character.
func CountWords(text string) int {
	if text == "" {
		return 0
	}
	cjk := 0
	for _, r := range text {
		if r >= '一' && r <= '鿿' {
			cjk++
		}
	}
	tokens := 0
	for _, w := range strings.Split(strings.ReplaceAll(text, "\n", " "), " ") {
		if strings.TrimSpace(w) != "" {
			tokens++
		}
	}
	return cjk + tokens
}
