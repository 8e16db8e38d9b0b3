package observability

import "strings"

const previewChars = 6

// RedactToken keeps at most the first six characters of a credential, followed by an ellipsis.
func RedactToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	runes := []rune(token)
	if len(runes) <= previewChars {
		return string(runes) + "…"
	}
	return string(runes[:previewChars]) + "…"
}
