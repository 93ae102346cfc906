package orchestrator

import "strings"

const (
	DefaultResponseMaxChars = 500
	emptyResponse           = "¿En qué puedo ayudarte?"
	ellipsis                = "..."
)

// Clean trims a response, caps it at max runes and makes sure it ends with
// terminal punctuation.
func Clean(text string, max int) string {
	if max <= len(ellipsis) {
		max = DefaultResponseMaxChars
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return emptyResponse
	}

	runes := []rune(text)
	if len(runes) > max {
		text = string(runes[:max-len(ellipsis)]) + ellipsis
		runes = []rune(text)
	}

	switch runes[len(runes)-1] {
	case '.', '!', '?':
		return text
	}
	return text + "."
}
