package prompt

import "unicode/utf8"

// MaxLength is the maximum rune count of a composed image prompt.
const MaxLength = 300

// Truncate shortens text to at most maxLen runes. It prefers to cut just
// before the last 、，。 in the back half of the allowed window.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	for i := maxLen - 1; i > maxLen/2; i-- {
		switch runes[i] {
		case '，', '。', '、':
			return string(runes[:i])
		}
	}

	return string(runes[:maxLen])
}

// FitsInLimit checks if text is within limit runes.
func FitsInLimit(text string, limit int) bool {
	return utf8.RuneCountInString(text) <= limit
}
