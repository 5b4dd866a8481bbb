package composer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
)

// sentences longer than this are broken per rune when they overflow
const splitRunes = 20

var sentenceBreaks = strings.NewReplacer("。", "。\n", "！", "！\n", "？", "？\n")

// Wrap breaks text into lines no wider than maxWidth when drawn with face.
// Sentences are kept together where possible. A short sentence that is
// wider than maxWidth on its own stays on one line.
func Wrap(text string, face font.Face, maxWidth int) []string {
	var lines []string
	current := ""

	for _, sentence := range strings.Split(sentenceBreaks.Replace(text), "\n") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if textWidth(face, current+sentence) <= maxWidth {
			current += sentence
			continue
		}

		if c := strings.TrimSpace(current); c != "" {
			lines = append(lines, c)
		}

		if utf8.RuneCountInString(sentence) <= splitRunes {
			current = sentence
			continue
		}

		current = ""
		for _, r := range sentence {
			next := current + string(r)
			if textWidth(face, next) <= maxWidth {
				current = next
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			current = string(r)
		}
	}

	if c := strings.TrimSpace(current); c != "" {
		lines = append(lines, c)
	}
	return lines
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}
