// Package segmenter classifies long text and splits it into coherent chunks.
package segmenter

import "strings"

// TextType is the coarse genre of an input text.
type TextType string

const (
	Narrative     TextType = "narrative"
	Argumentative TextType = "argumentative"
	Descriptive   TextType = "descriptive"
)

// Label returns the Chinese name of the text type.
func (t TextType) Label() string {
	switch t {
	case Narrative:
		return "叙事类"
	case Argumentative:
		return "议论类"
	default:
		return "说明类"
	}
}

// ParseTextType converts a string to a TextType, defaulting to Descriptive.
func ParseTextType(s string) TextType {
	switch TextType(strings.ToLower(strings.TrimSpace(s))) {
	case Narrative:
		return Narrative
	case Argumentative:
		return Argumentative
	default:
		return Descriptive
	}
}

var (
	narrativeKeywords     = []string{"故事", "情节", "人物", "对话", "场景", "时间", "地点", "发生", "经历", "遇到"}
	argumentativeKeywords = []string{"观点", "论证", "认为", "因为", "所以", "然而", "但是", "首先", "其次", "总之"}
	descriptiveKeywords   = []string{"介绍", "说明", "特点", "功能", "方法", "步骤", "原理", "结构", "组成"}
)

// Classify picks the text type whose keyword list has the most hits.
// Ties go to narrative, then argumentative. Text with no hits at all is descriptive.
func Classify(text string) TextType {
	n := countPresent(text, narrativeKeywords)
	a := countPresent(text, argumentativeKeywords)
	d := countPresent(text, descriptiveKeywords)

	switch {
	case n == 0 && a == 0 && d == 0:
		return Descriptive
	case n >= a && n >= d:
		return Narrative
	case a >= d:
		return Argumentative
	default:
		return Descriptive
	}
}

// countPresent counts how many keywords occur in text at least once.
func countPresent(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}
