// Package analyzer extracts visual and emotional cues from a passage of text.
package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TimeOfDay is the coarse time context mentioned in a text.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Day     TimeOfDay = "day"
	Evening TimeOfDay = "evening"
	Night   TimeOfDay = "night"
)

// Label returns the Chinese name of the time of day, or "" when unset.
func (t TimeOfDay) Label() string {
	switch t {
	case Morning:
		return "早晨"
	case Day:
		return "白天"
	case Evening:
		return "傍晚"
	case Night:
		return "夜晚"
	default:
		return ""
	}
}

// Analysis is the result of analyzing one piece of text.
type Analysis struct {
	MainTheme       string    `json:"main_theme"`
	KeyObjects      []string  `json:"key_objects"`
	Emotions        []string  `json:"emotions"`
	Settings        []string  `json:"settings"`
	TimeContext     TimeOfDay `json:"time_context,omitempty"`
	Colors          []string  `json:"colors"`
	SpecificDetails []string  `json:"specific_details"`

	// Subject is the first short CJK run of the opening sentence.
	Subject string `json:"subject"`
	// Focus summarizes the opening sentences.
	Focus      string   `json:"focus"`
	Atmosphere string   `json:"atmosphere"`
	Feelings   []string `json:"feelings"`
}

const (
	maxDetails     = 3
	detailMinRunes = 10
	detailMaxRunes = 30

	focusParts    = 2
	focusMinRunes = 10
	focusMaxRunes = 25
)

var subjectPattern = regexp.MustCompile(`[\x{4e00}-\x{9faf}]{2,6}`)

// Analyze runs every keyword table over text. It is pure and never fails.
func Analyze(text string) Analysis {
	a := Analysis{
		MainTheme:  mainTheme(text),
		KeyObjects: keyObjects(text),
		Emotions:   matchCategories(text, emotionTable),
		Settings:   matchCategories(text, settingTable),
		Colors:     present(text, colorWords),
		Feelings:   present(text, feelingWords),
		Atmosphere: atmosphere(text),
	}

	for _, tc := range timeTable {
		if containsAny(text, tc.Keywords) {
			a.TimeContext = tc.Time
			break
		}
	}

	for _, s := range Sentences(text, detailMinRunes+1, 0) {
		if len(a.SpecificDetails) == maxDetails {
			break
		}
		a.SpecificDetails = append(a.SpecificDetails, cut(s, detailMaxRunes))
	}

	opening := Sentences(text, 6, 0)
	if len(opening) > 0 {
		a.Subject = subjectPattern.FindString(opening[0])

		var parts []string
		for _, s := range opening[:min(3, len(opening))] {
			if utf8.RuneCountInString(s) >= focusMinRunes && len(parts) < focusParts {
				parts = append(parts, cut(s, focusMaxRunes))
			}
		}
		a.Focus = strings.Join(parts, "，")
	}

	return a
}

// Sentences splits text on 。！？ and returns trimmed sentences whose rune
// length is at least minRunes and, when maxRunes > 0, at most maxRunes.
func Sentences(text string, minRunes, maxRunes int) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '。' || r == '！' || r == '？'
	})

	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		n := utf8.RuneCountInString(s)
		if s == "" || n < minRunes || (maxRunes > 0 && n > maxRunes) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func mainTheme(text string) string {
	best, bestScore := "", 0
	for _, c := range themeTable {
		if score := len(present(text, c.Keywords)); score > bestScore {
			best, bestScore = c.Name, score
		}
	}
	return best
}

func keyObjects(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range themeTable {
		for _, kw := range c.Keywords {
			if !seen[kw] && strings.Contains(text, kw) {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	return out
}

func matchCategories(text string, table []category) []string {
	var out []string
	for _, c := range table {
		if containsAny(text, c.Keywords) {
			out = append(out, c.Name)
		}
	}
	return out
}

func atmosphere(text string) string {
	for _, w := range atmosphereWords {
		if strings.Contains(text, w) {
			return w
		}
	}
	for _, rule := range atmosphereInference {
		if containsAny(text, rule.Triggers) {
			return rule.Atmosphere
		}
	}
	return defaultAtmosphere
}

// present returns the words found in text, in list order.
func present(text string, words []string) []string {
	var out []string
	for _, w := range words {
		if strings.Contains(text, w) {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func cut(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
