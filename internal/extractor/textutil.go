package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

var (
	nonNumericRe = regexp.MustCompile(`[^\d.\-]`)
	percentRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// ParseAmount extracts a decimal number from free text by stripping every
// character outside [0-9.-]. Callers must recognize this silently produces
// wrong results when multiple numbers appear adjacent in one line.
func ParseAmount(text string) (float64, bool) {
	cleaned := nonNumericRe.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseAmountOr is ParseAmount with a fallback value.
func ParseAmountOr(text string, def float64) float64 {
	if v, ok := ParseAmount(text); ok {
		return v
	}
	return def
}

// ParsePercent extracts the first percentage ("12.5 %") from text.
func ParsePercent(text string) (float64, bool) {
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDate parses a date in any common format and normalizes it to
// YYYY-MM-DD. Ambiguous forms use the parser's own month/day heuristics.
// Returns def when the text is not a recognizable date.
func ParseDate(text, def string) string {
	t, err := dateparse.ParseAny(strings.TrimSpace(text))
	if err != nil {
		return def
	}
	return t.Format("2006-01-02")
}

// CleanText collapses whitespace runs and lowercases.
func CleanText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// extractSection returns the slice of content between the first matching
// start pattern and the first end pattern found after it. Matching runs on
// lowercased text; the returned slice preserves original casing.
func extractSection(content string, startPatterns, endPatterns []*regexp.Regexp) (string, bool) {
	lower := strings.ToLower(content)

	start := -1
	for _, p := range startPatterns {
		if loc := p.FindStringIndex(lower); loc != nil {
			start = loc[0]
			break
		}
	}
	if start == -1 {
		return "", false
	}

	end := len(content)
	for _, p := range endPatterns {
		if loc := p.FindStringIndex(lower[start:]); loc != nil {
			end = start + loc[0]
			break
		}
	}
	return content[start:end], true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
