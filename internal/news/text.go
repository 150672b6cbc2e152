package news

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis marks a summary that was cut to fit its character budget.
const Ellipsis = "…"

// CollapseSpace replaces every run of whitespace with one space and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes keeps at most n runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// FirstSentences returns the first n sentence-like segments of s. A segment
// ends at terminal punctuation followed by whitespace.
func FirstSentences(s string, n int) string {
	s = CollapseSpace(s)
	if n <= 0 || s == "" {
		return s
	}

	runes := []rune(s)
	found := 0
	for i := 0; i < len(runes)-1; i++ {
		if isSentenceEnd(runes[i]) && unicode.IsSpace(runes[i+1]) {
			found++
			if found == n {
				return string(runes[:i+1])
			}
		}
	}
	return s
}

// Shape reduces text to its first sentences and fits it into maxChars runes.
// When it has to cut, the result ends with Ellipsis, which counts toward maxChars.
func Shape(text string, sentences, maxChars int) string {
	out := FirstSentences(text, sentences)
	if maxChars <= 0 || utf8.RuneCountInString(out) <= maxChars {
		return out
	}
	cut := strings.TrimRightFunc(TruncateRunes(out, maxChars-1), unicode.IsSpace)
	return cut + Ellipsis
}
