package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountCharacters counts runes, not bytes.
func CountCharacters(text string) int {
	return utf8.RuneCountInString(text)
}

// SplitSentences splits on runs of sentence terminators. Fragments keep their
// surrounding whitespace; callers trim what they return.
func SplitSentences(text string) []string {
	return sentenceBoundary.Split(text, -1)
}

// Preview returns at most maxRunes runes of s without splitting a rune.
func Preview(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
