package segment

import (
	"strings"
	"unicode"
)

// Sentence boundary detection uses a conservative rule: terminal punctuation
// (optionally followed by a closing quote or bracket) followed by whitespace
// and a capital letter, or end of text. Paragraph blocks keep their internal
// boundaries so the assembler can truncate only at sentence ends.

// SplitSentences splits text into sentences using the boundary rule.
// The returned sentences concatenate back to the trimmed input.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var sentences []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && isClosing(runes[j]) {
			j++
		}
		if j >= len(runes) {
			break
		}
		if !unicode.IsSpace(runes[j]) {
			continue
		}
		k := j
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		if k < len(runes) && unicode.IsUpper(runes[k]) {
			sentences = append(sentences, string(runes[start:k]))
			start = k
			i = k - 1
		}
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

// EndsSentence reports whether text ends at a sentence boundary.
func EndsSentence(text string) bool {
	runes := []rune(strings.TrimSpace(text))
	i := len(runes) - 1
	for i >= 0 && isClosing(runes[i]) {
		i--
	}
	return i >= 0 && isTerminal(runes[i])
}

// StartsSentence reports whether text plausibly starts a sentence rather
// than continuing one: an uppercase letter, a digit, or a structural marker.
func StartsSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	r := []rune(trimmed)[0]
	if unicode.IsUpper(r) || unicode.IsDigit(r) {
		return true
	}
	// Structural markers open blocks, not sentences.
	switch r {
	case '#', '|', '-', '*', '+', '`', '"', '\'', '(', '[':
		return true
	}
	return false
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '’', '”':
		return true
	}
	return false
}
