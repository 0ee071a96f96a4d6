package analyze

import (
	"strings"
	"unicode"
)

// EstimateTokens approximates the token count of text: words count
// ~1.3 tokens and punctuation runes one each. Close enough for prompt
// budgeting; exact counts come back in the provider's usage fields.
func EstimateTokens(text string) int {
	words, punct := 0, 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if inWord {
				words++
				inWord = false
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			if inWord {
				words++
				inWord = false
			}
			punct++
		default:
			inWord = true
		}
	}
	if inWord {
		words++
	}
	return int(float64(words)*1.3) + punct
}

// EstimateTokensForMessages sums the estimate over a conversation,
// with a few tokens per message for role framing.
func EstimateTokensForMessages(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += 4 + EstimateTokens(m.Content)
	}
	return total
}

// TruncateToTokenLimit cuts text down to roughly maxTokens, breaking
// at a line, sentence, or word boundary when one falls in the second
// half. The bool reports whether anything was cut.
func TruncateToTokenLimit(text string, maxTokens int) (string, bool) {
	if EstimateTokens(text) <= maxTokens {
		return text, false
	}
	limit := maxTokens * 4 // ~4 chars per token
	if len(text) <= limit {
		return text, false
	}

	cut := text[:limit]
	if i := strings.LastIndex(cut, "\n"); i > limit/2 {
		return cut[:i] + "\n... (truncated)", true
	}
	if i := strings.LastIndex(cut, ". "); i > limit/2 {
		return cut[:i+1] + " ... (truncated)", true
	}
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		return cut[:i] + " ... (truncated)", true
	}
	return cut + "... (truncated)", true
}
