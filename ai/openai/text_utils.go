package openai

import "strings"

// wordCount counts whitespace-separated words.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// collapseWhitespace joins all runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanSummary strips code fences, a leading "Summary:" label and extra whitespace
// from a model response.
func cleanSummary(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if len(s) >= len("summary:") && strings.EqualFold(s[:len("summary:")], "summary:") {
		s = s[len("summary:"):]
	}
	return collapseWhitespace(s)
}
