package openai

import "fmt"

const summaryPromptTemplate = `You summarize biomedical research abstracts.

Write a single plain-text paragraph of at most %d words that states the study population,
the intervention or exposure, and the main finding. Use only information present in the abstract.
Do not include a title, preamble, bullet points, markdown, or citations. Start directly with the summary.`

// buildSystemPrompt creates the system prompt with the word limit embedded.
func buildSystemPrompt(maxWords int) string {
	return fmt.Sprintf(summaryPromptTemplate, maxWords)
}
