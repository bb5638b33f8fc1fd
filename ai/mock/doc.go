// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Summarizer,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	summarizer := mock.NewMockSummarizer()
//	summarizer.SummarizeFunc = func(ctx context.Context, text string) (string, error) {
//	    return "", errors.New("unavailable")
//	}
//	count := summarizer.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockSummarizer: Returns the first sentence of the text
//   - MockProvider: Aggregates mock embedder and summarizer
package mock
