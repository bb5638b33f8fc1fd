package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/litmine/ai"
)

// MockSummarizer is a test double for ai.Summarizer.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, returns the first sentence of the text.
	SummarizeFunc func(ctx context.Context, text string) (string, error)

	// MinWords mirrors ai.Config.MinSummaryWords for the default behavior.
	MinWords int

	callCount atomic.Int64
}

// NewMockSummarizer creates a mock summarizer with default behavior.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{MinWords: ai.DefaultConfig().MinSummaryWords}
}

// Summarize returns the first sentence of text, or ai.ShortTextSummary for short texts.
func (m *MockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	m.callCount.Add(1)

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}

	if len(strings.Fields(text)) < m.MinWords {
		return ai.ShortTextSummary, nil
	}
	text = strings.TrimSpace(text)
	if i := strings.Index(text, ". "); i >= 0 {
		return text[:i+1], nil
	}
	return text, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom behavior.
func (m *MockSummarizer) Reset() {
	m.callCount.Store(0)
	m.SummarizeFunc = nil
}
