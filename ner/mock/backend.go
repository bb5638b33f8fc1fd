// Package mock provides a test double for ner.Backend.
//
// By default MockBackend behaves like a dictionary tagger: every
// case-insensitive occurrence of a configured term is reported with the
// term's label and score. Custom behavior can be injected through PredictFunc.
package mock

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/poiesic/litmine/ner"
)

// Term is one dictionary entry for the default tagger.
type Term struct {
	Word  string
	Label string
	Score float64
}

// MockBackend is a test double for ner.Backend.
type MockBackend struct {
	// PredictFunc is called by Predict if set.
	PredictFunc func(ctx context.Context, text string) ([]ner.Entity, error)

	// Terms drives the default dictionary behavior.
	Terms []Term

	callCount atomic.Int64
}

var _ ner.Backend = (*MockBackend)(nil)

// NewMockBackend creates a dictionary tagger over terms.
func NewMockBackend(terms ...Term) *MockBackend {
	return &MockBackend{Terms: terms}
}

// Predict reports every occurrence of the configured terms in text.
func (m *MockBackend) Predict(ctx context.Context, text string) ([]ner.Entity, error) {
	m.callCount.Add(1)

	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, text)
	}

	lower := strings.ToLower(text)
	var out []ner.Entity
	for _, term := range m.Terms {
		needle := strings.ToLower(term.Word)
		if needle == "" {
			continue
		}
		from := 0
		for {
			idx := strings.Index(lower[from:], needle)
			if idx < 0 {
				break
			}
			byteStart := from + idx
			byteEnd := byteStart + len(needle)
			start := utf8.RuneCountInString(text[:byteStart])
			out = append(out, ner.Entity{
				Label: ner.Ptr(term.Label),
				Word:  ner.Ptr(text[byteStart:byteEnd]),
				Start: ner.Ptr(start),
				End:   ner.Ptr(start + utf8.RuneCountInString(needle)),
				Score: ner.Ptr(term.Score),
			})
			from = byteEnd
		}
	}
	return out, nil
}

// CallCount returns the number of times Predict was called.
func (m *MockBackend) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockBackend) Reset() {
	m.callCount.Store(0)
	m.PredictFunc = nil
}
