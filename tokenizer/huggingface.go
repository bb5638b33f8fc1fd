// Package tokenizer loads HuggingFace tokenizer.json files for use by the
// segmenter.
package tokenizer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/poiesic/litmine/segment"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// ErrLoad indicates the tokenizer file could not be loaded.
var ErrLoad = errors.New("failed to load tokenizer")

// HuggingFace wraps a tokenizer.json loaded with sugarme/tokenizer.
// The underlying tokenizer is not safe for concurrent use, so calls are serialized.
type HuggingFace struct {
	mu sync.Mutex
	tk *hf.Tokenizer
}

var _ segment.Tokenizer = (*HuggingFace)(nil)

// Load reads a tokenizer.json file.
func Load(path string) (*HuggingFace, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return &HuggingFace{tk: tk}, nil
}

// Encode returns the token ids for text without special tokens.
func (h *HuggingFace) Encode(text string) ([]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	enc, err := h.tk.EncodeSingle(text, false)
	if err != nil {
		return nil, err
	}
	return enc.Ids, nil
}

// CountTokens returns the number of non-special tokens in text.
func (h *HuggingFace) CountTokens(text string) (int, error) {
	ids, err := h.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Decode converts ids back to text, skipping special tokens.
func (h *HuggingFace) Decode(ids []int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tk.Decode(ids, true), nil
}
