package segment

import (
	"fmt"
	"unicode/utf8"

	"github.com/poiesic/litmine/core"
)

// DefaultMaxTokens is the token limit of the BERT-style models the pipeline runs.
const DefaultMaxTokens = 512

// Tokenizer is the token counting and decoding capability the Segmenter needs.
// Token ids never include special tokens.
type Tokenizer interface {
	CountTokens(text string) (int, error)
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
}

// Segments is the result of splitting one document.
type Segments struct {
	First  string
	Second string // Empty when the document fit in one segment
}

// Split reports whether the document was divided.
func (s Segments) Split() bool {
	return s.Second != ""
}

// Offset is the character shift applied to detections found in Second.
func (s Segments) Offset() int {
	return utf8.RuneCountInString(s.First)
}

// Texts returns the non-empty segments in document order.
func (s Segments) Texts() []string {
	if s.Second == "" {
		return []string{s.First}
	}
	return []string{s.First, s.Second}
}

// Text returns the reassembled document text that shifted offsets refer to.
func (s Segments) Text() string {
	return s.First + s.Second
}

// Option configures a Segmenter.
type Option func(*Segmenter) error

// WithMaxTokens sets the per-segment token limit.
func WithMaxTokens(n int) Option {
	return func(s *Segmenter) error {
		if n <= 0 {
			return ErrInvalidMaxTokens
		}
		s.maxTokens = n
		return nil
	}
}

// Segmenter splits long text at its token midpoint.
type Segmenter struct {
	tokenizer Tokenizer
	maxTokens int
}

// New creates a Segmenter backed by tokenizer.
func New(tokenizer Tokenizer, opts ...Option) (*Segmenter, error) {
	if tokenizer == nil {
		return nil, ErrNilTokenizer
	}
	s := &Segmenter{
		tokenizer: tokenizer,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MaxTokens returns the configured per-segment limit.
func (s *Segmenter) MaxTokens() int {
	return s.maxTokens
}

// Split returns (text, "") when text fits within the token limit, otherwise
// the two halves of its token sequence decoded independently.
// Any tokenizer failure is returned; callers must not process the document.
func (s *Segmenter) Split(text string) (Segments, error) {
	count, err := s.tokenizer.CountTokens(text)
	if err != nil {
		return Segments{}, fmt.Errorf("%w: %w", ErrTokenize, err)
	}
	if count <= s.maxTokens {
		return Segments{First: text}, nil
	}

	ids, err := s.tokenizer.Encode(text)
	if err != nil {
		return Segments{}, fmt.Errorf("%w: %w", ErrTokenize, err)
	}
	half := len(ids) / 2

	first, err := s.tokenizer.Decode(ids[:half])
	if err != nil {
		return Segments{}, fmt.Errorf("%w: first segment: %w", ErrDecode, err)
	}
	second, err := s.tokenizer.Decode(ids[half:])
	if err != nil {
		return Segments{}, fmt.Errorf("%w: second segment: %w", ErrDecode, err)
	}
	return Segments{First: first, Second: second}, nil
}

// Shift returns copies of dets with Start and End moved by offset characters.
func Shift(dets []core.RawDetection, offset int) []core.RawDetection {
	if offset == 0 {
		return dets
	}
	shifted := make([]core.RawDetection, len(dets))
	for i, det := range dets {
		det.Start += offset
		det.End += offset
		shifted[i] = det
	}
	return shifted
}
