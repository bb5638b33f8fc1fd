package segment

import "errors"

var (
	// ErrTokenize indicates the tokenizer failed to encode the document.
	ErrTokenize = errors.New("tokenization failed")

	// ErrDecode indicates the tokenizer failed to decode a segment.
	ErrDecode = errors.New("decoding failed")

	// ErrNilTokenizer is returned when no tokenizer is supplied.
	ErrNilTokenizer = errors.New("tokenizer is nil")

	// ErrInvalidMaxTokens is returned when the token limit is not positive.
	ErrInvalidMaxTokens = errors.New("max tokens must be greater than 0")
)
