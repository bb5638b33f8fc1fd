package ner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/litmine/core"
)

// Entity is one raw span reported by a model. Nil fields were not reported.
// Start and End are character offsets into the text passed to Predict.
type Entity struct {
	Label *string
	Word  *string
	Start *int
	End   *int
	Score *float64
}

// Backend runs a model over one text segment.
type Backend interface {
	Predict(ctx context.Context, text string) ([]Entity, error)
}

// Extractor produces validated detections for one named model.
type Extractor interface {
	// Model returns the identifier stamped on every detection.
	Model() string
	// Extract runs the model over text. Offsets are relative to text.
	Extract(ctx context.Context, text string) ([]core.RawDetection, error)
}

// Adapter turns a Backend into an Extractor.
type Adapter struct {
	model   string
	backend Backend
	logger  *slog.Logger
}

var _ Extractor = (*Adapter)(nil)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter wraps backend under the model name.
func NewAdapter(model string, backend Backend, opts ...AdapterOption) (*Adapter, error) {
	if model == "" {
		return nil, ErrEmptyModelName
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	a := &Adapter{
		model:   model,
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("model", model)
	return a, nil
}

// Model returns the model name.
func (a *Adapter) Model() string {
	return a.model
}

// Extract runs the backend and converts its output. Invalid entities are
// dropped and logged; a backend failure is returned wrapped in ErrPrediction.
func (a *Adapter) Extract(ctx context.Context, text string) ([]core.RawDetection, error) {
	if text == "" {
		return nil, nil
	}
	raw, err := a.backend.Predict(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPrediction, a.model, err)
	}

	detections := make([]core.RawDetection, 0, len(raw))
	for i, ent := range raw {
		det, err := a.convert(ent)
		if err != nil {
			a.logger.Warn("skipping invalid entity", "index", i, "error", err)
			continue
		}
		detections = append(detections, det)
	}
	return detections, nil
}

func (a *Adapter) convert(ent Entity) (core.RawDetection, error) {
	switch {
	case ent.Score == nil:
		return core.RawDetection{}, fmt.Errorf("%w: score", ErrMissingField)
	case ent.Start == nil:
		return core.RawDetection{}, fmt.Errorf("%w: start", ErrMissingField)
	case ent.End == nil:
		return core.RawDetection{}, fmt.Errorf("%w: end", ErrMissingField)
	case ent.Word == nil:
		return core.RawDetection{}, fmt.Errorf("%w: word", ErrMissingField)
	case ent.Label == nil:
		return core.RawDetection{}, fmt.Errorf("%w: label", ErrMissingField)
	}

	det := core.RawDetection{
		Label:       *ent.Label,
		Text:        *ent.Word,
		Start:       *ent.Start,
		End:         *ent.End,
		Score:       *ent.Score,
		SourceModel: a.model,
	}
	if err := core.ValidateDetection(&det); err != nil {
		return core.RawDetection{}, err
	}
	return det, nil
}

// Ptr returns a pointer to v. Backends use it to fill Entity fields.
func Ptr[T any](v T) *T {
	return &v
}
