// Package hugot runs HuggingFace token-classification models exported to
// ONNX in process, using the knights-analytics/hugot runtime.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	khugot "github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/poiesic/litmine/ner"
)

// DefaultOnnxFilename is the model file looked up inside the model directory.
const DefaultOnnxFilename = "model.onnx"

// ErrModelPathRequired is returned when no model directory is configured.
var ErrModelPathRequired = errors.New("model path is required")

// Session owns the ONNX runtime session that every Backend shares.
// Only one session can exist per process, so create it once and close it
// after all backends are done.
type Session struct {
	session *khugot.Session
	logger  *slog.Logger
}

// NewSession creates a pure-Go hugot session.
func NewSession(logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := khugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("creating hugot session: %w", err)
	}
	return &Session{session: session, logger: logger.With("component", "hugot")}, nil
}

// Close destroys the session and every pipeline created in it.
func (s *Session) Close() error {
	return s.session.Destroy()
}

// Backend is a token-classification pipeline with SIMPLE aggregation, so
// subword tokens come back grouped into labeled spans.
type Backend struct {
	mu       sync.Mutex
	pipeline *pipelines.TokenClassificationPipeline
	name     string
	logger   *slog.Logger
}

var _ ner.Backend = (*Backend)(nil)

// NewBackend loads the model in modelPath into session. An empty
// onnxFilename selects DefaultOnnxFilename.
func (s *Session) NewBackend(modelPath, onnxFilename string) (*Backend, error) {
	if modelPath == "" {
		return nil, ErrModelPathRequired
	}
	if onnxFilename == "" {
		onnxFilename = DefaultOnnxFilename
	}

	// pipeline names must be unique within a session
	name := fmt.Sprintf("%s:%s", modelPath, onnxFilename)
	pipeline, err := khugot.NewPipeline(s.session, khugot.TokenClassificationConfig{
		ModelPath:    modelPath,
		OnnxFilename: onnxFilename,
		Name:         name,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token classification pipeline for %s: %w", modelPath, err)
	}
	// must be uppercase
	pipeline.AggregationStrategy = "SIMPLE"

	s.logger.Info("loaded token classification model", "model", name)
	return &Backend{
		pipeline: pipeline,
		name:     name,
		logger:   s.logger.With("model", name),
	}, nil
}

// Predict runs the model over text. Offsets reported by the runtime are byte
// offsets; they are converted to character offsets here.
func (b *Backend) Predict(ctx context.Context, text string) ([]ner.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	output, err := b.pipeline.RunPipeline([]string{text})
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(output.Entities) == 0 {
		return nil, nil
	}

	raw := output.Entities[0]
	b.logger.Debug("token classification finished", "entities", len(raw))

	entities := make([]ner.Entity, 0, len(raw))
	for _, ent := range raw {
		entities = append(entities, convert(text, ent))
	}
	return entities, nil
}

func convert(text string, ent pipelines.Entity) ner.Entity {
	out := ner.Entity{
		Score: ner.Ptr(float64(ent.Score)),
	}
	if ent.Entity != "" {
		out.Label = ner.Ptr(ent.Entity)
	}

	start, end := int(ent.Start), int(ent.End)
	if start <= end && end <= len(text) && utf8.ValidString(text[:end]) {
		out.Start = ner.Ptr(utf8.RuneCountInString(text[:start]))
		out.End = ner.Ptr(utf8.RuneCountInString(text[:end]))
		word := ent.Word
		if word == "" {
			word = text[start:end]
		}
		out.Word = ner.Ptr(word)
	} else if ent.Word != "" {
		// leave the span unset so the adapter skips it
		out.Word = ner.Ptr(ent.Word)
	}
	return out
}
