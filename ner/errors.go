package ner

import "errors"

var (
	// ErrNilBackend is returned when an adapter is created without a backend.
	ErrNilBackend = errors.New("backend is nil")

	// ErrEmptyModelName is returned when an adapter has no model name.
	ErrEmptyModelName = errors.New("model name cannot be empty")

	// ErrMissingField indicates a raw entity omitted a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrPrediction wraps backend failures.
	ErrPrediction = errors.New("prediction failed")
)
