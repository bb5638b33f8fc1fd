// Package ner adapts named-entity-recognition models to the pipeline.
//
// A Backend is the model itself: it takes one text segment and returns raw
// entity spans. Any field of a raw entity may be missing. The Adapter wraps a
// Backend under a model name, validates every entity, and emits
// core.RawDetection records attributed to that model. Entities with missing
// or invalid fields are skipped with a warning.
//
// Backends live in subpackages:
//   - ner/hugot runs ONNX token-classification models in process
//   - ner/remote calls an HTTP inference endpoint
//   - ner/mock is a test double
package ner
