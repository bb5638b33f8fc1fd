// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrSegmenterRequired is returned when a segmenter is not provided.
	ErrSegmenterRequired = errors.New("segmenter required")

	// ErrExtractorRequired is returned when no entity extractor is configured.
	ErrExtractorRequired = errors.New("at least one entity extractor required")

	// ErrReconcilerRequired is returned when a reconciler is not provided.
	ErrReconcilerRequired = errors.New("reconciler required")

	// ErrEmbedderRequired is returned by Embed when no AI provider was configured.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSummarizerRequired is returned by Summarize when no AI provider was configured.
	ErrSummarizerRequired = errors.New("summarizer required")

	// ErrProviderRequired is returned when an enricher has no AI provider.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrSourceRequired is returned when an importer has no source.
	ErrSourceRequired = errors.New("document source required")

	// ErrSegmentation marks documents skipped because their text could not be segmented.
	ErrSegmentation = errors.New("segmentation failed")

	// ErrPersist marks documents whose results could not be written.
	ErrPersist = errors.New("persisting results failed")

	// ErrEmbeddingMismatch is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)
