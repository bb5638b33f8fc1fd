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

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/litmine/ai"
	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
)

// embeddingProcessor generates embeddings for processed documents.
type embeddingProcessor struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	progress   *progress
	logger     *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(repository storage.DocumentRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		repository: repository,
		embedder:   embedder,
		progress:   newProgress(CheckpointEmbeddings, checkpoints),
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

func (ep *embeddingProcessor) name() string { return CheckpointEmbeddings }

func (ep *embeddingProcessor) wants(doc *core.Document) bool {
	return doc.Processed() && len(doc.Vector) == 0 && doc.Text() != ""
}

// process embeds the reassembled segment text of each document.
func (ep *embeddingProcessor) process(ctx context.Context, docs ...*core.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	ep.logger.Debug("generating embeddings", "documents", len(docs))

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = core.NormalizeText(doc.Text())
	}

	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return 0, err
	}
	if len(embeddings) != len(docs) {
		return 0, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(docs), len(embeddings))
	}

	for i := range embeddings {
		docs[i].Vector = core.NormalizeVector(embeddings[i])
	}

	updated, err := ep.repository.UpdateDocuments(ctx, docs...)
	if err != nil {
		return 0, err
	}
	ep.progress.advance(updated[len(updated)-1].Id)
	return len(updated), nil
}

func (ep *embeddingProcessor) checkpoint(ctx context.Context) error {
	return ep.progress.save(ctx)
}
