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


package reembed

import (
	"context"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
)

const (
	// DefaultBatchSize is the default number of documents handed to fn at a time
	DefaultBatchSize = 100
)

// DocumentIterator walks stored documents that have text to embed, in batches.
type DocumentIterator struct {
	repo      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// batchSize: number of documents per batch; non-positive values use DefaultBatchSize
func NewDocumentIterator(repo storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// Collect returns every document with non-empty text.
func (it *DocumentIterator) Collect(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document
	err := it.repo.ListDocuments(ctx, func(doc *core.Document) error {
		if doc.Text() != "" {
			docs = append(docs, doc)
		}
		return nil
	})
	return docs, err
}

// ForEach calls fn for each batch of documents with text.
// The store is read fully before the first call so fn can write to it.
// Iteration stops on the first error from fn or on context cancellation.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]*core.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	docs, err := it.Collect(ctx)
	if err != nil {
		return err
	}
	return it.forBatches(ctx, docs, fn)
}

func (it *DocumentIterator) forBatches(ctx context.Context, docs []*core.Document, fn func([]*core.Document) error) error {
	for i := 0; i < len(docs); i += it.batchSize {
		batch := docs[i:min(i+it.batchSize, len(docs))]
		if err := fn(batch); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
