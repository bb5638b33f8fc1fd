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
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/litmine/ai"
	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/ner"
	"github.com/poiesic/litmine/segment"
	"github.com/poiesic/litmine/storage"
)

// DefaultBatchSize is the number of documents handed to one embedding or
// summary worker at a time.
const DefaultBatchSize = 32

// Segmenter splits a document's text into at most two segments.
type Segmenter interface {
	Split(text string) (segment.Segments, error)
}

// Reconciler merges raw detections into document-level entities.
type Reconciler interface {
	Reconcile(detections []core.RawDetection) []core.ReconciledEntity
}

// Pipeline orchestrates entity extraction over pending documents and
// enrichment of processed ones.
type Pipeline struct {
	repository  storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	segmenter   Segmenter
	extractors  []ner.Extractor
	reconciler  Reconciler
	provider    ai.AIProvider
	pool        *ants.Pool
	batchSize   int
	limit       int
	logger      *slog.Logger
}

// RunStats summarizes one Run.
type RunStats struct {
	RunID     string
	Pending   int
	Processed int
	Skipped   int
	Failed    int
	Entities  int
	Duration  time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithCheckpoints records processor progress in repo.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(p *Pipeline) error {
		p.checkpoints = repo
		return nil
	}
}

// WithProvider enables Embed and Summarize.
func WithProvider(provider ai.AIProvider) Option {
	return func(p *Pipeline) error {
		p.provider = provider
		return nil
	}
}

// WithBatchSize sets how many documents one enrichment worker handles at a time.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLimit caps the number of pending documents one Run picks up.
// Zero, the default, means no cap.
func WithLimit(limit int) Option {
	return func(p *Pipeline) error {
		if limit < 0 {
			limit = 0
		}
		p.limit = limit
		return nil
	}
}

// NewPipeline creates a new extraction pipeline. Extractors run in the
// order given.
func NewPipeline(
	repository storage.DocumentRepository,
	segmenter Segmenter,
	extractors []ner.Extractor,
	reconciler Reconciler,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if segmenter == nil {
		return nil, ErrSegmenterRequired
	}
	if len(extractors) == 0 {
		return nil, ErrExtractorRequired
	}
	for _, ex := range extractors {
		if ex == nil {
			return nil, ErrExtractorRequired
		}
	}
	if reconciler == nil {
		return nil, ErrReconcilerRequired
	}

	return newPipeline(&Pipeline{
		repository: repository,
		segmenter:  segmenter,
		extractors: extractors,
		reconciler: reconciler,
	}, opts)
}

// NewEnricher creates a pipeline that only embeds and summarizes already
// processed documents. Its Run returns ErrSegmenterRequired.
func NewEnricher(repository storage.DocumentRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	return newPipeline(&Pipeline{repository: repository, provider: provider}, opts)
}

func newPipeline(p *Pipeline, opts []Option) (*Pipeline, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	p.batchSize = DefaultBatchSize
	p.logger = slog.Default()

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Run processes every pending document and returns per-outcome counts.
// The returned error joins every persistence failure; skipped documents
// are not errors.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	if p.segmenter == nil {
		return RunStats{}, ErrSegmenterRequired
	}
	started := time.Now()
	stats := RunStats{RunID: uuid.NewString()}
	logger := p.logger.With("processor", "entities", "run_id", stats.RunID)

	docs, err := p.repository.PendingDocuments(ctx, p.limit)
	if err != nil {
		return stats, err
	}
	stats.Pending = len(docs)
	logger.Info("starting entity extraction", "pending", stats.Pending, "models", len(p.extractors))

	prog := newProgress(CheckpointEntities, p.checkpoints)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(doc *core.Document, entities []core.ReconciledEntity, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			stats.Processed++
			stats.Entities += len(entities)
			prog.advance(doc.Id)
		case errors.Is(err, ErrSegmentation), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			stats.Skipped++
			logger.Warn("document skipped", "pmid", doc.PMID, "err", err)
		default:
			stats.Failed++
			errs = append(errs, err)
			logger.Error("document failed", "pmid", doc.PMID, "err", err)
		}
	}

	for _, doc := range docs {
		if ctx.Err() != nil {
			record(doc, nil, ctx.Err())
			continue
		}
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			entities, err := p.ProcessDocument(ctx, doc)
			record(doc, entities, err)
		})
		if submitErr != nil {
			wg.Done()
			record(doc, nil, submitErr)
		}
	}
	wg.Wait()

	if err := prog.save(context.WithoutCancel(ctx)); err != nil {
		logger.Error("error saving checkpoint", "err", err)
	}

	stats.Duration = time.Since(started)
	logger.Info("entity extraction finished",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"entities", stats.Entities,
		"duration", stats.Duration)
	return stats, errors.Join(errs...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
