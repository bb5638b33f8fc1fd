package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/poiesic/litmine/core"
)

// Embed stores a vector for every processed document that lacks one and
// returns how many documents were embedded.
func (p *Pipeline) Embed(ctx context.Context) (int, error) {
	if p.provider == nil || p.provider.Embedder() == nil {
		return 0, ErrEmbedderRequired
	}
	proc, err := newEmbeddingProcessor(p.repository, p.checkpoints, p.provider.Embedder(), p.logger)
	if err != nil {
		return 0, err
	}
	return p.enrich(ctx, proc)
}

// Summarize stores a summary for every processed document that lacks one
// and returns how many documents were summarized.
func (p *Pipeline) Summarize(ctx context.Context) (int, error) {
	if p.provider == nil || p.provider.Summarizer() == nil {
		return 0, ErrSummarizerRequired
	}
	proc, err := newSummaryProcessor(p.repository, p.checkpoints, p.provider.Summarizer(), p.logger)
	if err != nil {
		return 0, err
	}
	return p.enrich(ctx, proc)
}

// enrich selects the documents proc wants and feeds them to the pool in batches.
func (p *Pipeline) enrich(ctx context.Context, proc processor) (int, error) {
	logger := p.logger.With("processor", proc.name())

	var selected []*core.Document
	err := p.repository.ListDocuments(ctx, func(doc *core.Document) error {
		if proc.wants(doc) {
			selected = append(selected, doc)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("starting enrichment", "documents", len(selected), "batch_size", p.batchSize)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
		count int
	)
	record := func(n int, err error) {
		mu.Lock()
		defer mu.Unlock()
		count += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	for start := 0; start < len(selected); start += p.batchSize {
		if ctx.Err() != nil {
			record(0, ctx.Err())
			break
		}
		batch := selected[start:min(start+p.batchSize, len(selected))]
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			record(proc.process(ctx, batch...))
		})
		if submitErr != nil {
			wg.Done()
			record(0, submitErr)
		}
	}
	wg.Wait()

	if err := proc.checkpoint(context.WithoutCancel(ctx)); err != nil {
		logger.Error("error applying checkpoint", "err", err)
	}
	logger.Info("enrichment finished", "enriched", count, "errors", len(errs))
	return count, errors.Join(errs...)
}
