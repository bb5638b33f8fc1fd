package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/litmine/ai"
	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
)

// summaryProcessor asks the summarizer for a summary of each processed document.
type summaryProcessor struct {
	repository storage.DocumentRepository
	summarizer ai.Summarizer
	progress   *progress
	logger     *slog.Logger
}

var _ processor = (*summaryProcessor)(nil)

func newSummaryProcessor(repository storage.DocumentRepository, checkpoints storage.CheckpointRepository, summarizer ai.Summarizer, logger *slog.Logger) (processor, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if summarizer == nil {
		return nil, ErrSummarizerRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &summaryProcessor{
		repository: repository,
		summarizer: summarizer,
		progress:   newProgress(CheckpointSummaries, checkpoints),
		logger:     logger.With("processor", "summaries"),
	}, nil
}

func (sp *summaryProcessor) name() string { return CheckpointSummaries }

func (sp *summaryProcessor) wants(doc *core.Document) bool {
	return doc.Processed() && doc.Summary == "" && doc.Text() != ""
}

// process summarizes documents one at a time. A failed summary leaves that
// document without one so a later run retries it; the rest of the batch
// is still written.
func (sp *summaryProcessor) process(ctx context.Context, docs ...*core.Document) (int, error) {
	var errs []error
	done := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		summary, err := sp.summarizer.Summarize(ctx, doc.Text())
		if err != nil {
			sp.logger.Error("error generating summary", "pmid", doc.PMID, "err", err)
			errs = append(errs, err)
			continue
		}
		doc.Summary = summary
		done = append(done, doc)
	}

	if len(done) > 0 {
		if _, err := sp.repository.UpdateDocuments(ctx, done...); err != nil {
			return 0, errors.Join(append(errs, err)...)
		}
		sp.progress.advance(done[len(done)-1].Id)
	}
	return len(done), errors.Join(errs...)
}

func (sp *summaryProcessor) checkpoint(ctx context.Context) error {
	return sp.progress.save(ctx)
}
