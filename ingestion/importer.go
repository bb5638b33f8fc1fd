package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
)

const upsertBatchSize = 500

// Source finds and fetches bibliographic records.
type Source interface {
	// Search returns the identifiers matching query, without duplicates.
	Search(ctx context.Context, query string) ([]string, error)

	// Fetch returns the documents for the given identifiers. Records the
	// source cannot return are omitted.
	Fetch(ctx context.Context, pmids []string) ([]*core.Document, error)
}

// ImportStats summarizes one Import.
type ImportStats struct {
	Found   int
	Fetched int
	Stored  int
	Pending int
}

// Importer loads documents from a Source into the store.
type Importer struct {
	source     Source
	repository storage.DocumentRepository
	logger     *slog.Logger
}

// NewImporter creates an importer. A nil logger uses slog.Default().
func NewImporter(source Source, repository storage.DocumentRepository, logger *slog.Logger) (*Importer, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		source:     source,
		repository: repository,
		logger:     logger.With("component", "importer"),
	}, nil
}

// Import searches the source, fetches every hit and upserts the documents
// by PMID. Documents whose abstract changed become pending again.
func (im *Importer) Import(ctx context.Context, query string) (ImportStats, error) {
	var stats ImportStats

	pmids, err := im.source.Search(ctx, query)
	if err != nil {
		return stats, err
	}
	stats.Found = len(pmids)
	im.logger.Info("search finished", "query", query, "found", stats.Found)
	if len(pmids) == 0 {
		return stats, nil
	}

	docs, err := im.source.Fetch(ctx, pmids)
	if err != nil {
		return stats, err
	}
	stats.Fetched = len(docs)

	// Chunked to stay under badger's transaction size limit.
	for start := 0; start < len(docs); start += upsertBatchSize {
		stored, err := im.repository.UpsertDocuments(ctx, docs[start:min(start+upsertBatchSize, len(docs))]...)
		if err != nil {
			return stats, err
		}
		stats.Stored += len(stored)
		for _, doc := range stored {
			if doc.Pending() {
				stats.Pending++
			}
		}
	}

	im.logger.Info("import finished",
		"fetched", stats.Fetched,
		"stored", stats.Stored,
		"pending", stats.Pending)
	return stats, nil
}

// ImportAll runs Import for each query in turn and sums the results.
func (im *Importer) ImportAll(ctx context.Context, queries []string) (ImportStats, error) {
	var total ImportStats
	for _, query := range queries {
		stats, err := im.Import(ctx, query)
		total.Found += stats.Found
		total.Fetched += stats.Fetched
		total.Stored += stats.Stored
		total.Pending += stats.Pending
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
