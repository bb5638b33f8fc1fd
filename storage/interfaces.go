package storage

import (
	"context"

	"github.com/poiesic/litmine/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds documents whose vectors are similar to the given vector.
	// Returns documents with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing bibliographic documents.
type DocumentRepository interface {
	Repository

	// UpsertDocuments inserts documents or refreshes existing ones, matched by PMID.
	// IDs are derived from the PMID. An existing document keeps its derived
	// fields (segments, entities, summary, vector) unless its abstract changed,
	// in which case they are cleared and the document becomes pending again.
	UpsertDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments overwrites existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents and their index entries.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentByPMID retrieves a document by its bibliographic identifier.
	// Returns ErrNotFound if no document has that PMID.
	GetDocumentByPMID(ctx context.Context, pmid string) (*core.Document, error)

	// PendingDocuments returns up to limit documents that still need entity
	// extraction, in ID order. A limit <= 0 returns all of them.
	PendingDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// SaveEntities writes the segment texts and reconciled entity list of a
	// document and marks it processed. An empty entity list is written as-is.
	// Returns ErrNotFound if the document doesn't exist.
	SaveEntities(ctx context.Context, id core.ID, segment1, segment2 string, entities []core.ReconciledEntity) error

	// ListDocuments calls fn for every document in ID order until fn returns an error.
	ListDocuments(ctx context.Context, fn func(doc *core.Document) error) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// FindByEntity returns the IDs of documents with an entity whose
	// normalized word equals word.
	FindByEntity(ctx context.Context, word string) ([]core.ID, error)
}

// CheckpointRepository persists processor progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, overwriting any previous one
	// for the same processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)
}
