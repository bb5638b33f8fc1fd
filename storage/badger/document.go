package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *DocumentRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertDocuments inserts or refreshes documents keyed by PMID.
func (r *DocumentRepository) UpsertDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, doc := range docs {
			doc.Id = core.IDFromContent(doc.PMID)
			key := makeDocumentKey(doc.Id)

			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}

			if old == nil {
				doc.InsertedAt = now
			} else {
				doc.InsertedAt = old.InsertedAt
				if old.Abstract == doc.Abstract {
					// Keep what the pipeline already derived
					doc.Segment1, doc.Segment2 = old.Segment1, old.Segment2
					doc.Entities, doc.ExtractedAt = old.Entities, old.ExtractedAt
					doc.Summary, doc.Vector = old.Summary, old.Vector
				} else {
					doc.Segment1, doc.Segment2 = "", ""
					doc.Entities, doc.ExtractedAt = nil, time.Time{}
					doc.Summary, doc.Vector = "", nil
				}
			}
			doc.UpdatedAt = now

			if err := writeDocument(tx, old, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateDocuments overwrites existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			old, err := readDocument(tx, makeDocumentKey(doc.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: document %d", storage.ErrNotFound, doc.Id)
			}
			doc.UpdatedAt = time.Now().UTC()
			if err := writeDocument(tx, old, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
			}
			if err := deleteIndexes(tx, doc); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentByPMID looks the document up through the PMID index.
func (r *DocumentRepository) GetDocumentByPMID(ctx context.Context, pmid string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePMIDKey(pmid))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// PendingDocuments walks the pending index.
func (r *DocumentRepository) PendingDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := scanIDs(tx, []byte(documentPendingPrefix+":"), limit)
		if err != nil {
			return err
		}
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// SaveEntities records the extraction output of one document.
func (r *DocumentRepository) SaveEntities(ctx context.Context, id core.ID, segment1, segment2 string, entities []core.ReconciledEntity) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if old == nil {
			return fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
		}

		doc := *old
		doc.Segment1 = segment1
		doc.Segment2 = segment2
		doc.Entities = entities
		doc.ExtractedAt = time.Now().UTC()
		doc.UpdatedAt = doc.ExtractedAt
		if err := writeDocument(tx, old, &doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListDocuments iterates over every document in ID order.
func (r *DocumentRepository) ListDocuments(ctx context.Context, fn func(doc *core.Document) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc *core.Document
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			}); err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// CountDocuments counts primary document keys without decoding values.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// FindByEntity walks the entity word index.
func (r *DocumentRepository) FindByEntity(ctx context.Context, word string) ([]core.ID, error) {
	if word == "" {
		return nil, storage.ErrInvalidQuery
	}
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		ids, err = scanIDs(tx, makePartialEntityKey(word), 0)
		return err
	}, false)
	return ids, err
}

// Helper functions

// readDocument reads a document from the transaction.
// Returns nil, nil if the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// writeDocument stores doc and brings its indexes in line, replacing old's
// index entries when old is not nil.
func writeDocument(tx *badger.Txn, old, doc *core.Document) error {
	if old != nil {
		if err := deleteIndexes(tx, old); err != nil {
			return err
		}
	}
	if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
		return err
	}
	return setIndexes(tx, doc)
}

func setIndexes(tx *badger.Txn, doc *core.Document) error {
	id := storage.MarshalID(doc.Id)
	if err := tx.Set(makePMIDKey(doc.PMID), id); err != nil {
		return err
	}
	if doc.Pending() {
		if err := tx.Set(makePendingKey(doc.Id), id); err != nil {
			return err
		}
	}
	for _, word := range entityWords(doc) {
		if err := tx.Set(makeEntityKey(word, doc.Id), id); err != nil {
			return err
		}
	}
	return nil
}

func deleteIndexes(tx *badger.Txn, doc *core.Document) error {
	if err := tx.Delete(makePMIDKey(doc.PMID)); err != nil {
		return err
	}
	if err := tx.Delete(makePendingKey(doc.Id)); err != nil {
		return err
	}
	for _, word := range entityWords(doc) {
		if err := tx.Delete(makeEntityKey(word, doc.Id)); err != nil {
			return err
		}
	}
	return nil
}

// entityWords returns the distinct non-empty entity words of doc.
func entityWords(doc *core.Document) []string {
	seen := make(map[string]struct{}, len(doc.Entities))
	var words []string
	for _, ent := range doc.Entities {
		if ent.Word == "" {
			continue
		}
		if _, ok := seen[ent.Word]; ok {
			continue
		}
		seen[ent.Word] = struct{}{}
		words = append(words, ent.Word)
	}
	return words
}

// scanIDs reads ID values from every key under prefix, up to limit (<= 0 for all).
func scanIDs(tx *badger.Txn, prefix []byte, limit int) ([]core.ID, error) {
	var ids []core.ID
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if limit > 0 && len(ids) >= limit {
			break
		}
		if !bytes.HasPrefix(iter.Item().Key(), prefix) {
			break
		}
		var id core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
