package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
	"github.com/poiesic/litmine/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.DocumentRepository, func()) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		backend.Close()
	}
	return repo, cleanup
}

func seedDocuments(t *testing.T, repo storage.DocumentRepository, n int) []*core.Document {
	docs := make([]*core.Document, n)
	for i := range docs {
		docs[i] = &core.Document{
			PMID:     fmt.Sprintf("%d", 1000+i),
			Abstract: fmt.Sprintf("Abstract number %d about sertraline.", i),
		}
	}
	added, err := repo.UpsertDocuments(context.Background(), docs...)
	require.NoError(t, err)
	return added
}

func TestDocumentIterator_Basic(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedDocuments(t, repo, 3)
	_, err := repo.UpsertDocuments(ctx, &core.Document{PMID: "no-text", Title: "Title only"})
	require.NoError(t, err)

	iter := NewDocumentIterator(repo, 2)
	var sizes []int
	seen := map[string]bool{}
	err = iter.ForEach(ctx, func(docs []*core.Document) error {
		sizes = append(sizes, len(docs))
		for _, d := range docs {
			seen[d.PMID] = true
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, sizes)
	assert.Len(t, seen, 3)
	assert.False(t, seen["no-text"], "documents without text are skipped")
}

func TestDocumentIterator_Empty(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	called := false
	err := NewDocumentIterator(repo, 10).ForEach(context.Background(), func([]*core.Document) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDocumentIterator_DefaultBatchSize(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	assert.Equal(t, DefaultBatchSize, NewDocumentIterator(repo, 0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewDocumentIterator(repo, -5).batchSize)
}

func TestDocumentIterator_StopsOnError(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 5)

	boom := errors.New("boom")
	calls := 0
	err := NewDocumentIterator(repo, 2).ForEach(context.Background(), func([]*core.Document) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDocumentIterator_ContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedDocuments(t, repo, 5)

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewDocumentIterator(repo, 2).ForEach(ctx, func([]*core.Document) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		calls := 0
		err := NewDocumentIterator(repo, 2).ForEach(ctx, func([]*core.Document) error {
			calls++
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
