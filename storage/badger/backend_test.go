package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false, nil)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenBackend(file, false, nil)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestBackendClose_Twice(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.NoError(t, backend.Close())
}

func TestBackend_OperationsAfterClose(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	repo := NewDocumentRepository(backend)
	checkpoints := NewCheckpointRepository(backend)
	require.NoError(t, backend.Close())

	ctx := context.Background()

	_, err = repo.GetDocumentByPMID(ctx, "1")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = repo.UpsertDocuments(ctx, &core.Document{PMID: "1", Abstract: "Fluoxetine."})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = backend.FindSimilar(ctx, []float32{1, 0}, 0.5, 10)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = checkpoints.LoadCheckpoint(ctx, "ner")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestFindSimilar_NoDocuments(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func addVectorDocs(t *testing.T, repo *DocumentRepository, vectors map[string][]float32) {
	t.Helper()
	ctx := context.Background()
	for pmid, vec := range vectors {
		docs, err := repo.UpsertDocuments(ctx, &core.Document{PMID: pmid, Abstract: "abstract " + pmid})
		require.NoError(t, err)
		docs[0].Vector = vec
		_, err = repo.UpdateDocuments(ctx, docs[0])
		require.NoError(t, err)
	}
}

func TestFindSimilar_WithDocuments(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()
	repo := NewDocumentRepository(backend)

	addVectorDocs(t, repo, map[string][]float32{
		"1": {1.0, 0.0, 0.0}, // Very similar to query
		"2": {0.9, 0.1, 0.0}, // Somewhat similar
		"3": {0.0, 0.0, 1.0}, // Not similar
		"4": nil,             // No vector - should be skipped
	})

	results, err := backend.FindSimilar(context.Background(), []float32{1.0, 0.0, 0.0}, 0.8, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
	assert.Equal(t, "1", results[0].Document.PMID)
	assert.Equal(t, "2", results[1].Document.PMID)
}

func TestFindSimilar_LimitResults(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()
	repo := NewDocumentRepository(backend)

	addVectorDocs(t, repo, map[string][]float32{
		"1": {1, 0}, "2": {1, 0}, "3": {1, 0}, "4": {1, 0},
	})

	results, err := backend.FindSimilar(context.Background(), []float32{1, 0}, 0.5, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{"identical vectors", []float32{1.0, 0.0, 0.0}, []float32{1.0, 0.0, 0.0}, 1.0},
		{"orthogonal vectors", []float32{1.0, 0.0, 0.0}, []float32{0.0, 1.0, 0.0}, 0.0},
		{"opposite vectors", []float32{1.0, 0.0, 0.0}, []float32{-1.0, 0.0, 0.0}, -1.0},
		{"general case", []float32{0.6, 0.8}, []float32{0.8, 0.6}, 0.96},
		{"different lengths - use min", []float32{1.0, 2.0, 3.0}, []float32{1.0, 2.0}, 5.0},
		{"empty vectors", []float32{}, []float32{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)
	})
}
