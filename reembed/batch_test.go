package reembed

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/litmine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbedder for testing
type mockEmbedder struct {
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls          atomic.Int64
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.embedTextsFunc != nil {
		return m.embedTextsFunc(ctx, texts)
	}
	// Default: unnormalized vectors with magnitude 3
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1.0, 2.0, 2.0}
	}
	return result, nil
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestBatchProcessor_Process(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	added := seedDocuments(t, repo, 2)

	var gotTexts []string
	embedder := &mockEmbedder{}
	embedder.embedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		gotTexts = texts
		return [][]float32{{1, 2, 2}, {0, 3, 4}}, nil
	}
	processor := NewBatchProcessor(repo, embedder, 3, 10*time.Millisecond)

	require.NoError(t, processor.Process(ctx, added))
	assert.Equal(t, []string{added[0].Abstract, added[1].Abstract}, gotTexts)

	for _, doc := range added {
		stored, err := repo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		require.NotEmpty(t, stored.Vector)
		assert.InDelta(t, 1.0, magnitude(stored.Vector), 1e-6, "vector should be normalized")
	}
}

func TestBatchProcessor_UsesSegmentText(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	doc := seedDocuments(t, repo, 1)[0]
	require.NoError(t, repo.SaveEntities(ctx, doc.Id, "First half ", "second\nhalf.", []core.ReconciledEntity{}))
	stored, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)

	var got []string
	embedder := &mockEmbedder{embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		got = texts
		return [][]float32{{1}}, nil
	}}
	require.NoError(t, NewBatchProcessor(repo, embedder, 1, 0).Process(ctx, []*core.Document{stored}))
	assert.Equal(t, []string{"First half second half."}, got)
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	embedder := &mockEmbedder{}
	processor := NewBatchProcessor(repo, embedder, 3, 10*time.Millisecond)

	require.NoError(t, processor.Process(context.Background(), []*core.Document{}), "empty batch should not error")
	assert.Equal(t, int64(0), embedder.calls.Load())
}

func TestBatchProcessor_EmbeddingError(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	added := seedDocuments(t, repo, 1)
	expectedErr := errors.New("embedding error")
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, expectedErr
		},
	}
	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)

	err := processor.Process(context.Background(), added)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, int64(3), embedder.calls.Load())
}

func TestBatchProcessor_Retry(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	added := seedDocuments(t, repo, 1)
	embedder := &mockEmbedder{}
	embedder.embedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if embedder.calls.Load() < 3 {
			return nil, errors.New("temporary failure")
		}
		return [][]float32{{3, 4}}, nil
	}
	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)

	require.NoError(t, processor.Process(context.Background(), added))
	assert.Equal(t, int64(3), embedder.calls.Load())
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	added := seedDocuments(t, repo, 2)
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil
		},
	}
	err := NewBatchProcessor(repo, embedder, 1, 0).Process(context.Background(), added)
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}
