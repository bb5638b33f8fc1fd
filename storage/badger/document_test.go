package badger

import (
	"context"
	"testing"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		docRepo.Close()
		backend.Close()
	})
	return docRepo
}

func lithiumEntities() []core.ReconciledEntity {
	return []core.ReconciledEntity{
		{
			EntityGroup: "Chemical", Word: "lithium", Occurrences: 1, OverallCombinedScore: 0.9,
			Models:    []string{"bc5cdr"},
			Positions: []core.Occurrence{{Start: 0, End: 7, ScoreSum: 0.9, Count: 1, CombinedScore: 0.9, Models: []string{"bc5cdr"}}},
		},
		{EntityGroup: "Gene", Word: "", Occurrences: 1, OverallCombinedScore: 0.8, Models: []string{"jnlpba"}},
	}
}

func TestUpsertDocuments_Insert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs, err := repo.UpsertDocuments(ctx, &core.Document{PMID: "100", Title: "T", Abstract: "Lithium reduced suicide risk."})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, core.IDFromContent("100"), docs[0].Id)
	assert.False(t, docs[0].InsertedAt.IsZero())

	got, err := repo.GetDocument(ctx, docs[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Lithium reduced suicide risk.", got.Abstract)

	byPMID, err := repo.GetDocumentByPMID(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, got.Id, byPMID.Id)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertDocuments_Validation(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpsertDocuments(context.Background(), &core.Document{Abstract: "no pmid"})
	assert.ErrorIs(t, err, core.ErrEmptyPMID)
}

func TestUpsertDocuments_KeepsDerivedFieldsWhenAbstractUnchanged(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs, err := repo.UpsertDocuments(ctx, &core.Document{PMID: "100", Abstract: "Lithium reduced suicide risk."})
	require.NoError(t, err)
	id := docs[0].Id
	require.NoError(t, repo.SaveEntities(ctx, id, "Lithium reduced suicide risk.", "", lithiumEntities()))

	_, err = repo.UpsertDocuments(ctx, &core.Document{PMID: "100", Title: "New title", Abstract: "Lithium reduced suicide risk."})
	require.NoError(t, err)

	got, err := repo.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.True(t, got.Processed())
	assert.Len(t, got.Entities, 2)

	pending, err := repo.PendingDocuments(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpsertDocuments_ChangedAbstractBecomesPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs, err := repo.UpsertDocuments(ctx, &core.Document{PMID: "100", Abstract: "Lithium reduced suicide risk."})
	require.NoError(t, err)
	id := docs[0].Id
	require.NoError(t, repo.SaveEntities(ctx, id, "Lithium reduced suicide risk.", "", lithiumEntities()))

	_, err = repo.UpsertDocuments(ctx, &core.Document{PMID: "100", Abstract: "Revised abstract."})
	require.NoError(t, err)

	got, err := repo.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Processed())
	assert.Empty(t, got.Entities)

	pending, err := repo.PendingDocuments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	ids, err := repo.FindByEntity(ctx, "lithium")
	require.NoError(t, err)
	assert.Empty(t, ids, "stale entity index entries are removed")
}

func TestPendingDocuments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertDocuments(ctx,
		&core.Document{PMID: "1", Abstract: "first"},
		&core.Document{PMID: "2", Abstract: ""},
		&core.Document{PMID: "3", Abstract: "third"},
		&core.Document{PMID: "4", Abstract: "fourth"},
	)
	require.NoError(t, err)

	pending, err := repo.PendingDocuments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3, "documents without abstract are never pending")
	for _, doc := range pending {
		assert.NotEmpty(t, doc.Abstract)
	}

	limited, err := repo.PendingDocuments(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSaveEntities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs, err := repo.UpsertDocuments(ctx,
		&core.Document{PMID: "1", Abstract: "Lithium reduced suicide risk."},
		&core.Document{PMID: "2", Abstract: "Nothing to see."},
	)
	require.NoError(t, err)

	t.Run("entities are written and indexed", func(t *testing.T) {
		require.NoError(t, repo.SaveEntities(ctx, docs[0].Id, "Lithium reduced ", "suicide risk.", lithiumEntities()))

		got, err := repo.GetDocument(ctx, docs[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "Lithium reduced ", got.Segment1)
		assert.Equal(t, "suicide risk.", got.Segment2)
		assert.Equal(t, lithiumEntities(), got.Entities)
		assert.True(t, got.Processed())

		ids, err := repo.FindByEntity(ctx, "lithium")
		require.NoError(t, err)
		assert.Equal(t, []core.ID{docs[0].Id}, ids)
	})

	t.Run("empty entity list still marks processed", func(t *testing.T) {
		require.NoError(t, repo.SaveEntities(ctx, docs[1].Id, "Nothing to see.", "", []core.ReconciledEntity{}))

		got, err := repo.GetDocument(ctx, docs[1].Id)
		require.NoError(t, err)
		assert.True(t, got.Processed())
		assert.Empty(t, got.Entities)
	})

	t.Run("nothing left pending", func(t *testing.T) {
		pending, err := repo.PendingDocuments(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("unknown document", func(t *testing.T) {
		err := repo.SaveEntities(ctx, core.ID(42), "", "", nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestFindByEntity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs, err := repo.UpsertDocuments(ctx,
		&core.Document{PMID: "1", Abstract: "a"},
		&core.Document{PMID: "2", Abstract: "b"},
	)
	require.NoError(t, err)
	for _, doc := range docs {
		require.NoError(t, repo.SaveEntities(ctx, doc.Id, doc.Abstract, "", lithiumEntities()))
	}

	ids, err := repo.FindByEntity(ctx, "lithium")
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.ID{docs[0].Id, docs[1].Id}, ids)

	ids, err = repo.FindByEntity(ctx, "lith")
	require.NoError(t, err)
	assert.Empty(t, ids, "matches whole words only")

	_, err = repo.FindByEntity(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDeleteDocuments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs, err := repo.UpsertDocuments(ctx, &core.Document{PMID: "1", Abstract: "a"})
	require.NoError(t, err)
	require.NoError(t, repo.SaveEntities(ctx, docs[0].Id, "a", "", lithiumEntities()))

	require.NoError(t, repo.DeleteDocuments(ctx, docs[0].Id))

	_, err = repo.GetDocument(ctx, docs[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetDocumentByPMID(ctx, "1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	ids, err := repo.FindByEntity(ctx, "lithium")
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = repo.DeleteDocuments(ctx, docs[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateDocuments_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpdateDocuments(context.Background(), &core.Document{Id: 99, PMID: "99"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListDocuments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertDocuments(ctx,
		&core.Document{PMID: "1", Abstract: "a"},
		&core.Document{PMID: "2", Abstract: "b"},
		&core.Document{PMID: "3", Abstract: "c"},
	)
	require.NoError(t, err)

	var pmids []string
	err = repo.ListDocuments(ctx, func(doc *core.Document) error {
		pmids = append(pmids, doc.PMID)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, pmids)

	stop := assert.AnError
	calls := 0
	err = repo.ListDocuments(ctx, func(doc *core.Document) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestGetDocuments_SkipsMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs, err := repo.UpsertDocuments(ctx, &core.Document{PMID: "1", Abstract: "a"})
	require.NoError(t, err)

	got, err := repo.GetDocuments(ctx, docs[0].Id, core.ID(12345))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
