package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
	"github.com/poiesic/litmine/storage/badger"
)

func setupRepository(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func processedDoc(pmid string, entities ...core.ReconciledEntity) *core.Document {
	return &core.Document{
		PMID:        pmid,
		Title:       "Title " + pmid,
		Abstract:    "Abstract " + pmid,
		Published:   "2024 Jan",
		Segment1:    "Abstract ",
		Segment2:    pmid,
		Entities:    entities,
		ExtractedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func fluoxetine() core.ReconciledEntity {
	return core.ReconciledEntity{
		EntityGroup:          "CHEMICAL",
		Word:                 "fluoxetine",
		Occurrences:          1,
		OverallCombinedScore: 0.85,
		Models:               []string{"model-a", "model-b"},
		Positions: []core.Occurrence{
			{Start: 0, End: 10, ScoreSum: 1.7, Count: 2, CombinedScore: 0.85, Models: []string{"model-a", "model-b"}},
		},
	}
}

func TestNewService(t *testing.T) {
	repo := setupRepository(t)

	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = NewService(nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestWriteJSONParts(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	docs := []*core.Document{
		processedDoc("1", fluoxetine()),
		processedDoc("2"),
		{PMID: "3", Title: "Pending", Abstract: "Not processed yet."},
		{PMID: "4", Title: "No abstract"},
		processedDoc("5", fluoxetine()),
	}
	_, err := repo.UpsertDocuments(ctx, docs...)
	require.NoError(t, err)

	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "exports")
	paths, err := svc.WriteJSONParts(ctx, dir, "abstracts", 2)
	require.NoError(t, err)
	require.Equal(t, []string{
		PartPath(dir, "abstracts", 1),
		PartPath(dir, "abstracts", 2),
		PartPath(dir, "abstracts", 3),
	}, paths)

	total := 0
	for i, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var records []map[string]any
		require.NoError(t, json.Unmarshal(data, &records))
		if i < 2 {
			assert.Len(t, records, 2)
		} else {
			assert.Len(t, records, 1)
		}
		total += len(records)
	}
	assert.Equal(t, 5, total)

	t.Run("round trip", func(t *testing.T) {
		loaded, err := ReadJSONParts(dir, "abstracts")
		require.NoError(t, err)
		require.Len(t, loaded, 5)

		byPMID := make(map[string]*core.Document)
		for _, doc := range loaded {
			byPMID[doc.PMID] = doc
		}

		one := byPMID["1"]
		require.NotNil(t, one)
		assert.True(t, one.Processed())
		assert.Equal(t, "2024 Jan", one.Published)
		assert.Equal(t, "Abstract ", one.Segment1)
		assert.Equal(t, []core.ReconciledEntity{fluoxetine()}, one.Entities)
		assert.True(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Equal(one.ExtractedAt))

		two := byPMID["2"]
		require.NotNil(t, two)
		assert.True(t, two.Processed(), "empty entity list still counts as processed")
		assert.Empty(t, two.Entities)

		three := byPMID["3"]
		require.NotNil(t, three)
		assert.True(t, three.Pending())
	})
}

func TestWriteJSONParts_EmptyStore(t *testing.T) {
	repo := setupRepository(t)
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := svc.WriteJSONParts(context.Background(), dir, "abstracts", DefaultPartSize)
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = ReadJSONParts(dir, "abstracts")
	assert.ErrorIs(t, err, ErrNoParts)
}

func TestWriteJSONParts_InvalidPartSize(t *testing.T) {
	repo := setupRepository(t)
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	_, err = svc.WriteJSONParts(context.Background(), t.TempDir(), "abstracts", 0)
	assert.ErrorIs(t, err, ErrInvalidPartSize)
}

func TestReadJSONParts_PartOrder(t *testing.T) {
	dir := t.TempDir()
	write := func(n int, pmid string) {
		data, err := json.Marshal([]map[string]string{{"pmid": pmid, "abstract": "text"}})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(PartPath(dir, "set", n), data, 0o644))
	}
	write(10, "ten")
	write(2, "two")
	write(1, "one")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "set_partx.json"), []byte("[]"), 0o644))

	docs, err := ReadJSONParts(dir, "set")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "one", docs[0].PMID)
	assert.Equal(t, "two", docs[1].PMID)
	assert.Equal(t, "ten", docs[2].PMID)
	assert.True(t, docs[0].Pending())
}

func TestReadJSONParts_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(PartPath(dir, "bad", 1), []byte("{not json"), 0o644))

	_, err := ReadJSONParts(dir, "bad")
	assert.Error(t, err)
}

func TestEntitiesXLSX(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	empty := core.ReconciledEntity{EntityGroup: "CHEMICAL", Word: "", Occurrences: 1, OverallCombinedScore: 0.7, Models: []string{"model-a"}}
	_, err := repo.UpsertDocuments(ctx,
		processedDoc("1", fluoxetine(), empty),
		processedDoc("2"),
	)
	require.NoError(t, err)

	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	readRows := func(data []byte) [][]string {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(entitySheet)
		require.NoError(t, err)
		return rows
	}

	data, err := svc.EntitiesXLSX(ctx, false)
	require.NoError(t, err)
	rows := readRows(data)
	require.Len(t, rows, 2)
	assert.Equal(t, entityHeaders, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "fluoxetine", rows[1][4])
	assert.Equal(t, "model-a, model-b", rows[1][7])

	data, err = svc.EntitiesXLSX(ctx, true)
	require.NoError(t, err)
	assert.Len(t, readRows(data), 3)
}
