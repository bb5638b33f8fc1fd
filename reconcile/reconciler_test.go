package reconcile

import (
	"testing"

	"github.com/poiesic/litmine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func det(label, text string, start, end int, score float64, model string) core.RawDetection {
	return core.RawDetection{Label: label, Text: text, Start: start, End: end, Score: score, SourceModel: model}
}

func newReconciler(t *testing.T, threshold float64, tolerance int) *Reconciler {
	t.Helper()
	r, err := New(WithThreshold(threshold), WithTolerance(tolerance))
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultThreshold, r.Threshold())
		assert.Equal(t, DefaultTolerance, r.Tolerance())
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := New(WithThreshold(1.5))
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("invalid tolerance", func(t *testing.T) {
		_, err := New(WithTolerance(-1))
		assert.ErrorIs(t, err, ErrInvalidTolerance)
	})
}

func TestReconcile_ConcreteScenario(t *testing.T) {
	r := newReconciler(t, 0.5, 5)

	got := r.Reconcile([]core.RawDetection{
		det("Chemical", "Fluoxetine", 10, 20, 0.9, "A"),
		det("Chemical", "fluoxetine", 12, 22, 0.8, "B"),
	})

	require.Len(t, got, 1)
	ent := got[0]
	assert.Equal(t, "Chemical", ent.EntityGroup)
	assert.Equal(t, "fluoxetine", ent.Word)
	assert.Equal(t, 1, ent.Occurrences)
	assert.InDelta(t, 0.85, ent.OverallCombinedScore, 1e-9)
	assert.ElementsMatch(t, []string{"A", "B"}, ent.Models)

	require.Len(t, ent.Positions, 1)
	occ := ent.Positions[0]
	assert.Equal(t, 2, occ.Count)
	assert.InDelta(t, 1.7, occ.ScoreSum, 1e-9)
	assert.InDelta(t, 0.85, occ.CombinedScore, 1e-9)
	assert.Equal(t, []string{"A", "B"}, occ.Models)
	assert.Equal(t, 10, occ.Start, "occurrence keeps the span of its first detection")
	assert.Equal(t, 20, occ.End)
}

func TestReconcile_EmptyInput(t *testing.T) {
	r := newReconciler(t, 0.5, 5)

	got := r.Reconcile(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = r.Reconcile([]core.RawDetection{det("Chemical", "x", 0, 1, 0.1, "A")})
	require.NotNil(t, got)
	assert.Empty(t, got, "everything below threshold")
}

func TestReconcile_ThresholdFiltering(t *testing.T) {
	r := newReconciler(t, 0.61, 5)

	got := r.Reconcile([]core.RawDetection{
		det("Disease", "depression", 0, 10, 0.60, "A"),
		det("Disease", "depression", 0, 10, 0.61, "B"),
		det("Disease", "anxiety", 20, 27, 0.2, "A"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"B"}, got[0].Models)
	assert.Equal(t, 1, got[0].Positions[0].Count)
	assert.InDelta(t, 0.61, got[0].OverallCombinedScore, 1e-9)
}

func TestReconcile_PartitionIsolation(t *testing.T) {
	r := newReconciler(t, 0.5, 5)

	got := r.Reconcile([]core.RawDetection{
		det("Chemical", "serotonin", 5, 14, 0.9, "A"),
		det("Gene", "serotonin", 5, 14, 0.9, "B"),
		det("Chemical", "serotonin.", 5, 15, 0.9, "C"),
	})

	require.Len(t, got, 3, "different labels or raw text never merge")
	for _, ent := range got {
		assert.Equal(t, 1, ent.Occurrences)
		assert.Len(t, ent.Models, 1)
		assert.Equal(t, "serotonin", ent.Word)
	}
}

func TestReconcile_ToleranceMerge(t *testing.T) {
	tests := []struct {
		name            string
		second          core.RawDetection
		wantOccurrences int
	}{
		{"identical span", det("Chemical", "lithium", 100, 107, 0.7, "B"), 1},
		{"both bounds at tolerance", det("Chemical", "lithium", 105, 112, 0.7, "B"), 1},
		{"start beyond tolerance", det("Chemical", "lithium", 106, 111, 0.7, "B"), 2},
		{"end beyond tolerance", det("Chemical", "lithium", 100, 113, 0.7, "B"), 2},
		{"earlier span within tolerance", det("Chemical", "lithium", 95, 102, 0.7, "B"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReconciler(t, 0.5, 5)
			got := r.Reconcile([]core.RawDetection{
				det("Chemical", "Lithium", 100, 107, 0.9, "A"),
				tt.second,
			})
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantOccurrences, got[0].Occurrences)
			assert.Len(t, got[0].Positions, tt.wantOccurrences)
		})
	}
}

func TestReconcile_ScoreAggregationIsUnweighted(t *testing.T) {
	r := newReconciler(t, 0.5, 5)

	got := r.Reconcile([]core.RawDetection{
		// first occurrence backed by three detections
		det("Disease", "depression", 0, 10, 1.0, "A"),
		det("Disease", "depression", 1, 11, 0.8, "B"),
		det("Disease", "depression", 0, 10, 0.6, "C"),
		// second occurrence backed by one
		det("Disease", "depression", 200, 210, 0.6, "A"),
	})

	require.Len(t, got, 1)
	ent := got[0]
	require.Len(t, ent.Positions, 2)
	assert.Equal(t, 3, ent.Positions[0].Count)
	assert.InDelta(t, 0.8, ent.Positions[0].CombinedScore, 1e-9)
	assert.InDelta(t, 0.6, ent.Positions[1].CombinedScore, 1e-9)
	assert.InDelta(t, 0.7, ent.OverallCombinedScore, 1e-9, "mean of occurrence scores, not of detections")
}

func TestReconcile_ModelAttribution(t *testing.T) {
	r := newReconciler(t, 0.5, 5)

	got := r.Reconcile([]core.RawDetection{
		det("Disease", "insomnia", 0, 8, 0.9, "A"),
		det("Disease", "insomnia", 0, 8, 0.9, "A"),
		det("Disease", "insomnia", 50, 58, 0.9, "B"),
		det("Disease", "insomnia", 51, 59, 0.9, "A"),
	})

	require.Len(t, got, 1)
	ent := got[0]
	assert.Equal(t, []string{"A"}, ent.Positions[0].Models, "no duplicate models within an occurrence")
	assert.Equal(t, []string{"B", "A"}, ent.Positions[1].Models)
	assert.ElementsMatch(t, []string{"A", "B"}, ent.Models)
}

func TestReconcile_SingleLinkageIsOrderDependent(t *testing.T) {
	r := newReconciler(t, 0.5, 5)

	left := det("Chemical", "ketamine", 0, 8, 0.9, "A")
	right := det("Chemical", "ketamine", 8, 16, 0.9, "B")
	middle := det("Chemical", "ketamine", 4, 12, 0.9, "C")

	// middle is within tolerance of both, which are not within tolerance of each other
	got := r.Reconcile([]core.RawDetection{left, right, middle})
	require.Len(t, got, 1)
	require.Len(t, got[0].Positions, 2)
	assert.Equal(t, []string{"A", "C"}, got[0].Positions[0].Models, "joins the first occurrence created")
	assert.Equal(t, []string{"B"}, got[0].Positions[1].Models)

	got = r.Reconcile([]core.RawDetection{middle, left, right})
	require.Len(t, got, 1)
	require.Len(t, got[0].Positions, 1, "seeding with the middle span absorbs both neighbours")
	assert.Equal(t, []string{"C", "A", "B"}, got[0].Positions[0].Models)
}

func TestReconcile_EmptyWordIsKept(t *testing.T) {
	r := newReconciler(t, 0.5, 5)

	got := r.Reconcile([]core.RawDetection{
		det("Gene", "IL-6", 0, 4, 0.9, "A"),
		det("Chemical", "lithium", 10, 17, 0.9, "A"),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "", got[0].Word)
	assert.Equal(t, "Gene", got[0].EntityGroup)

	filtered := NonEmptyWords(got)
	require.Len(t, filtered, 1)
	assert.Equal(t, "lithium", filtered[0].Word)
}

func TestReconcile_DoesNotRetainState(t *testing.T) {
	r := newReconciler(t, 0.5, 5)
	dets := []core.RawDetection{det("Chemical", "lithium", 0, 7, 0.9, "A")}

	first := r.Reconcile(dets)
	second := r.Reconcile(dets)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, second[0].Positions[0].Count)
}
