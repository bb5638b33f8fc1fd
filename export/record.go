package export

import (
	"time"

	"github.com/poiesic/litmine/core"
)

type positionRecord struct {
	Start         int      `json:"start"`
	End           int      `json:"end"`
	ScoreSum      float64  `json:"score_sum"`
	Count         int      `json:"count"`
	CombinedScore float64  `json:"combined_score"`
	Models        []string `json:"models"`
}

type entityRecord struct {
	EntityGroup          string           `json:"entity_group"`
	Word                 string           `json:"word"`
	Occurrences          int              `json:"occurrences"`
	OverallCombinedScore float64          `json:"overall_combined_score"`
	Models               []string         `json:"models"`
	Positions            []positionRecord `json:"positions"`
}

// documentRecord is the JSON shape of one exported document. Entities is
// absent for documents that were never processed and an empty list for
// processed documents in which nothing was found.
type documentRecord struct {
	PMID        string          `json:"pmid"`
	Title       string          `json:"title,omitempty"`
	Abstract    string          `json:"abstract,omitempty"`
	Date        string          `json:"date,omitempty"`
	Abstract1   string          `json:"abstract1,omitempty"`
	Abstract2   string          `json:"abstract2,omitempty"`
	Entities    *[]entityRecord `json:"entities,omitempty"`
	ExtractedAt *time.Time      `json:"extracted_at,omitempty"`
	Summary     string          `json:"summary,omitempty"`
}

func toRecord(doc *core.Document) documentRecord {
	rec := documentRecord{
		PMID:      doc.PMID,
		Title:     doc.Title,
		Abstract:  doc.Abstract,
		Date:      doc.Published,
		Abstract1: doc.Segment1,
		Abstract2: doc.Segment2,
		Summary:   doc.Summary,
	}
	if doc.Processed() {
		entities := make([]entityRecord, len(doc.Entities))
		for i, ent := range doc.Entities {
			positions := make([]positionRecord, len(ent.Positions))
			for j, p := range ent.Positions {
				positions[j] = positionRecord(p)
			}
			entities[i] = entityRecord{
				EntityGroup:          ent.EntityGroup,
				Word:                 ent.Word,
				Occurrences:          ent.Occurrences,
				OverallCombinedScore: ent.OverallCombinedScore,
				Models:               ent.Models,
				Positions:            positions,
			}
		}
		rec.Entities = &entities
		extractedAt := doc.ExtractedAt
		rec.ExtractedAt = &extractedAt
	}
	return rec
}

func fromRecord(rec documentRecord) *core.Document {
	doc := &core.Document{
		PMID:      rec.PMID,
		Title:     rec.Title,
		Abstract:  rec.Abstract,
		Published: rec.Date,
		Segment1:  rec.Abstract1,
		Segment2:  rec.Abstract2,
		Summary:   rec.Summary,
	}
	if rec.Entities != nil {
		doc.Entities = make([]core.ReconciledEntity, len(*rec.Entities))
		for i, ent := range *rec.Entities {
			positions := make([]core.Occurrence, len(ent.Positions))
			for j, p := range ent.Positions {
				positions[j] = core.Occurrence(p)
			}
			doc.Entities[i] = core.ReconciledEntity{
				EntityGroup:          ent.EntityGroup,
				Word:                 ent.Word,
				Occurrences:          ent.Occurrences,
				OverallCombinedScore: ent.OverallCombinedScore,
				Models:               ent.Models,
				Positions:            positions,
			}
		}
		doc.ExtractedAt = time.Now().UTC()
		if rec.ExtractedAt != nil && !rec.ExtractedAt.IsZero() {
			doc.ExtractedAt = *rec.ExtractedAt
		}
	}
	return doc
}
