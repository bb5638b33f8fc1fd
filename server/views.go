package server

import (
	"github.com/poiesic/litmine/core"
)

type documentView struct {
	PMID      string `json:"pmid"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract,omitempty"`
	Date      string `json:"date,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Processed bool   `json:"processed"`
	Entities  int    `json:"entity_count"`
}

func newDocumentView(doc *core.Document, withAbstract bool) documentView {
	v := documentView{
		PMID:      doc.PMID,
		Title:     doc.Title,
		Date:      doc.Published,
		Summary:   doc.Summary,
		Processed: doc.Processed(),
		Entities:  len(doc.Entities),
	}
	if withAbstract {
		v.Abstract = doc.Abstract
	}
	return v
}

type positionView struct {
	Start         int      `json:"start"`
	End           int      `json:"end"`
	ScoreSum      float64  `json:"score_sum"`
	Count         int      `json:"count"`
	CombinedScore float64  `json:"combined_score"`
	Models        []string `json:"models"`
}

type entityView struct {
	EntityGroup          string         `json:"entity_group"`
	Word                 *string        `json:"word"`
	Occurrences          int            `json:"occurrences"`
	OverallCombinedScore float64        `json:"overall_combined_score"`
	Models               []string       `json:"models"`
	Positions            []positionView `json:"positions"`
}

// newEntityView renders an empty word as JSON null.
func newEntityView(ent core.ReconciledEntity) entityView {
	v := entityView{
		EntityGroup:          ent.EntityGroup,
		Occurrences:          ent.Occurrences,
		OverallCombinedScore: ent.OverallCombinedScore,
		Models:               ent.Models,
		Positions:            make([]positionView, len(ent.Positions)),
	}
	if ent.Word != "" {
		word := ent.Word
		v.Word = &word
	}
	for i, p := range ent.Positions {
		v.Positions[i] = positionView(p)
	}
	return v
}

type searchRequest struct {
	Query   string `json:"query" binding:"required"`
	MaxHits int    `json:"max_hits"`
}

type searchHit struct {
	documentView
	Score float32 `json:"score"`
}
