package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/poiesic/litmine/core"
)

const entitySheet = "Entities"

var entityHeaders = []string{
	"PMID",
	"Title",
	"Date",
	"Entity Group",
	"Word",
	"Occurrences",
	"Overall Score",
	"Models",
}

// EntitiesXLSX returns an XLSX workbook (as bytes) with one row per
// (document, reconciled entity) pair. Entities whose word normalized to
// nothing are left out unless includeEmpty is set.
func (s *Service) EntitiesXLSX(ctx context.Context, includeEmpty bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Reuse the default sheet
	if err := f.SetSheetName(f.GetSheetName(0), entitySheet); err != nil {
		return nil, err
	}

	for i, h := range entityHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(entitySheet, cell, h)
	}

	row := 2
	err := s.repository.ListDocuments(ctx, func(doc *core.Document) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, ent := range doc.Entities {
			if ent.Word == "" && !includeEmpty {
				continue
			}
			values := []any{
				doc.PMID,
				doc.Title,
				doc.Published,
				ent.EntityGroup,
				ent.Word,
				ent.Occurrences,
				ent.OverallCombinedScore,
				strings.Join(ent.Models, ", "),
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(entitySheet, cell, &values); err != nil {
				return err
			}
			row++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	_ = f.SetColWidth(entitySheet, "A", "A", 12) // pmid
	_ = f.SetColWidth(entitySheet, "B", "B", 60) // title
	_ = f.SetColWidth(entitySheet, "C", "C", 14) // date
	_ = f.SetColWidth(entitySheet, "D", "D", 18) // group
	_ = f.SetColWidth(entitySheet, "E", "E", 32) // word
	_ = f.SetColWidth(entitySheet, "F", "G", 14) // counts
	_ = f.SetColWidth(entitySheet, "H", "H", 40) // models

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("built entity workbook", "rows", row-2)
	return buf.Bytes(), nil
}
