package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/segment"
)

// ProcessDocument segments, extracts, reconciles and persists one document.
//
// A segmentation failure returns an error wrapping ErrSegmentation and
// writes nothing, so the document stays pending. A write failure returns
// an error wrapping ErrPersist.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc *core.Document) ([]core.ReconciledEntity, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	segs, err := p.segmenter.Split(doc.Abstract)
	if err != nil {
		return nil, fmt.Errorf("%w: pmid %s: %w", ErrSegmentation, doc.PMID, err)
	}

	detections := p.extract(ctx, doc.PMID, segs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entities := p.reconciler.Reconcile(detections)

	if err := p.repository.SaveEntities(ctx, doc.Id, segs.First, segs.Second, entities); err != nil {
		return nil, fmt.Errorf("%w: pmid %s: %w", ErrPersist, doc.PMID, err)
	}

	p.logger.Debug("document processed",
		"pmid", doc.PMID,
		"split", segs.Split(),
		"detections", len(detections),
		"entities", len(entities))
	return entities, nil
}

// extract runs every extractor over every segment, in that nesting order,
// and returns detections with offsets relative to First+Second.
func (p *Pipeline) extract(ctx context.Context, pmid string, segs segment.Segments) []core.RawDetection {
	var detections []core.RawDetection
	for _, ex := range p.extractors {
		for i, text := range segs.Texts() {
			if ctx.Err() != nil {
				return detections
			}
			found, err := ex.Extract(ctx, text)
			if err != nil {
				p.logger.Error("extractor failed, continuing without its detections",
					"pmid", pmid, "model", ex.Model(), "segment", i+1, "err", err)
				continue
			}
			if i == 1 {
				found = segment.Shift(found, segs.Offset())
			}
			detections = append(detections, found...)
		}
	}
	return detections
}
