package main

import (
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/search"
)

// traceMonitor prints each search stage.
type traceMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*traceMonitor)(nil)

func newTraceMonitor(w io.Writer) *traceMonitor {
	return &traceMonitor{w: w}
}

func (m *traceMonitor) Start(query string) {
	fmt.Fprintf(m.w, "query: %q\n", query)
}

func (m *traceMonitor) AfterSemanticSearch(ids []core.ID) {
	fmt.Fprintf(m.w, "semantic hits: %d\n", len(ids))
}

func (m *traceMonitor) AfterQueryTermExtraction(terms []string) {
	fmt.Fprintf(m.w, "entity terms tried: %d\n", len(terms))
}

func (m *traceMonitor) FoundEntityMatches(term string, ids []core.ID) {
	fmt.Fprintf(m.w, "  %q -> %d documents\n", term, len(ids))
}

func (m *traceMonitor) AfterEntitySearch(ids iter.Seq[core.ID]) {
	fmt.Fprintf(m.w, "entity hits: %d\n", len(slices.Collect(ids)))
}

func (m *traceMonitor) AfterDocumentRetrieval(docs []*core.Document) {
	fmt.Fprintf(m.w, "retrieved: %d\n", len(docs))
}

func (m *traceMonitor) SemanticAndEntityHit(doc *core.Document) {
	fmt.Fprintf(m.w, "  both     %s\n", doc.PMID)
}

func (m *traceMonitor) SemanticHit(doc *core.Document) {
	fmt.Fprintf(m.w, "  semantic %s\n", doc.PMID)
}

func (m *traceMonitor) EntityHit(doc *core.Document) {
	fmt.Fprintf(m.w, "  entity   %s\n", doc.PMID)
}

func (m *traceMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "ranked: %d\n\n", len(results))
}
