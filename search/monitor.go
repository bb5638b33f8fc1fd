package search

import (
	"iter"

	"github.com/poiesic/litmine/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(ids []core.ID)
	AfterQueryTermExtraction(terms []string)
	FoundEntityMatches(term string, ids []core.ID)
	AfterEntitySearch(iter.Seq[core.ID])
	AfterDocumentRetrieval(docs []*core.Document)
	SemanticAndEntityHit(doc *core.Document)
	SemanticHit(doc *core.Document)
	EntityHit(doc *core.Document)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ID)         {}
func (n *noopMonitor) AfterQueryTermExtraction(_ []string)     {}
func (n *noopMonitor) FoundEntityMatches(_ string, _ []core.ID) {}
func (n *noopMonitor) AfterEntitySearch(_ iter.Seq[core.ID])   {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.Document) {}
func (n *noopMonitor) SemanticAndEntityHit(_ *core.Document)   {}
func (n *noopMonitor) SemanticHit(_ *core.Document)            {}
func (n *noopMonitor) EntityHit(_ *core.Document)              {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)           {}
