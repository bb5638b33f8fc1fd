package search

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"

	"github.com/poiesic/litmine/ai"
	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/reconcile"
	"github.com/poiesic/litmine/storage"
)

// DefaultMinSimilarity is the cosine similarity floor for semantic hits.
const DefaultMinSimilarity float32 = 0.60

// Searcher provides hybrid semantic and entity search over documents.
type Searcher struct {
	repository    storage.DocumentRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity floor for semantic hits.
func WithMinSimilarity(minSimilarity float32) Option {
	return func(s *Searcher) error {
		if minSimilarity < -1 || minSimilarity > 1 {
			return fmt.Errorf("min similarity must be in [-1, 1], got %v", minSimilarity)
		}
		s.minSimilarity = minSimilarity
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repository:    repository,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar searches for documents relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for documents relevant to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = core.NormalizeText(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	monitor.Start(query)

	// 1. Semantic search
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := s.repository.FindSimilar(ctx, core.NormalizeVector(embedding), s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}

	semanticScores := make(map[core.ID]float32, len(matches))
	semanticIds := make([]core.ID, 0, len(matches))
	for _, match := range matches {
		semanticScores[match.Document.Id] = match.Score
		semanticIds = append(semanticIds, match.Document.Id)
	}
	monitor.AfterSemanticSearch(semanticIds)

	// 2. Entity search over runs of query words
	terms := queryTerms(query)
	monitor.AfterQueryTermExtraction(terms)

	entitySet := make(map[core.ID]bool)
	for _, term := range terms {
		ids, err := s.repository.FindByEntity(ctx, term)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("failed to get documents for entity", "term", term, "err", err)
			continue
		}
		if len(ids) == 0 {
			continue
		}
		monitor.FoundEntityMatches(term, ids)
		for _, id := range ids {
			entitySet[id] = true
		}
	}
	monitor.AfterEntitySearch(maps.Keys(entitySet))

	// 3. Combine and score
	allIds := make(map[core.ID]bool, len(semanticScores)+len(entitySet))
	for id := range semanticScores {
		allIds[id] = true
	}
	for id := range entitySet {
		allIds[id] = true
	}

	if len(allIds) == 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	uniqueIds := make([]core.ID, 0, len(allIds))
	for id := range allIds {
		uniqueIds = append(uniqueIds, id)
	}

	docs, err := s.repository.GetDocuments(ctx, uniqueIds...)
	if err != nil {
		s.logger.Error("error retrieving documents", "documentCount", len(uniqueIds), "err", err)
		return nil, err
	}
	monitor.AfterDocumentRetrieval(docs)

	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}

		similarity, inSemantic := semanticScores[doc.Id]
		inEntity := entitySet[doc.Id]

		var score float32
		switch {
		case inSemantic && inEntity:
			score = 1.5 * similarity
			monitor.SemanticAndEntityHit(doc)
		case inEntity:
			score = 1.2
			monitor.EntityHit(doc)
		default:
			score = similarity
			monitor.SemanticHit(doc)
		}

		if containsAllQueryWords(doc.Title+" "+doc.Abstract, query) {
			score += 0.3
		}

		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.PMID < results[j].Document.PMID
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// EntitiesFor returns the reconciled entities of the document with the given
// PMID. Entities whose word normalized to nothing are dropped unless
// includeEmpty is set. Returns storage.ErrNotFound for an unknown PMID.
func (s *Searcher) EntitiesFor(ctx context.Context, pmid string, includeEmpty bool) ([]core.ReconciledEntity, error) {
	doc, err := s.repository.GetDocumentByPMID(ctx, pmid)
	if err != nil {
		return nil, err
	}
	if includeEmpty {
		return doc.Entities, nil
	}
	return reconcile.NonEmptyWords(doc.Entities), nil
}

// DocumentsFor returns the documents carrying an entity whose normalized
// word matches word. The argument is normalized the same way entity words are.
func (s *Searcher) DocumentsFor(ctx context.Context, word string) ([]*core.Document, error) {
	normalized := reconcile.NormalizeEntity(word)
	if normalized == "" {
		return nil, ErrEmptyQuery
	}

	ids, err := s.repository.FindByEntity(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*core.Document{}, nil
	}

	docs, err := s.repository.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].PMID < docs[j].PMID
	})
	return docs, nil
}
