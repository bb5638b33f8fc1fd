package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/search"
	"github.com/poiesic/litmine/storage"
)

const (
	// DefaultMaxHits is used when a search request does not set max_hits.
	DefaultMaxHits = 10

	// MaxHitsLimit caps max_hits on search requests.
	MaxHitsLimit = 200

	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// ErrDependencyRequired is returned when a store or searcher is missing.
var ErrDependencyRequired = errors.New("server: store and searcher are required")

// DocumentStore is the read access the server needs to stored documents.
type DocumentStore interface {
	GetDocumentByPMID(ctx context.Context, pmid string) (*core.Document, error)
	CountDocuments(ctx context.Context) (int, error)
}

// Searcher answers search and entity lookups.
type Searcher interface {
	FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error)
	EntitiesFor(ctx context.Context, pmid string, includeEmpty bool) ([]core.ReconciledEntity, error)
	DocumentsFor(ctx context.Context, word string) ([]*core.Document, error)
}

// Server serves the JSON API.
type Server struct {
	store    DocumentStore
	searcher Searcher
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a server over store and searcher.
func New(store DocumentStore, searcher Searcher, opts ...Option) (*Server, error) {
	if store == nil || searcher == nil {
		return nil, ErrDependencyRequired
	}
	s := &Server{
		store:    store,
		searcher: searcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	r.GET("/documents/:pmid", s.getDocument)
	r.GET("/documents/:pmid/entities", s.getEntities)
	r.GET("/entities/:word/documents", s.getEntityDocuments)
	r.POST("/search", s.search)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	count, err := s.store.CountDocuments(c.Request.Context())
	if err != nil {
		s.fail(c, err, "failed to count documents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": count})
}

func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.store.GetDocumentByPMID(c.Request.Context(), c.Param("pmid"))
	if err != nil {
		s.fail(c, err, "failed to load document")
		return
	}
	c.JSON(http.StatusOK, newDocumentView(doc, true))
}

func (s *Server) getEntities(c *gin.Context) {
	includeEmpty, _ := strconv.ParseBool(c.DefaultQuery("include_empty", "false"))
	entities, err := s.searcher.EntitiesFor(c.Request.Context(), c.Param("pmid"), includeEmpty)
	if err != nil {
		s.fail(c, err, "failed to load entities")
		return
	}
	views := make([]entityView, len(entities))
	for i, ent := range entities {
		views[i] = newEntityView(ent)
	}
	c.JSON(http.StatusOK, gin.H{"pmid": c.Param("pmid"), "entities": views})
}

func (s *Server) getEntityDocuments(c *gin.Context) {
	docs, err := s.searcher.DocumentsFor(c.Request.Context(), c.Param("word"))
	if err != nil {
		s.fail(c, err, "failed to find documents")
		return
	}
	views := make([]documentView, len(docs))
	for i, doc := range docs {
		views[i] = newDocumentView(doc, false)
	}
	c.JSON(http.StatusOK, gin.H{"word": c.Param("word"), "documents": views})
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.MaxHits <= 0 {
		req.MaxHits = DefaultMaxHits
	}
	req.MaxHits = min(req.MaxHits, MaxHitsLimit)

	results, err := s.searcher.FindSimilar(c.Request.Context(), req.Query, req.MaxHits)
	if err != nil {
		s.fail(c, err, "failed to search")
		return
	}
	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{documentView: newDocumentView(r.Document, false), Score: r.Score}
	}
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "results": hits})
}

// fail maps err onto a status code and writes a JSON error body.
func (s *Server) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, search.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty query"})
	default:
		s.logger.Error(msg, "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
