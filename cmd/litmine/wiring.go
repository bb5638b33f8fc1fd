package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/litmine"
	"github.com/poiesic/litmine/ai"
	"github.com/poiesic/litmine/config"
	"github.com/poiesic/litmine/ner"
	"github.com/poiesic/litmine/ner/hugot"
	"github.com/poiesic/litmine/ner/remote"
	"github.com/poiesic/litmine/pubmed"
	"github.com/poiesic/litmine/reconcile"
	"github.com/poiesic/litmine/segment"
	"github.com/poiesic/litmine/tokenizer"
)

var errNoModels = errors.New("no entity extraction models configured ([[ner.models]])")

func aiConfigFrom(cfg *config.Config) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithHost(cfg.AI.Host),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithSummarizerModel(cfg.AI.SummarizerModel),
		ai.WithToken(cfg.AI.Token),
		ai.WithSummaryBounds(cfg.AI.MinSummaryWords, cfg.AI.MaxSummaryWords),
	}
	if cfg.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(cfg.AI.EmbeddingHost))
	}
	if cfg.AI.SummarizerHost != "" {
		opts = append(opts, ai.WithSummarizerHost(cfg.AI.SummarizerHost))
	}
	return ai.NewConfig(opts...)
}

func openDatabase(cfg *config.Config) (*litmine.Database, error) {
	aiConfig := aiConfigFrom(cfg)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []litmine.DatabaseOption{
		litmine.WithAIConfig(aiConfig),
		litmine.WithLogger(slog.Default()),
	}
	if cfg.Store.InMemory {
		opts = append(opts, litmine.WithInMemory())
	}
	db, err := litmine.NewDatabase(cfg.Store.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func newPubMedClient(cfg *config.Config) (*pubmed.Client, error) {
	return pubmed.New(
		pubmed.WithBaseURL(cfg.PubMed.BaseURL),
		pubmed.WithEmail(cfg.PubMed.Email),
		pubmed.WithAPIKey(cfg.PubMed.APIKey),
		pubmed.WithTool(cfg.PubMed.Tool),
		pubmed.WithBatchSize(cfg.PubMed.BatchSize),
		pubmed.WithFetchSize(cfg.PubMed.FetchSize),
		pubmed.WithPacing(time.Duration(cfg.PubMed.PacingMS)*time.Millisecond),
		pubmed.WithRetry(cfg.PubMed.MaxAttempts, time.Second),
		pubmed.WithLogger(slog.Default()),
	)
}

func newSegmenter(cfg *config.Config) (*segment.Segmenter, error) {
	tok, err := tokenizer.Load(cfg.NER.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return segment.New(tok, segment.WithMaxTokens(cfg.NER.MaxTokens))
}

func newReconciler(cfg *config.Config) (*reconcile.Reconciler, error) {
	return reconcile.New(
		reconcile.WithThreshold(cfg.NER.Threshold),
		reconcile.WithTolerance(cfg.NER.Tolerance),
		reconcile.WithLogger(slog.Default()),
	)
}

// newExtractors builds one extractor per configured model, in configured
// order. The returned cleanup releases any in-process model sessions.
func newExtractors(cfg *config.Config) ([]ner.Extractor, func(), error) {
	if len(cfg.NER.Models) == 0 {
		return nil, func() {}, errNoModels
	}

	logger := slog.Default()
	var session *hugot.Session
	cleanup := func() {
		if session != nil {
			if err := session.Close(); err != nil {
				logger.Warn("error closing model session", "err", err)
			}
		}
	}

	extractors := make([]ner.Extractor, 0, len(cfg.NER.Models))
	for _, m := range cfg.NER.Models {
		var backend ner.Backend
		switch m.Kind {
		case config.ModelKindHugot:
			if session == nil {
				s, err := hugot.NewSession(logger)
				if err != nil {
					return nil, cleanup, err
				}
				session = s
			}
			b, err := session.NewBackend(m.Path, m.OnnxFile)
			if err != nil {
				return nil, cleanup, fmt.Errorf("model %s: %w", m.Name, err)
			}
			backend = b
		case config.ModelKindRemote:
			b, err := remote.New(m.URL, remote.WithToken(m.Token), remote.WithLogger(logger))
			if err != nil {
				return nil, cleanup, fmt.Errorf("model %s: %w", m.Name, err)
			}
			backend = b
		default:
			return nil, cleanup, fmt.Errorf("model %s: unknown kind %q", m.Name, m.Kind)
		}

		adapter, err := ner.NewAdapter(m.Name, backend, ner.WithLogger(logger))
		if err != nil {
			return nil, cleanup, err
		}
		extractors = append(extractors, adapter)
	}
	return extractors, cleanup, nil
}

// readQueries reads the query file at path. Queries are separated by blank
// lines; the lines of one query are joined with spaces, so a file holding a
// single multi-line boolean query yields one query. Lines starting with #
// are comments.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()

	var queries []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			queries = append(queries, strings.Join(current, " "))
			current = nil
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
		default:
			current = append(current, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return queries, nil
}
