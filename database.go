// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package litmine

import (
	"io"
	"log/slog"

	"github.com/poiesic/litmine/ai"
	"github.com/poiesic/litmine/ai/openai"
	"github.com/poiesic/litmine/export"
	"github.com/poiesic/litmine/ingestion"
	"github.com/poiesic/litmine/ner"
	"github.com/poiesic/litmine/reembed"
	"github.com/poiesic/litmine/search"
	"github.com/poiesic/litmine/server"
	"github.com/poiesic/litmine/storage"
	"github.com/poiesic/litmine/storage/badger"
)

// Database bundles the document store with the AI provider and hands out
// the components that operate on it.
type Database struct {
	backend        *badger.Backend
	docRepo        storage.DocumentRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the configuration for the default OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready-made AI provider instead of building one.
// The database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the store in memory. The file path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens (or creates) the store at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory, options.logger)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		docRepo:        badger.NewDocumentRepository(backend),
		checkpointRepo: badger.NewCheckpointRepository(backend),
		provider:       provider,
		logger:         options.logger,
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewPipeline builds an extraction pipeline over the store. Checkpoints and
// the AI provider are wired in ahead of opts.
func (db *Database) NewPipeline(segmenter ingestion.Segmenter, extractors []ner.Extractor, reconciler ingestion.Reconciler, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithCheckpoints(db.checkpointRepo),
		ingestion.WithProvider(db.provider),
		ingestion.WithLogger(db.logger),
	}
	return ingestion.NewPipeline(db.docRepo, segmenter, extractors, reconciler, append(base, opts...)...)
}

// NewEnricher builds a pipeline that only embeds and summarizes.
func (db *Database) NewEnricher(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithCheckpoints(db.checkpointRepo),
		ingestion.WithLogger(db.logger),
	}
	return ingestion.NewEnricher(db.docRepo, db.provider, append(base, opts...)...)
}

func (db *Database) NewImporter(source ingestion.Source) (*ingestion.Importer, error) {
	return ingestion.NewImporter(source, db.docRepo, db.logger)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.docRepo, db.provider.Embedder(), append([]search.Option{search.WithLogger(db.logger)}, opts...)...)
}

func (db *Database) NewExporter() (*export.Service, error) {
	return export.NewService(db.docRepo, db.logger)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.docRepo, db.provider.Embedder(), config, progress)
}

// NewServer builds the HTTP API over the store and a default searcher.
func (db *Database) NewServer(opts ...search.Option) (*server.Server, error) {
	searcher, err := db.NewSearcher(opts...)
	if err != nil {
		return nil, err
	}
	return server.New(db.docRepo, searcher, server.WithLogger(db.logger))
}

// IsClosed reports whether Close has been called.
func (db *Database) IsClosed() bool {
	return db.backend.IsClosed()
}
