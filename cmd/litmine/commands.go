package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/litmine/export"
	"github.com/poiesic/litmine/ingestion"
	"github.com/poiesic/litmine/reembed"
	"github.com/poiesic/litmine/search"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "fetch",
			Usage:  "Search the bibliographic source and store matching abstracts",
			Action: fetchCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "query-file",
					Aliases: []string{"q"},
					Usage:   "File of queries separated by blank lines (defaults to pubmed.query_path)",
				},
				&cli.StringSliceFlag{
					Name:  "query",
					Usage: "Query to run; repeatable, replaces the query file",
				},
			},
		},
		{
			Name:   "load",
			Usage:  "Load documents from exported JSON part files",
			Action: loadCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "dir",
					Usage:    "Directory holding <prefix>_part<N>.json files",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "prefix",
					Usage: "Part file prefix (defaults to export.prefix)",
				},
			},
		},
		{
			Name:   "ner",
			Usage:  "Extract and reconcile entities for every pending document",
			Action: nerCommand,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Usage: "Process at most N pending documents (0 for all)",
				},
				&cli.IntFlag{
					Name:  "pool-size",
					Usage: "Number of documents processed concurrently (defaults to pipeline.pool_size)",
				},
			},
		},
		{
			Name:   "embed",
			Usage:  "Embed processed documents that have no vector yet",
			Action: embedCommand,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "batch-size",
					Usage: "Number of documents per embedding call (defaults to pipeline.batch_size)",
				},
			},
		},
		{
			Name:   "summarize",
			Usage:  "Summarize processed documents that have no summary yet",
			Action: summarizeCommand,
		},
		{
			Name:   "reembed",
			Usage:  "Reembed all documents with the configured embedding model",
			Action: reembedCommand,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "batch-size",
					Usage: "Number of documents to process in each batch",
					Value: 100,
				},
				&cli.IntFlag{
					Name:  "report-interval",
					Usage: "Report progress every N documents",
					Value: 100,
				},
				&cli.IntFlag{
					Name:  "max-retries",
					Usage: "Maximum retry attempts for failed operations",
					Value: 3,
				},
				&cli.DurationFlag{
					Name:  "retry-delay",
					Usage: "Base delay for exponential backoff",
					Value: 1 * time.Second,
				},
			},
		},
		{
			Name:      "search",
			Usage:     "Hybrid semantic and entity search over stored documents",
			ArgsUsage: "<query>",
			Action:    searchCommand,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "max-hits",
					Aliases: []string{"n"},
					Usage:   "Maximum number of results",
					Value:   5,
				},
				&cli.BoolFlag{
					Name:    "verbose",
					Aliases: []string{"v"},
					Usage:   "Trace each search stage on stderr",
				},
			},
		},
		{
			Name:      "entities",
			Usage:     "Show the reconciled entities of a document",
			ArgsUsage: "<pmid>",
			Action:    entitiesCommand,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "include-empty",
					Usage: "Include entities whose text normalized to nothing",
				},
			},
		},
		{
			Name:   "export",
			Usage:  "Export documents as JSON part files or entities as XLSX",
			Action: exportCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Usage: "json or xlsx",
					Value: "json",
				},
				&cli.StringFlag{
					Name:  "dir",
					Usage: "Output directory (defaults to export.dir)",
				},
				&cli.StringFlag{
					Name:  "prefix",
					Usage: "Output file prefix (defaults to export.prefix)",
				},
				&cli.IntFlag{
					Name:  "part-size",
					Usage: "Documents per JSON part (defaults to export.part_size)",
				},
				&cli.BoolFlag{
					Name:  "include-empty",
					Usage: "XLSX only: include entities whose text normalized to nothing",
				},
			},
		},
		{
			Name:   "serve",
			Usage:  "Serve the JSON HTTP API",
			Action: serveCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "addr",
					Usage: "Listen address (defaults to server.addr)",
				},
			},
		},
	}
}

func fetchCommand(c *cli.Context) error {
	cfg := loadedConfig(c)

	queries := c.StringSlice("query")
	if len(queries) == 0 {
		path := c.String("query-file")
		if path == "" {
			path = cfg.PubMed.QueryPath
		}
		var err error
		queries, err = readQueries(path)
		if err != nil {
			return err
		}
	}
	if len(queries) == 0 {
		return fmt.Errorf("no queries to run")
	}

	client, err := newPubMedClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create source client: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	importer, err := db.NewImporter(client)
	if err != nil {
		return err
	}
	stats, err := importer.ImportAll(c.Context, queries)
	fmt.Fprintf(c.App.Writer, "Found %d, fetched %d, stored %d (%d pending extraction)\n",
		stats.Found, stats.Fetched, stats.Stored, stats.Pending)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	return nil
}

func loadCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	prefix := c.String("prefix")
	if prefix == "" {
		prefix = cfg.Export.Prefix
	}

	docs, err := export.ReadJSONParts(c.String("dir"), prefix)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := db.DocumentRepository().UpsertDocuments(c.Context, docs...)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Loaded %d documents\n", len(stored))
	return nil
}

func nerCommand(c *cli.Context) error {
	cfg := loadedConfig(c)

	segmenter, err := newSegmenter(cfg)
	if err != nil {
		return err
	}
	extractors, cleanup, err := newExtractors(cfg)
	defer cleanup()
	if err != nil {
		return err
	}
	reconciler, err := newReconciler(cfg)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	poolSize := cfg.Pipeline.PoolSize
	if c.IsSet("pool-size") {
		poolSize = c.Int("pool-size")
	}
	limit := cfg.Pipeline.Limit
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}

	pipeline, err := db.NewPipeline(segmenter, extractors, reconciler,
		ingestion.WithPoolSize(poolSize),
		ingestion.WithLimit(limit))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	stats, err := pipeline.Run(c.Context)
	fmt.Fprintf(c.App.Writer, "Run %s: %d pending, %d processed, %d skipped, %d failed, %d entities in %s\n",
		stats.RunID, stats.Pending, stats.Processed, stats.Skipped, stats.Failed, stats.Entities,
		stats.Duration.Round(time.Millisecond))
	if err != nil {
		return fmt.Errorf("entity extraction failed: %w", err)
	}
	return nil
}

func embedCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	batchSize := cfg.Pipeline.BatchSize
	if c.IsSet("batch-size") {
		batchSize = c.Int("batch-size")
	}
	return enrichCommand(c, "embedded", func(p *ingestion.Pipeline) (int, error) {
		return p.Embed(c.Context)
	}, ingestion.WithBatchSize(batchSize))
}

func summarizeCommand(c *cli.Context) error {
	return enrichCommand(c, "summarized", func(p *ingestion.Pipeline) (int, error) {
		return p.Summarize(c.Context)
	})
}

func enrichCommand(c *cli.Context, verb string, run func(*ingestion.Pipeline) (int, error), opts ...ingestion.Option) error {
	cfg := loadedConfig(c)
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	opts = append([]ingestion.Option{ingestion.WithPoolSize(cfg.Pipeline.PoolSize)}, opts...)
	enricher, err := db.NewEnricher(opts...)
	if err != nil {
		return err
	}
	defer enricher.Release()

	count, err := run(enricher)
	fmt.Fprintf(c.App.Writer, "%s %d documents\n", strings.ToUpper(verb[:1])+verb[1:], count)
	return err
}

func reembedCommand(c *cli.Context) error {
	cfg := loadedConfig(c)

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	aiConfig := aiConfigFrom(cfg)
	aiConfig.Normalize()
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Store.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := db.NewReembedder(reembedConfig, c.App.ErrWriter).Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	db, err := openDatabase(loadedConfig(c))
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	var monitor search.SearchMonitor
	if c.Bool("verbose") {
		monitor = newTraceMonitor(c.App.ErrWriter)
	}
	results, err := searcher.FindSimilarWithMonitor(c.Context, query, c.Int("max-hits"), monitor)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: [%s] %s (%s)[%0.3f]\n",
			i, hit.Document.PMID, hit.Document.Title, hit.Document.Published, hit.Score)
	}
	return nil
}

func entitiesCommand(c *cli.Context) error {
	pmid := c.Args().First()
	if pmid == "" {
		return fmt.Errorf("a pmid is required")
	}

	db, err := openDatabase(loadedConfig(c))
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	entities, err := searcher.EntitiesFor(c.Context, pmid, c.Bool("include-empty"))
	if err != nil {
		return fmt.Errorf("document %s: %w", pmid, err)
	}

	for _, ent := range entities {
		word := ent.Word
		if word == "" {
			word = "<none>"
		}
		fmt.Fprintf(c.App.Writer, "%-12s %-40s x%-3d %.3f  %s\n",
			ent.EntityGroup, word, ent.Occurrences, ent.OverallCombinedScore, strings.Join(ent.Models, ","))
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	dir := c.String("dir")
	if dir == "" {
		dir = cfg.Export.Dir
	}
	prefix := c.String("prefix")
	if prefix == "" {
		prefix = cfg.Export.Prefix
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter, err := db.NewExporter()
	if err != nil {
		return err
	}

	switch strings.ToLower(c.String("format")) {
	case "json":
		partSize := cfg.Export.PartSize
		if c.IsSet("part-size") {
			partSize = c.Int("part-size")
		}
		paths, err := exporter.WriteJSONParts(c.Context, dir, prefix, partSize)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Wrote %d part files to %s\n", len(paths), dir)
	case "xlsx":
		data, err := exporter.EntitiesXLSX(c.Context, c.Bool("include-empty"))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, prefix+"_entities.xlsx")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	default:
		return fmt.Errorf("unknown export format %q: must be json or xlsx", c.String("format"))
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	addr := c.String("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if !strings.EqualFold(c.String("log-level"), "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := db.NewServer()
	if err != nil {
		return err
	}
	return srv.Run(c.Context, addr)
}
