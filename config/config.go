// Package config loads litmine settings from a TOML file, an optional .env
// file and LITMINE_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Model backend kinds.
const (
	ModelKindHugot  = "hugot"
	ModelKindRemote = "remote"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type StoreConfig struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

type PubMedConfig struct {
	BaseURL     string `toml:"base_url"`
	Email       string `toml:"email"`
	APIKey      string `toml:"api_key"`
	Tool        string `toml:"tool"`
	QueryPath   string `toml:"query_path"`
	BatchSize   int    `toml:"batch_size"`
	FetchSize   int    `toml:"fetch_size"`
	PacingMS    int    `toml:"pacing_ms"`
	MaxAttempts int    `toml:"max_attempts"`
}

// ModelConfig names one entity extraction model. Hugot models load an ONNX
// export from Path; remote models are called at URL.
type ModelConfig struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Path     string `toml:"path"`
	OnnxFile string `toml:"onnx_file"`
	URL      string `toml:"url"`
	Token    string `toml:"token"`
}

type NERConfig struct {
	Tokenizer string        `toml:"tokenizer"`
	MaxTokens int           `toml:"max_tokens"`
	Threshold float64       `toml:"threshold"`
	Tolerance int           `toml:"tolerance"`
	Models    []ModelConfig `toml:"models"`
}

type AIConfig struct {
	Host            string `toml:"host"`
	EmbeddingHost   string `toml:"embedding_host"`
	SummarizerHost  string `toml:"summarizer_host"`
	EmbeddingModel  string `toml:"embedding_model"`
	SummarizerModel string `toml:"summarizer_model"`
	Token           string `toml:"token"`
	MinSummaryWords int    `toml:"min_summary_words"`
	MaxSummaryWords int    `toml:"max_summary_words"`
}

type PipelineConfig struct {
	PoolSize  int `toml:"pool_size"`
	BatchSize int `toml:"batch_size"`
	Limit     int `toml:"limit"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type ExportConfig struct {
	Dir      string `toml:"dir"`
	Prefix   string `toml:"prefix"`
	PartSize int    `toml:"part_size"`
}

type Config struct {
	Store    StoreConfig    `toml:"store"`
	PubMed   PubMedConfig   `toml:"pubmed"`
	NER      NERConfig      `toml:"ner"`
	AI       AIConfig       `toml:"ai"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Server   ServerConfig   `toml:"server"`
	Export   ExportConfig   `toml:"export"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Path: "litmine.db"},
		PubMed: PubMedConfig{
			BaseURL:     "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Tool:        "litmine",
			QueryPath:   "queries.txt",
			BatchSize:   100,
			FetchSize:   50,
			PacingMS:    300,
			MaxAttempts: 3,
		},
		NER: NERConfig{
			Tokenizer: "models/tokenizer.json",
			MaxTokens: 512,
			Threshold: 0.61,
			Tolerance: 5,
		},
		AI: AIConfig{
			Host:            "http://localhost:11434/v1",
			EmbeddingModel:  "embeddinggemma",
			SummarizerModel: "qwen2.5:3b",
			Token:           "none",
			MinSummaryWords: 30,
			MaxSummaryWords: 80,
		},
		Pipeline: PipelineConfig{
			PoolSize:  max(1, runtime.NumCPU()/2),
			BatchSize: 32,
		},
		Server: ServerConfig{Addr: ":8080"},
		Export: ExportConfig{
			Dir:      "exports",
			Prefix:   "abstracts",
			PartSize: 1000,
		},
	}
}

// Load reads the TOML file at path over the defaults, then applies a .env
// file from the working directory (if present) and LITMINE_* environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	// godotenv never overwrites variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and model definitions.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Store.InMemory || c.Store.Path != "", "store.path is required")
	check(c.PubMed.BatchSize > 0, "pubmed.batch_size must be positive")
	check(c.PubMed.FetchSize > 0, "pubmed.fetch_size must be positive")
	check(c.PubMed.PacingMS >= 0, "pubmed.pacing_ms must not be negative")
	check(c.PubMed.MaxAttempts > 0, "pubmed.max_attempts must be positive")
	check(c.NER.MaxTokens >= 2, "ner.max_tokens must be at least 2")
	check(c.NER.Threshold >= 0 && c.NER.Threshold <= 1, "ner.threshold must be in [0, 1]")
	check(c.NER.Tolerance >= 0, "ner.tolerance must not be negative")
	check(c.Pipeline.PoolSize > 0, "pipeline.pool_size must be positive")
	check(c.Pipeline.BatchSize > 0, "pipeline.batch_size must be positive")
	check(c.Pipeline.Limit >= 0, "pipeline.limit must not be negative")
	check(c.Export.PartSize > 0, "export.part_size must be positive")

	seen := make(map[string]bool)
	for i, m := range c.NER.Models {
		check(m.Name != "", "ner.models[%d].name is required", i)
		check(!seen[m.Name], "ner.models[%d]: duplicate name %q", i, m.Name)
		seen[m.Name] = true
		switch m.Kind {
		case ModelKindHugot:
			check(m.Path != "", "ner.models[%d].path is required for hugot models", i)
		case ModelKindRemote:
			check(m.URL != "", "ner.models[%d].url is required for remote models", i)
		default:
			check(false, "ner.models[%d].kind must be %q or %q, got %q", i, ModelKindHugot, ModelKindRemote, m.Kind)
		}
	}

	return errors.Join(errs...)
}
