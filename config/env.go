package config

import (
	"fmt"
	"strconv"
)

const envPrefix = "LITMINE_"

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from LITMINE_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"DB":               &c.Store.Path,
		"PUBMED_EMAIL":     &c.PubMed.Email,
		"PUBMED_API_KEY":   &c.PubMed.APIKey,
		"PUBMED_BASE_URL":  &c.PubMed.BaseURL,
		"QUERY_PATH":       &c.PubMed.QueryPath,
		"TOKENIZER":        &c.NER.Tokenizer,
		"AI_HOST":          &c.AI.Host,
		"EMBEDDING_HOST":   &c.AI.EmbeddingHost,
		"SUMMARIZER_HOST":  &c.AI.SummarizerHost,
		"EMBEDDING_MODEL":  &c.AI.EmbeddingModel,
		"SUMMARIZER_MODEL": &c.AI.SummarizerModel,
		"AI_TOKEN":         &c.AI.Token,
		"SERVER_ADDR":      &c.Server.Addr,
		"EXPORT_DIR":       &c.Export.Dir,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_TOKENS": &c.NER.MaxTokens,
		"TOLERANCE":  &c.NER.Tolerance,
		"POOL_SIZE":  &c.Pipeline.PoolSize,
		"BATCH_SIZE": &c.Pipeline.BatchSize,
		"LIMIT":      &c.Pipeline.Limit,
	}
	for key, dst := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, envPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := lookup(envPrefix + "THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sTHRESHOLD: %w", ErrInvalidConfig, envPrefix, err)
		}
		c.NER.Threshold = f
	}
	return nil
}
