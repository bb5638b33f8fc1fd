package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/litmine/core"
)

// PartPath returns the path of part n (1-based) for prefix inside dir.
func PartPath(dir, prefix string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_part%d.json", prefix, n))
}

// WriteJSONParts writes every stored document to dir as JSON arrays of at
// most partSize documents each, named <prefix>_part<N>.json with N starting
// at 1. The directory is created if needed. Returns the written paths.
func (s *Service) WriteJSONParts(ctx context.Context, dir, prefix string, partSize int) ([]string, error) {
	if partSize <= 0 {
		return nil, ErrInvalidPartSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	var paths []string
	batch := make([]documentRecord, 0, partSize)
	flush := func() error {
		path := PartPath(dir, prefix, len(paths)+1)
		if err := writePart(path, batch); err != nil {
			return err
		}
		s.logger.Info("wrote export part", "path", path, "documents", len(batch))
		paths = append(paths, path)
		batch = batch[:0]
		return nil
	}

	err := s.repository.ListDocuments(ctx, func(doc *core.Document) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, toRecord(doc))
		if len(batch) == partSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return paths, err
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func writePart(path string, batch []documentRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(batch); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// ReadJSONParts loads every <prefix>_part<N>.json file in dir, in part
// order, and returns the documents they hold. Documents carrying an entity
// list come back marked as processed.
func ReadJSONParts(dir, prefix string) ([]*core.Document, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_part*.json"))
	if err != nil {
		return nil, err
	}

	type part struct {
		n    int
		path string
	}
	parts := make([]part, 0, len(matches))
	for _, path := range matches {
		base := strings.TrimSuffix(filepath.Base(path), ".json")
		n, err := strconv.Atoi(strings.TrimPrefix(base, prefix+"_part"))
		if err != nil {
			continue
		}
		parts = append(parts, part{n: n, path: path})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoParts, filepath.Join(dir, prefix+"_part*.json"))
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	var docs []*core.Document
	for _, p := range parts {
		data, err := os.ReadFile(p.path)
		if err != nil {
			return nil, err
		}
		var records []documentRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p.path, err)
		}
		for _, rec := range records {
			if rec.PMID == "" {
				continue
			}
			docs = append(docs, fromRecord(rec))
		}
	}
	return docs, nil
}
