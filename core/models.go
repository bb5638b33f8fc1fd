package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored documents.
// Documents are keyed by a hash of their bibliographic identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a bibliographic record together with everything the pipeline
// derives from it.
type Document struct {
	Id        ID
	PMID      string // External bibliographic identifier
	Title     string
	Abstract  string
	Published string // Publication date as reported by the source

	// Segment1 and Segment2 hold the token-bounded slices of Abstract that
	// entity offsets refer to. Segment2 is empty for short abstracts.
	Segment1 string
	Segment2 string

	Entities    []ReconciledEntity
	ExtractedAt time.Time // Zero until entities have been written

	Summary string
	Vector  []float32 // Embedding vector for semantic search (populated by processors)

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Processed reports whether entity extraction has already run on the document.
// An empty entity list still counts as processed.
func (d *Document) Processed() bool {
	return !d.ExtractedAt.IsZero()
}

// Pending reports whether the document still needs entity extraction.
func (d *Document) Pending() bool {
	return d.Abstract != "" && !d.Processed()
}

// Text returns the reassembled segment text that entity offsets are relative to.
// Falls back to the abstract for documents that were never segmented.
func (d *Document) Text() string {
	if d.Segment1 == "" && d.Segment2 == "" {
		return d.Abstract
	}
	return d.Segment1 + d.Segment2
}

// RawDetection is one model's labeled span on one text segment.
// Start and End are character offsets.
type RawDetection struct {
	Label       string
	Text        string
	Start       int
	End         int
	Score       float64
	SourceModel string
}

// Occurrence is one reconciled physical mention of an entity, in document
// character coordinates.
type Occurrence struct {
	Start         int
	End           int
	ScoreSum      float64
	Count         int
	CombinedScore float64
	Models        []string
}

// ReconciledEntity is the deduplicated document-level record for every
// detection sharing a label and lowercased surface text.
type ReconciledEntity struct {
	EntityGroup          string
	Word                 string // Normalized text; empty when nothing survives normalization
	Occurrences          int
	OverallCombinedScore float64
	Models               []string
	Positions            []Occurrence
}

// Checkpoint records the progress of a named processor.
type Checkpoint struct {
	ProcessorType string
	LastID        ID
	UpdatedAt     time.Time
}

// SimilarityMatch represents a document match from vector similarity search.
type SimilarityMatch struct {
	DocumentId ID
	Score      float32
}

// SearchResult represents a search result with the full document and relevance score.
type SearchResult struct {
	Document *Document
	Score    float32
}
