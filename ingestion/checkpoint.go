package ingestion

import (
	"context"
	"sync"

	"github.com/poiesic/litmine/core"
	"github.com/poiesic/litmine/storage"
)

// Checkpoint processor types.
const (
	CheckpointEntities   = "entities"
	CheckpointEmbeddings = "embeddings"
	CheckpointSummaries  = "summaries"
)

// progress remembers the last document a processor finished and saves it
// as a checkpoint. Safe for concurrent use by pool workers.
type progress struct {
	mu          sync.Mutex
	kind        string
	lastID      core.ID
	dirty       bool
	checkpoints storage.CheckpointRepository
}

func newProgress(kind string, checkpoints storage.CheckpointRepository) *progress {
	return &progress{kind: kind, checkpoints: checkpoints}
}

func (p *progress) advance(id core.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastID = id
	p.dirty = true
}

// save writes the checkpoint if anything advanced since the last save.
func (p *progress) save(ctx context.Context) error {
	if p.checkpoints == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return nil
	}
	err := p.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: p.kind,
		LastID:        p.lastID,
	})
	if err == nil {
		p.dirty = false
	}
	return err
}
