package reconcile

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/litmine/core"
)

const (
	// DefaultThreshold is the minimum detection score kept.
	DefaultThreshold = 0.61

	// DefaultTolerance is the maximum offset drift, in characters, for two
	// detections to count as the same occurrence.
	DefaultTolerance = 5
)

var (
	// ErrInvalidThreshold is returned for thresholds outside [0,1].
	ErrInvalidThreshold = errors.New("threshold must be within [0,1]")

	// ErrInvalidTolerance is returned for negative tolerances.
	ErrInvalidTolerance = errors.New("tolerance cannot be negative")
)

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithThreshold sets the minimum score a detection needs to be kept.
func WithThreshold(threshold float64) Option {
	return func(r *Reconciler) error {
		if threshold < 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		r.threshold = threshold
		return nil
	}
}

// WithTolerance sets the span tolerance in characters.
func WithTolerance(tolerance int) Option {
	return func(r *Reconciler) error {
		if tolerance < 0 {
			return ErrInvalidTolerance
		}
		r.tolerance = tolerance
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// Reconciler merges per-model detections into reconciled entities.
// It holds only configuration and is safe for concurrent use.
type Reconciler struct {
	threshold float64
	tolerance int
	logger    *slog.Logger
}

// New creates a Reconciler.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		threshold: DefaultThreshold,
		tolerance: DefaultTolerance,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "reconciler")
	return r, nil
}

// Threshold returns the configured score threshold.
func (r *Reconciler) Threshold() float64 { return r.threshold }

// Tolerance returns the configured span tolerance.
func (r *Reconciler) Tolerance() int { return r.tolerance }

type partitionKey struct {
	label string
	text  string
}

type partition struct {
	key         partitionKey
	occurrences []*core.Occurrence
}

// Reconcile merges detections, which must already be in document character
// coordinates. The result is never nil; an input with no surviving
// detections yields an empty slice.
func (r *Reconciler) Reconcile(detections []core.RawDetection) []core.ReconciledEntity {
	index := make(map[partitionKey]*partition)
	var order []*partition

	dropped := 0
	for _, det := range detections {
		if det.Score < r.threshold {
			dropped++
			continue
		}
		key := partitionKey{label: det.Label, text: strings.ToLower(det.Text)}
		p, ok := index[key]
		if !ok {
			p = &partition{key: key}
			index[key] = p
			order = append(order, p)
		}
		r.fold(p, det)
	}

	entities := make([]core.ReconciledEntity, 0, len(order))
	for _, p := range order {
		entities = append(entities, summarize(p))
	}

	r.logger.Debug("reconciled detections",
		"detections", len(detections),
		"belowThreshold", dropped,
		"entities", len(entities))
	return entities
}

// fold adds det to the first occurrence within tolerance, or starts a new one.
func (r *Reconciler) fold(p *partition, det core.RawDetection) {
	for _, occ := range p.occurrences {
		if abs(occ.Start-det.Start) <= r.tolerance && abs(occ.End-det.End) <= r.tolerance {
			occ.ScoreSum += det.Score
			occ.Count++
			occ.CombinedScore = occ.ScoreSum / float64(occ.Count)
			occ.Models = appendUnique(occ.Models, det.SourceModel)
			return
		}
	}
	p.occurrences = append(p.occurrences, &core.Occurrence{
		Start:         det.Start,
		End:           det.End,
		ScoreSum:      det.Score,
		Count:         1,
		CombinedScore: det.Score,
		Models:        []string{det.SourceModel},
	})
}

func summarize(p *partition) core.ReconciledEntity {
	positions := make([]core.Occurrence, len(p.occurrences))
	var models []string
	var sum float64
	for i, occ := range p.occurrences {
		positions[i] = *occ
		sum += occ.CombinedScore
		for _, m := range occ.Models {
			models = appendUnique(models, m)
		}
	}
	return core.ReconciledEntity{
		EntityGroup:          p.key.label,
		Word:                 NormalizeEntity(p.key.text),
		Occurrences:          len(positions),
		OverallCombinedScore: sum / float64(len(positions)),
		Models:               models,
		Positions:            positions,
	}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// NonEmptyWords filters out entities whose Word normalized to "".
func NonEmptyWords(entities []core.ReconciledEntity) []core.ReconciledEntity {
	out := make([]core.ReconciledEntity, 0, len(entities))
	for _, e := range entities {
		if e.Word != "" {
			out = append(out, e)
		}
	}
	return out
}
