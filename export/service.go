package export

import (
	"errors"
	"log/slog"

	"github.com/poiesic/litmine/storage"
)

// DefaultPartSize is the number of documents written to each JSON part file.
const DefaultPartSize = 1000

var (
	// ErrRepositoryRequired is returned when no document repository is given.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrInvalidPartSize is returned for a non-positive part size.
	ErrInvalidPartSize = errors.New("part size must be positive")

	// ErrNoParts is returned when no part files match a prefix.
	ErrNoParts = errors.New("no part files found")
)

// Service produces exports from a document repository.
type Service struct {
	repository storage.DocumentRepository
	logger     *slog.Logger
}

// NewService creates an export service. A nil logger uses slog.Default().
func NewService(repository storage.DocumentRepository, logger *slog.Logger) (*Service, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repository,
		logger:     logger.With("component", "export"),
	}, nil
}
