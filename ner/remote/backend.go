// Package remote calls a token-classification model served over HTTP.
//
// The endpoint receives {"inputs": "<text>"} and answers with a JSON array of
// {"entity_group", "word", "score", "start", "end"} objects, the format of
// the HuggingFace inference API with aggregation enabled. Offsets are
// character offsets.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/poiesic/litmine/ner"
	"github.com/poiesic/litmine/retry"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

var (
	// ErrEndpointRequired is returned when no URL is configured.
	ErrEndpointRequired = errors.New("endpoint URL is required")

	// ErrBadResponse indicates the endpoint answered with an unexpected payload.
	ErrBadResponse = errors.New("unexpected response")
)

// Option configures a Backend.
type Option func(*Backend)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Backend) {
		if client != nil {
			b.client = client
		}
	}
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(b *Backend) {
		b.token = token
	}
}

// WithRetry sets the attempt count and base delay for transient failures.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(b *Backend) {
		b.maxAttempts = maxAttempts
		b.retryDelay = baseDelay
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Backend is an HTTP token-classification client.
type Backend struct {
	url         string
	token       string
	client      *http.Client
	schema      *jsonschema.Schema
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

var _ ner.Backend = (*Backend)(nil)

// New creates a Backend posting to url.
func New(url string, opts ...Option) (*Backend, error) {
	if url == "" {
		return nil, ErrEndpointRequired
	}
	schema, err := compileSchema(responseSchema())
	if err != nil {
		return nil, err
	}
	b := &Backend{
		url:         url,
		client:      &http.Client{Timeout: defaultTimeout},
		schema:      schema,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "remote-ner", "url", url)
	return b, nil
}

type request struct {
	Inputs string `json:"inputs"`
}

type entity struct {
	EntityGroup *string  `json:"entity_group"`
	Entity      *string  `json:"entity"`
	Word        *string  `json:"word"`
	Score       *float64 `json:"score"`
	Start       *int     `json:"start"`
	End         *int     `json:"end"`
}

// Predict posts text to the endpoint.
func (b *Backend) Predict(ctx context.Context, text string) ([]ner.Entity, error) {
	body, err := json.Marshal(request{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	var raw []byte
	err = retry.WithBackoff(ctx, func() error {
		raw, err = b.send(ctx, body)
		return err
	}, b.maxAttempts, b.retryDelay)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if err := b.schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: json does not match schema: %w", ErrBadResponse, err)
	}

	var decoded []entity
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	out := make([]ner.Entity, len(decoded))
	for i, e := range decoded {
		label := e.EntityGroup
		if label == nil {
			label = e.Entity
		}
		out[i] = ner.Entity{Label: label, Word: e.Word, Start: e.Start, End: e.End, Score: e.Score}
	}
	return out, nil
}

func (b *Backend) send(ctx context.Context, body []byte) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Warn("request failed", "req_id", reqID, "error", err)
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			b.logger.Warn("response body close error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode/100 == 2:
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5:
		return nil, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	default:
		return nil, retry.Permanent(fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode))
	}
}
