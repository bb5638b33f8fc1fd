package pubmed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/litmine/retry"
)

const (
	// DefaultBaseURL is the E-utilities endpoint.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultBatchSize is the number of ids requested per esearch page.
	DefaultBatchSize = 100

	// DefaultFetchSize is the number of records requested per efetch call.
	DefaultFetchSize = 50

	// DefaultPacing is the minimum interval between two requests.
	DefaultPacing = 300 * time.Millisecond

	defaultTool        = "litmine"
	defaultTimeout     = 60 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

var (
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrBadResponse indicates Entrez answered with an unexpected payload.
	ErrBadResponse = errors.New("unexpected entrez response")

	// ErrInvalidBatchSize is returned for non-positive page or fetch sizes.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at a different E-utilities root.
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		if _, err := url.Parse(base); err != nil {
			return err
		}
		c.baseURL = base
		return nil
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client != nil {
			c.http = client
		}
		return nil
	}
}

// WithEmail sets the contact address NCBI asks every tool to send.
func WithEmail(email string) Option {
	return func(c *Client) error {
		c.email = email
		return nil
	}
}

// WithAPIKey sets the NCBI API key, which raises the rate limit.
func WithAPIKey(key string) Option {
	return func(c *Client) error {
		c.apiKey = key
		return nil
	}
}

// WithTool sets the tool name reported to NCBI.
func WithTool(tool string) Option {
	return func(c *Client) error {
		if tool != "" {
			c.tool = tool
		}
		return nil
	}
}

// WithBatchSize sets the esearch page size.
func WithBatchSize(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return ErrInvalidBatchSize
		}
		c.batchSize = n
		return nil
	}
}

// WithFetchSize sets how many records one efetch call requests.
func WithFetchSize(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return ErrInvalidBatchSize
		}
		c.fetchSize = n
		return nil
	}
}

// WithPacing sets the minimum interval between requests. Zero disables pacing.
func WithPacing(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			d = 0
		}
		c.pacing = d
		return nil
	}
}

// WithRetry sets the attempt count and base delay for transient failures.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		c.maxAttempts = maxAttempts
		c.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// Client talks to the Entrez E-utilities. Safe for concurrent use; requests
// from all goroutines share one pacing schedule.
type Client struct {
	baseURL     string
	http        *http.Client
	tool        string
	email       string
	apiKey      string
	batchSize   int
	fetchSize   int
	pacing      time.Duration
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:     DefaultBaseURL,
		http:        &http.Client{Timeout: defaultTimeout},
		tool:        defaultTool,
		batchSize:   DefaultBatchSize,
		fetchSize:   DefaultFetchSize,
		pacing:      DefaultPacing,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "pubmed")
	return c, nil
}

// wait blocks until the pacing interval since the previous request has passed.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pacing > 0 && !c.last.IsZero() {
		if d := time.Until(c.last.Add(c.pacing)); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	c.last = time.Now()
	return nil
}

// get calls an E-utility with the common identification parameters and
// returns the response body, retrying transient failures.
func (c *Client) get(ctx context.Context, utility string, params url.Values) ([]byte, error) {
	params.Set("tool", c.tool)
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	endpoint := c.baseURL + "/" + utility + "?" + params.Encode()

	var body []byte
	err := retry.WithBackoff(ctx, func() error {
		if err := c.wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var err error
		body, err = c.do(ctx, utility, endpoint)
		return err
	}, c.maxAttempts, c.retryDelay)
	return body, err
}

func (c *Client) do(ctx context.Context, utility, endpoint string) ([]byte, error) {
	reqID := uuid.NewString()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "utility", utility, "req_id", reqID, "err", err)
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("response body close error", "req_id", reqID, "err", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("response",
		"utility", utility,
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %s returned %s", ErrBadResponse, utility, resp.Status)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}
	return raw, nil
}
