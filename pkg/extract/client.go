// ABOUTME: HTTP client for the assignment extraction service
// ABOUTME: Posts raw text and decodes candidate assignments behind a circuit breaker

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Assignment is one item of an extraction response. DueTime is empty when
// the service found no time of day.
type Assignment struct {
	Name    string `json:"name"`
	DueDate string `json:"due_date"`
	DueTime string `json:"due_time,omitempty"`
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	Assignments []Assignment `json:"assignments"`
}

// Options configures a Client.
type Options struct {
	URL     string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	// MaxFailures consecutive failures open the breaker. Zero means 5.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open. Zero means 30s.
	OpenTimeout time.Duration
	Logger      *zap.Logger
}

// Client calls the extraction endpoint. A call is never retried.
type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]Assignment]
	logger  *zap.Logger
}

// NewClient creates an extraction client
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]Assignment](gobreaker.Settings{
		Name:    "extraction",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("extraction breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		url:     opts.URL,
		http:    httpClient,
		breaker: breaker,
		logger:  logger,
	}
}

// Extract submits text and returns the raw assignments. Every failure,
// including an open breaker, is an ExtractionServiceFailure.
func (c *Client) Extract(ctx context.Context, text string) ([]Assignment, error) {
	out, err := c.breaker.Execute(func() ([]Assignment, error) {
		return c.post(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperr.Wrap(apperr.ExtractionServiceFailure, "extract", err)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, text string) ([]Assignment, error) {
	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return nil, fmt.Errorf("unable to encode extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.ExtractionServiceFailure, "extract", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExtractionServiceFailure, "extract", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("extraction service rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return nil, apperr.New(apperr.ExtractionServiceFailure, "extract",
			fmt.Sprintf("extraction service returned %d", resp.StatusCode))
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperr.Wrap(apperr.ExtractionServiceFailure, "extract", fmt.Errorf("unable to decode response: %w", err))
	}

	return decoded.Assignments, nil
}
