// Package resource executes CRUD requests against the backend's named
// collections and maps its answers onto the console error taxonomy.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/config"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

// RequestIDHeader correlates console logs with backend logs
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error body is read
const maxErrorBody = 64 << 10

// Options configures a Client
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       zerolog.Logger
}

// Client talks to one backend. It holds no per-view state and is safe for concurrent use.
type Client struct {
	baseURL      *url.URL
	http         *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       zerolog.Logger
}

// NewClient creates a client for the backend at opts.BaseURL
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	return &Client{
		baseURL:      base,
		http:         httpClient,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		logger:       opts.Logger.With().Str("component", "resource-client").Logger(),
	}, nil
}

// NewClientFromConfig creates a client from the backend section of cfg
func NewClientFromConfig(cfg *config.Config, lgr zerolog.Logger) (*Client, error) {
	return NewClient(Options{
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		MaxRetries:   cfg.Backend.MaxRetries,
		RetryBackoff: cfg.Backend.RetryBackoff,
		Logger:       lgr,
	})
}

// request describes one backend call
type request struct {
	operation string
	resource  string
	method    string
	path      string
	query     url.Values
	body      interface{}
	// idempotent calls are retried on network and server errors
	idempotent bool
	id         int64
}

// GetJSON fetches an arbitrary path below the base URL, retrying like a list.
// The analytics aggregator uses it for the fixed /api/analytics endpoints.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	name := strings.TrimPrefix(path, "/api/")
	raw, err := c.do(ctx, request{
		operation:  "get",
		resource:   name,
		method:     http.MethodGet,
		path:       path,
		idempotent: true,
	})
	if err != nil {
		return err
	}
	return decode(name, raw, out)
}

func (c *Client) do(ctx context.Context, req request) (body []byte, err error) {
	start := time.Now()
	defer func() { observe(req.resource, req.operation, start, err) }()

	var payload []byte
	if req.body != nil {
		payload, err = json.Marshal(req.body)
		if err != nil {
			return nil, apperrors.NewValidationError(req.resource, fmt.Sprintf("encode payload: %v", err))
		}
	}

	attempts := 1
	if req.idempotent {
		attempts += c.maxRetries
	}

	for attempt := 1; ; attempt++ {
		body, err = c.roundTrip(ctx, req, payload)
		if err == nil || attempt >= attempts || !apperrors.IsRetryable(err) {
			return body, err
		}

		c.logger.Warn().Err(err).
			Str("resource", req.resource).
			Str("operation", req.operation).
			Int("attempt", attempt).
			Msg("Retrying backend request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryBackoff * time.Duration(attempt)):
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, req request, payload []byte) ([]byte, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewNetworkError(req.resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewNetworkError(req.resource, err)
	}

	c.logger.Debug().
		Str("requestId", requestID).
		Str("method", req.method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Msg("Backend request")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(req, resp.StatusCode, body)
}

// statusError maps a non-2xx answer onto the error taxonomy
func statusError(req request, status int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var parsed dto.ErrorResponse
	structured := json.Unmarshal(body, &parsed) == nil && (parsed.Error != nil || len(parsed.Errors) > 0)

	message := ""
	if structured && parsed.Error != nil {
		message = parsed.Error.Message
	}

	switch {
	case status == http.StatusNotFound:
		if req.id > 0 {
			return apperrors.NewNotFoundError(req.resource, req.id)
		}
		return apperrors.NewCollectionNotFoundError(req.resource)

	case status == http.StatusConflict:
		if message == "" {
			message = "record has dependents"
		}
		return apperrors.NewConflictError(req.resource, message)

	case status >= 500:
		return apperrors.NewServerError(req.resource, status, message)

	default:
		if message == "" {
			message = "request rejected with status " + strconv.Itoa(status)
		}
		verr := apperrors.NewValidationError(req.resource, message).WithStatus(status)
		if structured {
			for field, msgs := range parsed.FieldMessages() {
				for _, m := range msgs {
					verr.WithField(field, m)
				}
			}
		}
		return verr
	}
}

// decode narrows a 2xx body into out, failing with a validation error on shape mismatch
func decode(resource string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperrors.NewValidationError(resource, "unexpected response shape").
				WithField(typeErr.Field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
		}
		return apperrors.NewValidationError(resource, fmt.Sprintf("malformed response: %v", err))
	}
	return nil
}
