// Package apiclient wraps the remote patients API. The remote service owns all
// persistence; this package only moves JSON and classifies failures.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// UnknownErrorMessage is shown when a failure carries no server message.
const UnknownErrorMessage = "An unknown error occurred"

// APIError is a non-2xx response from the remote service. Message holds the
// "error" field of the structured body when the server sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: status %d", e.Status)
	}
	return fmt.Sprintf("remote api: status %d: %s", e.Status, e.Message)
}

// TransportError is a failure to reach the remote service at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ErrorMessage extracts a human readable message from err, preferring the
// server-supplied error field.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return UnknownErrorMessage
}

// IsNotFound reports whether err is a 404 from the remote service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type errorBody struct {
	Error string `json:"error"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	HTTPClient *http.Client
}

// Client issues requests against the remote patients API.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) *Client {
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryOnServerError)
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	return &Client{
		http:   rc,
		logger: logger.With().Str("component", "apiclient").Logger(),
	}
}

// Only idempotent reads are retried; a POST that reached the server must not
// be replayed.
func retryOnServerError(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= http.StatusInternalServerError
}

// Get decodes the JSON body of GET path into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errorBody{}).
		Get(path)
	return c.check("GET "+path, resp, err)
}

// Post sends body as JSON and decodes the response into out, which may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&errorBody{})
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	return c.check("POST "+path, resp, err)
}

// Ping calls the liveness endpoint of the remote service.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/ping")
	return c.check("GET /ping", resp, err)
}

func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Debug().Err(err).Str("op", op).Msg("remote call failed")
		return &TransportError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
	}
	c.logger.Debug().
		Str("op", op).
		Int("status", apiErr.Status).
		Str("error", apiErr.Message).
		Msg("remote call rejected")
	return apiErr
}
