package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"ticketbari/internal/circuitbreaker"
	"ticketbari/internal/monitoring"
)

var logger = log.New(os.Stdout, "API-CLIENT: ", log.LstdFlags|log.Lshortfile)

// TokenSource yields the bearer token attached to authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// APIError is a non-2xx answer from the ticketing API.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Endpoint, e.Status, e.Message)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	baseURL string
	hc      *http.Client
	breaker *circuitbreaker.Breaker
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	settings := circuitbreaker.DefaultSettings("ticketing-api")
	// 4xx answers are the caller's fault, not the upstream's.
	settings.IsFailure = func(err error) bool {
		status := StatusOf(err)
		return status == 0 || status >= http.StatusInternalServerError
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		breaker: circuitbreaker.New(settings),
	}
}

type request struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	token    TokenSource
	body     any
	headers  map[string]string
}

// do sends req and decodes a 2xx JSON answer into out, which may be nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var token string
	if req.token != nil {
		t, err := req.token.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: get token: %w", req.endpoint, err)
		}
		token = t
	}

	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", req.endpoint, err)
		}
		payload = b
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	return c.breaker.Execute(ctx, func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
		if err != nil {
			return fmt.Errorf("%s: build request: %w", req.endpoint, err)
		}
		httpReq.Header.Set("Accept", "application/json")
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
		for k, v := range req.headers {
			httpReq.Header.Set(k, v)
		}

		start := time.Now()
		resp, err := c.hc.Do(httpReq)
		if err != nil {
			monitoring.TrackUpstream(req.endpoint, 0, time.Since(start))
			logger.Printf("%s %s failed: %v", req.method, req.path, err)
			return fmt.Errorf("%s: %w", req.endpoint, err)
		}
		defer resp.Body.Close()
		monitoring.TrackUpstream(req.endpoint, resp.StatusCode, time.Since(start))

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: read body: %w", req.endpoint, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &APIError{Endpoint: req.endpoint, Status: resp.StatusCode, Message: errorMessage(data, resp.Status)}
		}

		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", req.endpoint, err)
		}
		return nil
	})
}

// errorMessage pulls a readable message out of an upstream error body.
func errorMessage(body []byte, fallback string) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		return text
	}
	return fallback
}

func escape(s string) string { return url.PathEscape(s) }
