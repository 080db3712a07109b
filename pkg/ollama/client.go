// Package ollama talks to an Ollama server over its HTTP API for embeddings
// and chat completions.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/WessleyAI/cocktails/pkg/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Option configures a client.
type Option func(*base)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) { b.client = c }
}

// WithLimiter throttles outgoing requests. Calls block until a token is free.
func WithLimiter(l *resilience.Limiter) Option {
	return func(b *base) { b.limiter = l }
}

type base struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *resilience.Limiter
}

func newBase(baseURL, model string, opts []Option) base {
	b := base{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama %s: status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("ollama %s: status %d: %s", e.Path, e.Status, e.Body)
}

// Permanent reports whether retrying cannot succeed: a 4xx other than 429.
// Transport failures are not StatusErrors and stay retryable.
func (e *StatusError) Permanent() bool {
	return e.Status != http.StatusTooManyRequests && e.Status < 500
}

func (b *base) post(ctx context.Context, path string, in, out any) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("ollama %s: %w", path, err)
		}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ollama %s: encode: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama %s decode: %w", path, err)
	}
	return nil
}
