// Package upstream fetches raw payloads from the dashboard's data sources:
// automation webhooks, the banking lookup API, the WhatsApp Business Graph
// API and the S3 history archive. Payloads are returned as raw JSON bytes;
// decoding and normalization belong to the recon package.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/recon-dashboard/internal/pkg/httpretry"
	"github.com/ignite/recon-dashboard/internal/recon"
)

// ErrMissingDocument is returned by sources that can only look up by CPF.
var ErrMissingDocument = errors.New("upstream: document (CPF) is required")

// maxPayloadBytes bounds a single upstream response body.
const maxPayloadBytes = 32 << 20

// Query narrows a fetch. Sources ignore fields they do not support.
type Query struct {
	Document string
	Campaign string
	From     time.Time
	To       time.Time
}

// CacheKey renders q as a stable cache key suffix.
func (q Query) CacheKey() string {
	parts := []string{
		"doc=" + recon.DigitsOnly(q.Document),
		"campaign=" + strings.ToLower(strings.TrimSpace(q.Campaign)),
	}
	if !q.From.IsZero() {
		parts = append(parts, "from="+q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		parts = append(parts, "to="+q.To.UTC().Format(time.RFC3339))
	}
	return strings.Join(parts, "&")
}

// values renders q as webhook parameters.
func (q Query) values() url.Values {
	v := url.Values{}
	if d := recon.DigitsOnly(q.Document); d != "" {
		v.Set("cpf", d)
	}
	if q.Campaign != "" {
		v.Set("campanha", q.Campaign)
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	return v
}

// Source fetches one raw JSON payload.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Upstream string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.Upstream, e.Status, e.Body)
}

// request is the shared request shape of the HTTP sources.
type request struct {
	method  string
	url     string
	body    any
	headers map[string]string
}

// do performs req through client and returns the body of a 2xx response.
func do(ctx context.Context, client httpretry.HTTPDoer, name string, r request) ([]byte, error) {
	var reqBody io.Reader
	if r.body != nil {
		jsonBody, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request body: %w", name, err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read response body: %w", name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Upstream: name, Status: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}
	return respBody, nil
}

func newClient(timeout time.Duration, retries int, transport http.RoundTripper) *httpretry.RetryClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return httpretry.NewRetryClient(&http.Client{Timeout: timeout, Transport: transport}, retries)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
