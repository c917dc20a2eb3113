package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/pkg/httpretry"
	"github.com/ignite/recon-dashboard/internal/recon"
)

// BankingClient looks up a client's benefits by CPF.
type BankingClient struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewBankingClient creates a banking API client.
func NewBankingClient(cfg config.BankingConfig) *BankingClient {
	return &BankingClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: newClient(cfg.Timeout(), cfg.MaxRetries, nil),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *BankingClient) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// Name returns the source name.
func (c *BankingClient) Name() string { return "banking" }

// Fetch returns the benefits registered under q.Document.
func (c *BankingClient) Fetch(ctx context.Context, q Query) ([]byte, error) {
	cpf := recon.DigitsOnly(q.Document)
	if cpf == "" {
		return nil, ErrMissingDocument
	}
	return do(ctx, c.httpClient, c.Name(), request{
		method:  http.MethodGet,
		url:     c.baseURL + "/beneficios?" + url.Values{"cpf": {cpf}}.Encode(),
		headers: map[string]string{"X-API-Key": c.apiKey},
	})
}
