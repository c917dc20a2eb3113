package upstream

import (
	"context"
	"net/http"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/pkg/httpretry"
)

// WebhookSource fetches rows from an automation webhook (dispatch tracking,
// consultation history). GET webhooks receive the query as URL parameters,
// POST webhooks as a JSON object.
type WebhookSource struct {
	name       string
	url        string
	method     string
	token      string
	httpClient httpretry.HTTPDoer
}

// NewWebhookSource creates a webhook source from its configuration.
func NewWebhookSource(name string, cfg config.WebhookConfig) *WebhookSource {
	method := cfg.Method
	if method != http.MethodPost {
		method = http.MethodGet
	}
	return &WebhookSource{
		name:       name,
		url:        cfg.URL,
		method:     method,
		token:      cfg.Token,
		httpClient: newClient(cfg.Timeout(), cfg.MaxRetries, nil),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (s *WebhookSource) SetHTTPClient(client httpretry.HTTPDoer) {
	s.httpClient = client
}

// Name returns the source name.
func (s *WebhookSource) Name() string { return s.name }

// Fetch calls the webhook and returns its raw response.
func (s *WebhookSource) Fetch(ctx context.Context, q Query) ([]byte, error) {
	r := request{method: s.method, url: s.url, headers: map[string]string{}}
	if s.token != "" {
		r.headers["Authorization"] = "Bearer " + s.token
	}

	params := q.values()
	if s.method == http.MethodPost {
		body := make(map[string]string, len(params))
		for k := range params {
			body[k] = params.Get(k)
		}
		r.body = body
	} else if len(params) > 0 {
		r.url += "?" + params.Encode()
	}
	return do(ctx, s.httpClient, s.name, r)
}
