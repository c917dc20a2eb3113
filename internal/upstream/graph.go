package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/pkg/httpretry"
	"github.com/ignite/recon-dashboard/internal/pkg/logger"
)

// phoneFields are requested for every phone number.
const phoneFields = "id,display_phone_number,verified_name,status,quality_rating," +
	"messaging_limit_tier,code_verification_status,name_status,last_onboarded_time"

// GraphClient lists the phone numbers of the configured WhatsApp Business
// Accounts (WABAs) and annotates each with its owning Business Manager.
type GraphClient struct {
	baseURL    string
	version    string
	wabaIDs    []string
	pageLimit  int
	maxPages   int
	httpClient httpretry.HTTPDoer
}

// NewGraphClient creates a Graph API client authenticating every request
// with the configured access token.
func NewGraphClient(cfg config.GraphConfig) *GraphClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	transport := &oauth2.Transport{Source: ts, Base: http.DefaultTransport}
	return &GraphClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		version:    cfg.Version,
		wabaIDs:    cfg.WABAIDs,
		pageLimit:  cfg.PageLimit,
		maxPages:   cfg.MaxPages,
		httpClient: newClient(cfg.Timeout(), cfg.MaxRetries, transport),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *GraphClient) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// Name returns the source name.
func (c *GraphClient) Name() string { return "graph" }

type graphPage struct {
	Data   []map[string]any `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type wabaInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"owner_business_info"`
}

type businessInfo struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	VerificationStatus string `json:"verification_status"`
}

// Fetch returns every phone number of every WABA as one {"data": [...]}
// payload. A failing WABA is logged and skipped; Fetch fails only when all
// of them fail.
func (c *GraphClient) Fetch(ctx context.Context, _ Query) ([]byte, error) {
	results := make([][]map[string]any, len(c.wabaIDs))
	errs := make([]error, len(c.wabaIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range c.wabaIDs {
		g.Go(func() error {
			rows, err := c.fetchWABA(gctx, id)
			if err != nil {
				logger.Warn("graph: WABA fetch failed", "waba_id", id, "error", err)
				errs[i] = err
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	phones := make([]map[string]any, 0)
	failed := 0
	for i := range c.wabaIDs {
		if errs[i] != nil {
			failed++
			continue
		}
		phones = append(phones, results[i]...)
	}
	if len(c.wabaIDs) > 0 && failed == len(c.wabaIDs) {
		return nil, fmt.Errorf("graph: all %d WABAs failed: %w", failed, errors.Join(errs...))
	}

	data, err := json.Marshal(map[string]any{"data": phones})
	if err != nil {
		return nil, fmt.Errorf("graph: marshal phones: %w", err)
	}
	return data, nil
}

func (c *GraphClient) fetchWABA(ctx context.Context, wabaID string) ([]map[string]any, error) {
	var info wabaInfo
	if err := c.getJSON(ctx, c.endpoint(wabaID, url.Values{"fields": {"id,name,owner_business_info"}}), &info); err != nil {
		// Phones are still useful without their BM.
		logger.Warn("graph: WABA info unavailable", "waba_id", wabaID, "error", err)
	}
	var bm businessInfo
	if info.Owner.ID != "" {
		if err := c.getJSON(ctx, c.endpoint(info.Owner.ID, url.Values{"fields": {"id,name,verification_status"}}), &bm); err != nil {
			logger.Warn("graph: business info unavailable", "bm_id", info.Owner.ID, "error", err)
		}
	}

	next := c.endpoint(wabaID+"/phone_numbers", url.Values{
		"fields": {phoneFields},
		"limit":  {strconv.Itoa(c.pageLimit)},
	})
	var phones []map[string]any
	for page := 0; next != "" && page < c.maxPages; page++ {
		var p graphPage
		if err := c.getJSON(ctx, next, &p); err != nil {
			return nil, fmt.Errorf("phone numbers page %d: %w", page+1, err)
		}
		for _, row := range p.Data {
			annotate(row, "waba_id", wabaID)
			annotate(row, "waba_name", info.Name)
			annotate(row, "bm_id", info.Owner.ID)
			annotate(row, "bm_name", firstNonEmpty(bm.Name, info.Owner.Name))
			annotate(row, "business_verification_status", bm.VerificationStatus)
			phones = append(phones, row)
		}
		next = p.Paging.Next
		// The token travels with every request; never follow links off the API host.
		if next != "" && !strings.HasPrefix(next, c.baseURL+"/") {
			logger.Warn("graph: ignoring off-host paging link", "waba_id", wabaID)
			next = ""
		}
	}
	return phones, nil
}

func (c *GraphClient) endpoint(path string, q url.Values) string {
	u := c.baseURL + "/" + c.version + "/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *GraphClient) getJSON(ctx context.Context, u string, dst any) error {
	body, err := do(ctx, c.httpClient, c.Name(), request{method: http.MethodGet, url: u})
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("graph: parse response: %w", err)
	}
	return nil
}

// annotate sets key on row unless the row already carries it or v is empty.
func annotate(row map[string]any, key, v string) {
	if v == "" {
		return
	}
	if _, ok := row[key]; !ok {
		row[key] = v
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
