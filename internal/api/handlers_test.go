package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/pkg/httputil"
	"github.com/ignite/recon-dashboard/internal/screens"
	"github.com/ignite/recon-dashboard/internal/upstream"
)

type staticSource struct {
	payload string
	err     error
	last    upstream.Query
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Fetch(ctx context.Context, q upstream.Query) ([]byte, error) {
	s.last = q
	return []byte(s.payload), s.err
}

// stubService fails every screen with err.
type stubService struct{ err error }

func (s stubService) Benefits(context.Context, string) (*screens.Snapshot, error) { return nil, s.err }
func (s stubService) Dispatches(context.Context, string) (*screens.Snapshot, error) { return nil, s.err }
func (s stubService) Campaigns(context.Context) (*screens.Snapshot, error) { return nil, s.err }
func (s stubService) Channels(context.Context) (*screens.Snapshot, error) { return nil, s.err }
func (s stubService) BusinessManagers(context.Context) (*screens.Snapshot, error) { return nil, s.err }
func (s stubService) History(context.Context, string) (*screens.Snapshot, error) { return nil, s.err }
func (s stubService) Reconcile(string, []byte) (*screens.Snapshot, error) { return nil, s.err }

func testConfig() config.ServerConfig {
	return config.ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestDispatchScreen(t *testing.T) {
	src := &staticSource{payload: `{"data":[
		{"telefone":"5511999990000","campanha":"Natal","template":"promo","status":"pendente","updated_at":"2024-01-15T10:00:05Z"},
		{"phone":"5511999990000","campaign":"Natal","template":"promo","status":"enviado","updated_at":"2024-01-15T10:02:00Z"},
		{"telefone":"5511888880000","campanha":"Natal","status":"enviado"}
	]}`}
	svc := screens.NewService(screens.Sources{Dispatches: src}, nil)
	srv := NewServer(testConfig(), svc, nil)

	out := decodeSnapshot(t, do(t, srv.Handler(), http.MethodGet, "/api/dispatches?campaign=natal", ""))
	assert.Equal(t, "dispatch", out["entity"])
	assert.EqualValues(t, 3, out["input"])
	assert.Len(t, out["records"], 2)
	assert.Equal(t, "natal", src.last.Campaign)

	rollups, ok := out["rollups"].([]any)
	require.True(t, ok)
	assert.Len(t, rollups, 1, "the Natal rollup named by the query is merged with the observed one")
	first := rollups[0].(map[string]any)
	assert.Equal(t, "Natal", first["group"])
}

func TestCampaignsScreen(t *testing.T) {
	src := &staticSource{payload: `[{"telefone":"1","campanha":"a","template":"t","status":"enviado"}]`}
	srv := NewServer(testConfig(), screens.NewService(screens.Sources{Dispatches: src}, nil), nil)

	out := decodeSnapshot(t, do(t, srv.Handler(), http.MethodGet, "/api/dispatches/campaigns", ""))
	assert.Empty(t, out["records"])
	assert.Len(t, out["rollups"], 1)
}

func TestChannelScreens(t *testing.T) {
	src := &staticSource{payload: `{"data":[
		{"id":"1","verified_name":"Vendas","status":"CONNECTED","messaging_limit_tier":"TIER_50","bm_id":"77"},
		{"id":"2","verified_name":"Vendas","status":"CONNECTED","messaging_limit_tier":"TIER_50","bm_id":"77"}
	]}`}
	srv := NewServer(testConfig(), screens.NewService(screens.Sources{Channels: src}, nil), nil)

	out := decodeSnapshot(t, do(t, srv.Handler(), http.MethodGet, "/api/channels", ""))
	rollups := out["rollups"].([]any)
	require.Len(t, rollups, 1)
	vendas := rollups[0].(map[string]any)
	assert.EqualValues(t, 1, vendas["capacity"])
	assert.Equal(t, true, vendas["overflow"])

	out = decodeSnapshot(t, do(t, srv.Handler(), http.MethodGet, "/api/channels/bms", ""))
	bms := out["rollups"].([]any)
	require.Len(t, bms, 1)
	assert.Equal(t, "77", bms[0].(map[string]any)["group"])
}

func TestBenefitsRequiresCPF(t *testing.T) {
	src := &staticSource{payload: `[]`}
	srv := NewServer(testConfig(), screens.NewService(screens.Sources{Benefits: src}, nil), nil)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/benefits", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	out := decodeSnapshot(t, do(t, srv.Handler(), http.MethodGet, "/api/benefits?cpf=123.456.789-09", ""))
	assert.Equal(t, "benefit", out["entity"])
	assert.Equal(t, "123.456.789-09", src.last.Document)
}

func TestHistoryScreenFiltersByCPF(t *testing.T) {
	src := &staticSource{payload: `[
		{"nome":"Ana","cpf":"111.222.333-44","data_consulta":"2024-01-15 10:00"},
		{"nome":"Bia","cpf":"55566677788","data_consulta":"2024-01-15 11:00"}
	]`}
	srv := NewServer(testConfig(), screens.NewService(screens.Sources{History: src}, nil), nil)

	out := decodeSnapshot(t, do(t, srv.Handler(), http.MethodGet, "/api/history?cpf=11122233344", ""))
	assert.Len(t, out["records"], 1)

	out = decodeSnapshot(t, do(t, srv.Handler(), http.MethodGet, "/api/history", ""))
	assert.Len(t, out["records"], 2)
}

func TestPostReconcile(t *testing.T) {
	srv := NewServer(testConfig(), screens.NewService(screens.Sources{}, nil), nil)

	body := `[{"telefone":"1","campanha":"a","template":null,"status":"enviado"}]`
	out := decodeSnapshot(t, do(t, srv.Handler(), http.MethodPost, "/api/reconcile/dispatch", body))
	records := out["records"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, "no_template", records[0].(map[string]any)["sendStatus"])

	rec := do(t, srv.Handler(), http.MethodPost, "/api/reconcile/orders", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	out = decodeSnapshot(t, do(t, srv.Handler(), http.MethodPost, "/api/reconcile/history", "not json"))
	assert.EqualValues(t, 0, out["input"])
	assert.Empty(t, out["records"])
}

func TestListEntities(t *testing.T) {
	srv := NewServer(testConfig(), stubService{}, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/entities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entities":["benefit","channel","dispatch","history"]}`, rec.Body.String())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not configured", fmt.Errorf("%w: dispatch", screens.ErrNotConfigured), http.StatusServiceUnavailable, "not_configured"},
		{"missing document", upstream.ErrMissingDocument, http.StatusBadRequest, ""},
		{"unknown entity", screens.ErrUnknownEntity, http.StatusNotFound, ""},
		{"upstream failure", &upstream.StatusError{Upstream: "dispatch", Status: 500}, http.StatusBadGateway, "upstream_unavailable"},
		{"plain failure", errors.New("dial tcp: refused"), http.StatusBadGateway, "upstream_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(testConfig(), stubService{err: tt.err}, nil)
			rec := do(t, srv.Handler(), http.MethodGet, "/api/dispatches", "")
			assert.Equal(t, tt.status, rec.Code)

			var body httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Error, "refused", "internal errors are not leaked")
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := NewServer(testConfig(), stubService{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/channels", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdownBeforeStart(t *testing.T) {
	srv := NewServer(testConfig(), stubService{}, nil)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
