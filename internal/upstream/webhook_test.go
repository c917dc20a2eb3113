package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/pkg/httpretry"
)

func noRetry() httpretry.HTTPDoer { return httpretry.NewRetryClient(nil, 0) }

func TestWebhookGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer hook-token", r.Header.Get("Authorization"))
		assert.Equal(t, "12345678909", r.URL.Query().Get("cpf"))
		assert.Equal(t, "Natal", r.URL.Query().Get("campanha"))
		assert.Equal(t, "2024-01-15T00:00:00Z", r.URL.Query().Get("from"))
		w.Write([]byte(`[{"telefone":"1"}]`))
	}))
	defer srv.Close()

	src := NewWebhookSource("dispatch", config.WebhookConfig{URL: srv.URL, Token: "hook-token"})
	src.SetHTTPClient(noRetry())

	body, err := src.Fetch(context.Background(), Query{
		Document: "123.456.789-09",
		Campaign: "Natal",
		From:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"telefone":"1"}]`, string(body))
	assert.Equal(t, "dispatch", src.Name())
}

func TestWebhookPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12345678909", body["cpf"])
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	src := NewWebhookSource("history", config.WebhookConfig{URL: srv.URL, Method: "POST"})
	src.SetHTTPClient(noRetry())

	_, err := src.Fetch(context.Background(), Query{Document: "12345678909"})
	require.NoError(t, err)
}

func TestWebhookStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	src := NewWebhookSource("dispatch", config.WebhookConfig{URL: srv.URL})
	src.SetHTTPClient(noRetry())

	_, err := src.Fetch(context.Background(), Query{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Equal(t, "dispatch", se.Upstream)
}

func TestBankingClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/beneficios", r.URL.Path)
		assert.Equal(t, "12345678909", r.URL.Query().Get("cpf"))
		assert.Equal(t, "bank-key", r.Header.Get("X-API-Key"))
		w.Write([]byte(`{"rows":[{"cpf":"12345678909"}]}`))
	}))
	defer srv.Close()

	c := NewBankingClient(config.BankingConfig{BaseURL: srv.URL + "/", APIKey: "bank-key"})
	c.SetHTTPClient(noRetry())

	body, err := c.Fetch(context.Background(), Query{Document: "123.456.789-09"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "12345678909")

	_, err = c.Fetch(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrMissingDocument)
}

func TestQueryCacheKey(t *testing.T) {
	a := Query{Document: "123.456.789-09", Campaign: " Natal "}
	b := Query{Document: "12345678909", Campaign: "natal"}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), Query{Document: "1"}.CacheKey())
}
