package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/entity"
	"github.com/ignite/recon-dashboard/internal/recon"
)

func graphServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/v19.0/waba1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"waba1","name":"Vendas","owner_business_info":{"id":"77","name":"Acme"}}`)
	})
	mux.HandleFunc("/v19.0/77", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"77","name":"Acme Ltda","verification_status":"verified"}`)
	})
	mux.HandleFunc("/v19.0/waba1/phone_numbers", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("after") == "" {
			fmt.Fprintf(w, `{"data":[{"id":"1","display_phone_number":"+55 11 4000-0001","verified_name":"Vendas",
				"status":"CONNECTED","quality_rating":"GREEN","messaging_limit_tier":"TIER_250"}],
				"paging":{"next":"%s/v19.0/waba1/phone_numbers?after=c1"}}`, srv.URL)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"2","display_phone_number":"+55 11 4000-0002","verified_name":"Vendas",
			"status":"FLAGGED","quality_rating":"RED"}],"paging":{}}`)
	})
	mux.HandleFunc("/v19.0/waba2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	mux.HandleFunc("/v19.0/waba2/phone_numbers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer graph-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func graphConfig(url string, wabas ...string) config.GraphConfig {
	return config.GraphConfig{
		BaseURL:     url,
		Version:     "v19.0",
		AccessToken: "graph-token",
		WABAIDs:     wabas,
		PageLimit:   1,
		MaxPages:    5,
	}
}

func TestGraphFetchFollowsPaging(t *testing.T) {
	srv, calls := graphServer(t)
	c := NewGraphClient(graphConfig(srv.URL, "waba1"))

	body, err := c.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	rows := recon.DecodePayload(body)
	require.Len(t, rows, 2)
	assert.Equal(t, "77", rows[0]["bm_id"])
	assert.Equal(t, "Acme Ltda", rows[0]["bm_name"])
	assert.Equal(t, "verified", rows[0]["business_verification_status"])
	assert.Equal(t, "waba1", rows[1]["waba_id"])

	set := entity.ChannelSchema().Run(rows).Records
	require.Len(t, set, 2)
	rollups := entity.ChannelRollups(set)
	require.Len(t, rollups, 1)
	assert.Equal(t, 1, rollups[0].Connected)
	assert.Equal(t, 1, rollups[0].Counters[recon.Banned])
}

func TestGraphFetchPartialFailure(t *testing.T) {
	srv, _ := graphServer(t)
	c := NewGraphClient(graphConfig(srv.URL, "waba1", "waba2"))

	body, err := c.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, recon.DecodePayload(body), 2)
}

func TestGraphFetchAllFail(t *testing.T) {
	srv, _ := graphServer(t)
	c := NewGraphClient(graphConfig(srv.URL, "waba2"))

	_, err := c.Fetch(context.Background(), Query{})
	assert.Error(t, err)
}

func TestGraphRejectsOffHostPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v19.0/w/phone_numbers" {
			fmt.Fprint(w, `{"data":[{"id":"1"}],"paging":{"next":"https://evil.example.com/steal"}}`)
			return
		}
		fmt.Fprint(w, `{"id":"w"}`)
	}))
	defer srv.Close()

	c := NewGraphClient(graphConfig(srv.URL, "w"))
	body, err := c.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, recon.DecodePayload(body), 1)
}

func TestGraphNoWABAs(t *testing.T) {
	c := NewGraphClient(graphConfig("http://unused.invalid"))
	body, err := c.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}
