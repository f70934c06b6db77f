package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{
		DataAPIURL:  srv.URL,
		GammaAPIURL: srv.URL,
	})
	client.SetHTTPClient(srv.Client())
	return client, srv
}

func TestActivityFiltersBuyTrades(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity", r.URL.Path)
		assert.Equal(t, "0xabc", r.URL.Query().Get("user"))
		w.Write([]byte(`[
			{"type":"TRADE","side":"BUY","title":"keep"},
			{"type":"TRADE","side":"SELL","title":"drop"},
			{"type":"REDEEM","side":"BUY","title":"drop"},
			{"type":"trade","side":"buy","title":"keep lowercase"}
		]`))
	}))
	recs := client.Activity(context.Background(), "0xABC", 100)
	assert.Len(t, recs, 2)
	assert.Equal(t, "keep", recs[0].Title())
	assert.Equal(t, "keep lowercase", recs[1].Title())
}

func TestFetchFailuresYieldEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	assert.Empty(t, client.Activity(context.Background(), "0xabc", 10))
	assert.Empty(t, client.Positions(context.Background(), "0xabc"))
	assert.Empty(t, client.Trades(context.Background(), "0xabc", 10, 0))
}

func TestFetchMalformedBodyYieldsEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"oops": not json`))
	}))
	assert.Empty(t, client.Positions(context.Background(), "0xabc"))
}

func TestTradesAllPagination(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("offset") == "0" {
			// A short page ends the paging.
			w.Write([]byte(`[{"title":"only"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	recs := client.TradesAll(context.Background(), "0xabc")
	assert.Len(t, recs, 1)
	assert.Equal(t, 1, calls)
}

func TestMarketEndDateParsingAndCache(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "0xcond", r.URL.Query().Get("conditionIds"))
		w.Write([]byte(`[{"endDateIso":"2026-05-05T22:15:00Z"}]`))
	}))

	end, ok := client.MarketEndDate(context.Background(), "0xcond", "")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 5, 22, 15, 0, 0, time.UTC), end.UTC())

	// The second lookup inside the TTL never hits the API.
	_, ok = client.MarketEndDate(context.Background(), "0xcond", "")
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestMarketEndDateNegativeCached(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[]`))
	}))
	_, ok := client.MarketEndDate(context.Background(), "0xcond", "")
	assert.False(t, ok)
	_, ok = client.MarketEndDate(context.Background(), "0xcond", "")
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestMarketEndDateLayoutFallbacks(t *testing.T) {
	assertParses := func(body string, want time.Time) {
		end, ok := parseMarketEndDate(body)
		assert.True(t, ok, body)
		assert.Equal(t, want, end)
	}
	assertParses(`[{"end_date_iso":"2026-05-05"}]`, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC))
	assertParses(`[{"endDate":"2026-05-05T10:00:00"}]`, time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC))

	_, ok := parseMarketEndDate(`[{"endDateIso":"soon"}]`)
	assert.False(t, ok)
	_, ok = parseMarketEndDate(`{}`)
	assert.False(t, ok)
}

func TestMarketEndDateEmptyKeys(t *testing.T) {
	client := NewClient(Config{})
	_, ok := client.MarketEndDate(context.Background(), "", "")
	assert.False(t, ok)
}

func TestProfileName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public-profile", r.URL.Path)
		w.Write([]byte(`{"name":"whale42"}`))
	}))
	assert.Equal(t, "whale42", client.ProfileName(context.Background(), "0x1234567890abcdef"))
}

func TestProfileNamePseudonymAndFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pseudonym":"quiet-otter"}`))
	}))
	assert.Equal(t, "quiet-otter", client.ProfileName(context.Background(), "0x1234567890abcdef"))

	failing, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	assert.Equal(t, "0x12345678...", failing.ProfileName(context.Background(), "0x1234567890abcdef"))
}

func TestRecentAssetsFromTrades(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trades", r.URL.Path)
		w.Write([]byte(`[{"asset":"a1"},{"asset":"a2"},{"asset":"a1"}]`))
	}))
	assets := client.RecentAssets(context.Background(), "0xabc", 10)
	assert.Equal(t, []string{"a1", "a2"}, assets)
}

func TestRecentAssetsGammaFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/trades" {
			w.Write([]byte(`[]`))
			return
		}
		assert.Equal(t, "/markets", r.URL.Path)
		w.Write([]byte(`[{"clobTokenIds":["t1","t2"]},{"tokens":[{"id":"t3"}]}]`))
	}))
	assets := client.RecentAssets(context.Background(), "0xabc", 10)
	assert.Equal(t, []string{"t1", "t3"}, assets)
}
