// Package polymarket wraps the Polymarket data-api and gamma-api REST
// endpoints. Fetch failures of any kind (network, non-200, malformed
// JSON) surface as empty result sets: callers never distinguish "no data"
// from "fetch failed", and the next poll cycle simply tries again.
package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"polywatch/internal/logger"
	"polywatch/internal/pkg/circuit"
	"polywatch/internal/record"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultPageLimit  = 500
	defaultMaxPages   = 4
	defaultEndDateTTL = 60 * time.Second
	maxBodyBytes      = 8 << 20

	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Config carries the gateway endpoints and fetch limits.
type Config struct {
	DataAPIURL  string
	GammaAPIURL string
	Timeout     time.Duration
	PageLimit   int
	MaxPages    int
	EndDateTTL  time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.DataAPIURL) == "" {
		c.DataAPIURL = "https://data-api.polymarket.com"
	}
	if strings.TrimSpace(c.GammaAPIURL) == "" {
		c.GammaAPIURL = "https://gamma-api.polymarket.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.PageLimit <= 0 {
		c.PageLimit = defaultPageLimit
	}
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	if c.EndDateTTL <= 0 {
		c.EndDateTTL = defaultEndDateTTL
	}
	return c
}

type endDateEntry struct {
	end     time.Time
	ok      bool
	fetched time.Time
}

// Client is the REST gateway. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *circuit.Breaker

	endMu    sync.Mutex
	endCache map[string]endDateEntry
	nowFn    func() time.Time
}

func NewClient(cfg Config) *Client {
	final := cfg.withDefaults()
	return &Client{
		cfg:        final,
		httpClient: &http.Client{Timeout: final.Timeout},
		breaker:    circuit.NewBreaker("polymarket", breakerThreshold, breakerCooldown),
		endCache:   make(map[string]endDateEntry),
		nowFn:      time.Now,
	}
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Activity returns the trader's latest buy trades from the /activity
// endpoint, newest first. Empty on any failure.
func (c *Client) Activity(ctx context.Context, wallet string, limit int) []record.Raw {
	if limit <= 0 {
		limit = c.cfg.PageLimit
	}
	u := fmt.Sprintf("%s/activity?user=%s&limit=%d",
		strings.TrimRight(c.cfg.DataAPIURL, "/"), url.QueryEscape(strings.ToLower(wallet)), limit)
	all := record.ParseList(c.fetch(ctx, u))
	out := make([]record.Raw, 0, len(all))
	for _, rec := range all {
		if strings.EqualFold(rec.ActivityType(), "TRADE") && strings.EqualFold(rec.Side(), "BUY") {
			out = append(out, rec)
		}
	}
	return out
}

// Trades returns one page of the trader's trade history.
func (c *Client) Trades(ctx context.Context, wallet string, limit, offset int) []record.Raw {
	if limit <= 0 {
		limit = c.cfg.PageLimit
	}
	u := fmt.Sprintf("%s/trades?user=%s&limit=%d&offset=%d",
		strings.TrimRight(c.cfg.DataAPIURL, "/"), url.QueryEscape(strings.ToLower(wallet)), limit, offset)
	return record.ParseList(c.fetch(ctx, u))
}

// TradesAll pages through the trade history up to the configured page cap.
func (c *Client) TradesAll(ctx context.Context, wallet string) []record.Raw {
	var all []record.Raw
	for page := 0; page < c.cfg.MaxPages; page++ {
		batch := c.Trades(ctx, wallet, c.cfg.PageLimit, page*c.cfg.PageLimit)
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < c.cfg.PageLimit {
			break
		}
	}
	return all
}

// Positions returns the trader's open positions, including dust
// (sizeThreshold=0) so the classifiers see everything.
func (c *Client) Positions(ctx context.Context, wallet string) []record.Raw {
	u := fmt.Sprintf("%s/positions?user=%s&sizeThreshold=0",
		strings.TrimRight(c.cfg.DataAPIURL, "/"), url.QueryEscape(strings.ToLower(wallet)))
	return record.ParseList(c.fetch(ctx, u))
}

// MarketEndDate looks up the authoritative end date for a market via the
// gamma API, keyed by condition id or slug. Results, including negative
// ones, are cached for the configured TTL. Absence is a normal outcome.
func (c *Client) MarketEndDate(ctx context.Context, conditionID, slug string) (time.Time, bool) {
	conditionID = strings.TrimSpace(conditionID)
	slug = strings.TrimSpace(slug)
	if conditionID == "" && slug == "" {
		return time.Time{}, false
	}
	key := conditionID + "|" + slug

	c.endMu.Lock()
	if entry, hit := c.endCache[key]; hit && c.nowFn().Sub(entry.fetched) < c.cfg.EndDateTTL {
		c.endMu.Unlock()
		return entry.end, entry.ok
	}
	c.endMu.Unlock()

	base := strings.TrimRight(c.cfg.GammaAPIURL, "/")
	var u string
	if conditionID != "" {
		u = fmt.Sprintf("%s/markets?conditionIds=%s", base, url.QueryEscape(conditionID))
	} else {
		u = fmt.Sprintf("%s/markets?slug=%s", base, url.QueryEscape(slug))
	}

	end, ok := parseMarketEndDate(c.fetch(ctx, u))
	c.endMu.Lock()
	c.endCache[key] = endDateEntry{end: end, ok: ok, fetched: c.nowFn()}
	c.endMu.Unlock()
	return end, ok
}

func parseMarketEndDate(body string) (time.Time, bool) {
	if !gjson.Valid(body) {
		return time.Time{}, false
	}
	res := gjson.Parse(body)
	if !res.IsArray() {
		return time.Time{}, false
	}
	items := res.Array()
	if len(items) == 0 {
		return time.Time{}, false
	}
	for _, field := range []string{"endDateIso", "end_date_iso", "endDate"} {
		v := items[0].Get(field)
		if !v.Exists() || strings.TrimSpace(v.String()) == "" {
			continue
		}
		raw := strings.TrimSpace(v.String())
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ProfileName resolves the trader's display name from the gamma profile
// endpoint, falling back to a shortened address.
func (c *Client) ProfileName(ctx context.Context, address string) string {
	short := address
	if len(short) > 10 {
		short = short[:10] + "..."
	}
	u := fmt.Sprintf("%s/public-profile?address=%s",
		strings.TrimRight(c.cfg.GammaAPIURL, "/"), url.QueryEscape(strings.ToLower(address)))
	body := c.fetch(ctx, u)
	if !gjson.Valid(body) {
		return short
	}
	profile := gjson.Parse(body)
	for _, field := range []string{"name", "pseudonym"} {
		if v := strings.TrimSpace(profile.Get(field).String()); v != "" {
			return v
		}
	}
	return short
}

// RecentAssets returns asset ids the trader recently touched, for the
// live stream subscription. Falls back to active crypto markets when the
// trader has no recent trades.
func (c *Client) RecentAssets(ctx context.Context, wallet string, max int) []string {
	if max <= 0 {
		max = 20
	}
	seen := make(map[string]bool)
	var assets []string
	for _, rec := range c.Trades(ctx, wallet, 200, 0) {
		id := rec.AssetID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		assets = append(assets, id)
		if len(assets) >= max {
			return assets
		}
	}
	if len(assets) > 0 {
		return assets
	}

	u := fmt.Sprintf("%s/markets?active=true&category=crypto&limit=%d",
		strings.TrimRight(c.cfg.GammaAPIURL, "/"), max)
	body := c.fetch(ctx, u)
	if !gjson.Valid(body) {
		return nil
	}
	for _, market := range gjson.Parse(body).Array() {
		for _, field := range []string{"tokens.0.id", "tokens.0.token_id", "clobTokenIds.0"} {
			if id := strings.TrimSpace(market.Get(field).String()); id != "" && !seen[id] {
				seen[id] = true
				assets = append(assets, id)
				break
			}
		}
		if len(assets) >= max {
			break
		}
	}
	return assets
}

// fetch performs a breaker-guarded GET and returns the body, or "" on any
// failure.
func (c *Client) fetch(ctx context.Context, rawURL string) string {
	if !c.breaker.Allow() {
		logger.Debugf("fetch skipped, breaker open: %s", rawURL)
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.breaker.RecordFailure()
		logger.Warnf("fetch request build failed: %v", err)
		return ""
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		logger.Debugf("fetch failed %s: %v", rawURL, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure()
		logger.Debugf("fetch %s: status %d", rawURL, resp.StatusCode)
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.breaker.RecordFailure()
		logger.Debugf("fetch read failed %s: %v", rawURL, err)
		return ""
	}
	c.breaker.RecordSuccess()
	return string(body)
}
