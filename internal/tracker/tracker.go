package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"polywatch/internal/classify"
	"polywatch/internal/pkg/text"
	"polywatch/internal/record"
	"polywatch/internal/simulator"
	"polywatch/internal/stream"
)

// ActivitySource is the REST surface the tracker reads from.
type ActivitySource interface {
	Activity(ctx context.Context, wallet string, limit int) []record.Raw
	TradesAll(ctx context.Context, wallet string) []record.Raw
	Positions(ctx context.Context, wallet string) []record.Raw
	ProfileName(ctx context.Context, address string) string
}

// WatchlistSource yields the current crypto keyword lists. The hot-reload
// loader satisfies this; tests plug in a fixed list.
type WatchlistSource interface {
	Watchlist() classify.Watchlist
}

// Config 控制跟踪视图的筛选行为。
type Config struct {
	Wallet           string
	WindowMinutes    int
	CryptoOnly       bool
	Allow5m          bool
	FiveMinuteCutoff int
	CacheTTL         time.Duration
	ActivityLimit    int
}

func (c Config) withDefaults() Config {
	c.Wallet = strings.ToLower(strings.TrimSpace(c.Wallet))
	if c.WindowMinutes <= 0 {
		c.WindowMinutes = 120
	}
	if c.FiveMinuteCutoff <= 0 {
		c.FiveMinuteCutoff = 5
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 30 * time.Second
	}
	if c.ActivityLimit <= 0 {
		c.ActivityLimit = 500
	}
	return c
}

// TradeRow is one line of the recent-trades table.
type TradeRow struct {
	Market    string  `json:"market"`
	Direction string  `json:"direction"`
	Shares    float64 `json:"shares"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Updated   string  `json:"updated"`
	AgeSec    int64   `json:"age_sec"`
	Live      bool    `json:"live"`
}

// FeedStats reports where the rows of one merge came from.
type FeedStats struct {
	REST int `json:"rest"`
	Live int `json:"live"`
	Kept int `json:"kept"`
}

// Summary is the header block of the dashboard.
type Summary struct {
	Trader        string  `json:"trader"`
	Wallet        string  `json:"wallet"`
	OpenPositions int     `json:"open_positions"`
	CryptoCount   int     `json:"crypto_count"`
	TotalValue    float64 `json:"total_value"`
	TotalPnL      float64 `json:"total_pnl"`
}

// Tracker merges the REST activity feed with the live websocket buffer and
// annotates every record with direction, market class and expiry status.
type Tracker struct {
	cfg      Config
	source   ActivitySource
	buffer   *stream.Buffer
	lists    WatchlistSource
	resolver *classify.Resolver
	nowFn    func() time.Time

	mu         sync.Mutex
	actCache   cachedRecords
	posCache   cachedRecords
	tradeCache cachedRecords
	traderTag  string
}

type cachedRecords struct {
	at      time.Time
	records []record.Raw
}

func New(cfg Config, source ActivitySource, buffer *stream.Buffer, lists WatchlistSource, resolver *classify.Resolver) *Tracker {
	return &Tracker{
		cfg:      cfg.withDefaults(),
		source:   source,
		buffer:   buffer,
		lists:    lists,
		resolver: resolver,
		nowFn:    time.Now,
	}
}

// RecentTrades returns the trader's trades inside the window, newest first.
// Live buffer entries and REST activity rows are merged and deduped by
// transaction hash; rows without a hash are always kept.
func (t *Tracker) RecentTrades(ctx context.Context, minutesBack int, include5m bool) ([]TradeRow, FeedStats) {
	if minutesBack <= 0 {
		minutesBack = t.cfg.WindowMinutes
	}
	now := t.nowFn()
	since := now.Add(-time.Duration(minutesBack) * time.Minute).Unix()

	var stats FeedStats
	type candidate struct {
		rec  record.Raw
		live bool
	}
	var all []candidate
	if t.buffer != nil {
		for _, rec := range t.buffer.Recent(since) {
			if w := rec.Wallet(); w != "" && w != t.cfg.Wallet {
				continue
			}
			all = append(all, candidate{rec: rec, live: true})
			stats.Live++
		}
	}
	for _, rec := range t.activity(ctx) {
		all = append(all, candidate{rec: rec})
		stats.REST++
	}

	watchlist := t.watchlist()
	seen := make(map[string]struct{})
	var rows []TradeRow
	for _, c := range all {
		rec := c.rec
		ts := rec.Timestamp(now.Unix())
		if ts < since {
			continue
		}
		if hash := rec.TxHash(); hash != "" {
			if _, dup := seen[hash]; dup {
				continue
			}
			seen[hash] = struct{}{}
		}
		title := rec.Title()
		if t.cfg.CryptoOnly && !watchlist.IsCrypto(title) {
			continue
		}
		if !include5m && classify.Is5MinuteMarket(title, t.cfg.FiveMinuteCutoff) {
			continue
		}
		rows = append(rows, t.tradeRow(ctx, rec, now, ts, c.live))
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AgeSec < rows[j].AgeSec })
	if limit := maxRows(minutesBack); len(rows) > limit {
		rows = rows[:limit]
	}
	stats.Kept = len(rows)
	return rows, stats
}

func (t *Tracker) tradeRow(ctx context.Context, rec record.Raw, now time.Time, ts int64, live bool) TradeRow {
	shares := rec.Size()
	price := rec.Price()
	dir := classify.ClassifyDirection(rec)
	status := t.resolver.Resolve(ctx, rec, now)
	return TradeRow{
		Market:    text.ShortTitle(rec.Title()),
		Direction: fmt.Sprintf("%s @ $%.2f", dir.Label(), price),
		Shares:    shares,
		Price:     price,
		Amount:    shares * price,
		Status:    status.Label(),
		Updated:   time.Unix(ts, 0).In(classify.Eastern()).Format("03:04:05 PM") + " ET",
		AgeSec:    now.Unix() - ts,
		Live:      live,
	}
}

// OpenPositions returns the trader's open positions normalized for the
// copy simulator, filtered the same way as the trade table.
func (t *Tracker) OpenPositions(ctx context.Context) []simulator.Position {
	now := t.nowFn()
	watchlist := t.watchlist()
	var out []simulator.Position
	for _, rec := range t.positions(ctx) {
		title := rec.Title()
		if t.cfg.CryptoOnly && !watchlist.IsCrypto(title) {
			continue
		}
		if !t.cfg.Allow5m && classify.Is5MinuteMarket(title, t.cfg.FiveMinuteCutoff) {
			continue
		}
		shares := rec.Size()
		if shares < 0 {
			shares = -shares
		}
		pnl, hasPnL := rec.CashPnL()
		status := t.resolver.Resolve(ctx, rec, now)
		out = append(out, simulator.Position{
			Market:      title,
			Direction:   classify.ClassifyDirection(rec),
			Shares:      shares,
			AvgPrice:    rec.AvgPrice(),
			CurPrice:    rec.CurPrice(),
			CashPnL:     pnl,
			HasPnL:      hasPnL,
			StatusLabel: status.Label(),
			AgeSec:      now.Unix() - rec.Timestamp(now.Unix()),
		})
	}
	return out
}

// Summary aggregates the header metrics: who is being tracked and what
// their open book looks like.
func (t *Tracker) Summary(ctx context.Context) Summary {
	watchlist := t.watchlist()
	s := Summary{
		Trader: t.profileName(ctx),
		Wallet: t.cfg.Wallet,
	}
	for _, rec := range t.positions(ctx) {
		s.OpenPositions++
		if watchlist.IsCrypto(rec.Title()) {
			s.CryptoCount++
		}
		shares := rec.Size()
		if shares < 0 {
			shares = -shares
		}
		s.TotalValue += shares * rec.CurPrice()
		if pnl, ok := rec.CashPnL(); ok {
			s.TotalPnL += pnl
		}
	}
	return s
}

// ClosedPnL sums the trader's realized PnL over settled trades in the
// trade history. Feeds the simulated bankroll (scaled by the copy ratio
// at the call site).
func (t *Tracker) ClosedPnL(ctx context.Context) float64 {
	var closed []simulator.Position
	for _, rec := range t.trades(ctx) {
		pnl, ok := rec.CashPnL()
		if !ok || !simulator.Settled(rec.StatusText()) {
			continue
		}
		closed = append(closed, simulator.Position{
			Market:      rec.Title(),
			CashPnL:     pnl,
			HasPnL:      true,
			StatusLabel: rec.StatusText(),
		})
	}
	return simulator.RealizedBankroll(0, closed)
}

func (t *Tracker) watchlist() classify.Watchlist {
	if t.lists == nil {
		return classify.DefaultWatchlist()
	}
	return t.lists.Watchlist()
}

func (t *Tracker) profileName(ctx context.Context) string {
	t.mu.Lock()
	cached := t.traderTag
	t.mu.Unlock()
	if cached != "" {
		return cached
	}
	name := t.source.ProfileName(ctx, t.cfg.Wallet)
	if name != "" {
		t.mu.Lock()
		t.traderTag = name
		t.mu.Unlock()
	}
	return name
}

// activity and positions are TTL-cached so that several dashboard panels
// rendering in the same refresh share one upstream call.
func (t *Tracker) activity(ctx context.Context) []record.Raw {
	t.mu.Lock()
	if t.nowFn().Sub(t.actCache.at) < t.cfg.CacheTTL {
		recs := t.actCache.records
		t.mu.Unlock()
		return recs
	}
	t.mu.Unlock()
	recs := t.source.Activity(ctx, t.cfg.Wallet, t.cfg.ActivityLimit)
	t.mu.Lock()
	t.actCache = cachedRecords{at: t.nowFn(), records: recs}
	t.mu.Unlock()
	return recs
}

func (t *Tracker) trades(ctx context.Context) []record.Raw {
	t.mu.Lock()
	if t.nowFn().Sub(t.tradeCache.at) < t.cfg.CacheTTL {
		recs := t.tradeCache.records
		t.mu.Unlock()
		return recs
	}
	t.mu.Unlock()
	recs := t.source.TradesAll(ctx, t.cfg.Wallet)
	t.mu.Lock()
	t.tradeCache = cachedRecords{at: t.nowFn(), records: recs}
	t.mu.Unlock()
	return recs
}

func (t *Tracker) positions(ctx context.Context) []record.Raw {
	t.mu.Lock()
	if t.nowFn().Sub(t.posCache.at) < t.cfg.CacheTTL {
		recs := t.posCache.records
		t.mu.Unlock()
		return recs
	}
	t.mu.Unlock()
	recs := t.source.Positions(ctx, t.cfg.Wallet)
	t.mu.Lock()
	t.posCache = cachedRecords{at: t.nowFn(), records: recs}
	t.mu.Unlock()
	return recs
}

func maxRows(minutesBack int) int {
	limit := minutesBack * 15
	if limit < 200 {
		limit = 200
	}
	return limit
}
