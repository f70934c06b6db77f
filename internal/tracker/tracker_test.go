package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"polywatch/internal/classify"
	"polywatch/internal/record"
	"polywatch/internal/stream"
)

type stubSource struct {
	activity   []record.Raw
	trades     []record.Raw
	positions  []record.Raw
	name       string
	nameCalls  int
	tradeCalls int
}

func (s *stubSource) Activity(ctx context.Context, wallet string, limit int) []record.Raw {
	return s.activity
}

func (s *stubSource) TradesAll(ctx context.Context, wallet string) []record.Raw {
	s.tradeCalls++
	return s.trades
}

func (s *stubSource) Positions(ctx context.Context, wallet string) []record.Raw {
	return s.positions
}

func (s *stubSource) ProfileName(ctx context.Context, address string) string {
	s.nameCalls++
	return s.name
}

type fixedWatchlist struct{ list classify.Watchlist }

func (f fixedWatchlist) Watchlist() classify.Watchlist { return f.list }

func mustRecord(t *testing.T, raw string) record.Raw {
	t.Helper()
	rec, ok := record.Parse(raw)
	assert.True(t, ok, raw)
	return rec
}

var testNow = time.Date(2026, 5, 5, 18, 0, 0, 0, time.UTC)

func newTestTracker(cfg Config, source ActivitySource, buffer *stream.Buffer) *Tracker {
	tr := New(cfg, source, buffer, fixedWatchlist{list: classify.DefaultWatchlist()}, classify.NewResolver(nil))
	tr.nowFn = func() time.Time { return testNow }
	return tr
}

func activityJSON(title, hash string, ts int64) string {
	return fmt.Sprintf(`{"type":"TRADE","side":"BUY","title":%q,"transactionHash":%q,"timestamp":%d,"size":10,"price":0.5,"outcome":"Up"}`,
		title, hash, ts)
}

func TestRecentTradesWindowAndOrder(t *testing.T) {
	recent := testNow.Unix() - 60
	older := testNow.Unix() - 600
	outside := testNow.Unix() - 3*3600
	source := &stubSource{activity: []record.Raw{
		mustRecord(t, activityJSON("Bitcoin Up or Down - May 5, 5PM ET", "0xa", older)),
		mustRecord(t, activityJSON("Ethereum Up or Down - May 5, 5PM ET", "0xb", recent)),
		mustRecord(t, activityJSON("Solana Up or Down - May 4, 5PM ET", "0xc", outside)),
	}}
	tr := newTestTracker(Config{Wallet: "0xABC", WindowMinutes: 120}, source, nil)

	rows, stats := tr.RecentTrades(context.Background(), 0, true)
	assert.Len(t, rows, 2)
	assert.Contains(t, rows[0].Market, "Ethereum")
	assert.Contains(t, rows[1].Market, "Bitcoin")
	assert.Equal(t, 3, stats.REST)
	assert.Equal(t, 0, stats.Live)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, int64(60), rows[0].AgeSec)
	assert.False(t, rows[0].Live)
}

func TestRecentTradesDedupesLiveAgainstRest(t *testing.T) {
	ts := testNow.Unix() - 30
	source := &stubSource{activity: []record.Raw{
		mustRecord(t, activityJSON("Bitcoin Up or Down", "0xdup", ts)),
	}}
	buffer := stream.NewBuffer(10)
	buffer.Append(mustRecord(t, fmt.Sprintf(
		`{"title":"Bitcoin Up or Down","transactionHash":"0xDUP","timestamp":%d,"size":10,"price":0.5,"proxyWallet":"0xabc"}`, ts)))
	tr := newTestTracker(Config{Wallet: "0xabc"}, source, buffer)

	rows, stats := tr.RecentTrades(context.Background(), 60, true)
	assert.Len(t, rows, 1)
	assert.True(t, rows[0].Live, "the live copy wins the dedupe")
	assert.Equal(t, 1, stats.Live)
	assert.Equal(t, 1, stats.REST)
	assert.Equal(t, 1, stats.Kept)
}

func TestRecentTradesSkipsOtherWallets(t *testing.T) {
	ts := testNow.Unix() - 30
	buffer := stream.NewBuffer(10)
	buffer.Append(mustRecord(t, fmt.Sprintf(
		`{"title":"Bitcoin Up or Down","timestamp":%d,"proxyWallet":"0xother"}`, ts)))
	tr := newTestTracker(Config{Wallet: "0xabc"}, &stubSource{}, buffer)

	rows, stats := tr.RecentTrades(context.Background(), 60, true)
	assert.Empty(t, rows)
	assert.Equal(t, 0, stats.Live)
}

func TestRecentTradesCryptoFilter(t *testing.T) {
	ts := testNow.Unix() - 30
	source := &stubSource{activity: []record.Raw{
		mustRecord(t, activityJSON("Bitcoin Up or Down", "0xa", ts)),
		mustRecord(t, activityJSON("Will the Fed cut rates in June?", "0xb", ts)),
	}}
	tr := newTestTracker(Config{Wallet: "0xabc", CryptoOnly: true}, source, nil)

	rows, _ := tr.RecentTrades(context.Background(), 60, true)
	assert.Len(t, rows, 1)
	assert.Contains(t, rows[0].Market, "Bitcoin")
}

func TestRecentTradesFiveMinuteFilter(t *testing.T) {
	ts := testNow.Unix() - 30
	source := &stubSource{activity: []record.Raw{
		mustRecord(t, activityJSON("Bitcoin Up or Down - 6:00PM-6:05PM ET", "0xa", ts)),
		mustRecord(t, activityJSON("Bitcoin Up or Down - May 5, 5PM ET", "0xb", ts)),
	}}
	tr := newTestTracker(Config{Wallet: "0xabc"}, source, nil)

	rows, _ := tr.RecentTrades(context.Background(), 60, false)
	assert.Len(t, rows, 1)
	assert.Contains(t, rows[0].Market, "May 5")

	rows, _ = tr.RecentTrades(context.Background(), 60, true)
	assert.Len(t, rows, 2)
}

func TestTradeRowShape(t *testing.T) {
	ts := testNow.Unix() - 45
	source := &stubSource{activity: []record.Raw{
		mustRecord(t, fmt.Sprintf(
			`{"type":"TRADE","side":"BUY","title":"Bitcoin Up or Down","timestamp":%d,"size":20,"price":0.55,"outcome":"Up"}`, ts)),
	}}
	tr := newTestTracker(Config{Wallet: "0xabc"}, source, nil)

	rows, _ := tr.RecentTrades(context.Background(), 60, true)
	assert.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "🟢 UP @ $0.55", row.Direction)
	assert.Equal(t, 20.0, row.Shares)
	assert.InDelta(t, 11.0, row.Amount, 1e-9)
	assert.Contains(t, row.Updated, "ET")
	assert.Equal(t, "🟢 ACTIVE (no timer)", row.Status)
}

func TestOpenPositionsNormalized(t *testing.T) {
	source := &stubSource{positions: []record.Raw{
		mustRecord(t, `{"title":"Bitcoin Up or Down","outcome":"Up","size":-12.5,"avgPrice":0.40,"curPrice":0.60,"cashPnl":2.5}`),
		mustRecord(t, `{"title":"Ethereum Up or Down","outcome":"Down","size":8,"avgPrice":0.50,"curPrice":0.45}`),
	}}
	tr := newTestTracker(Config{Wallet: "0xabc", Allow5m: true}, source, nil)

	positions := tr.OpenPositions(context.Background())
	assert.Len(t, positions, 2)
	assert.Equal(t, 12.5, positions[0].Shares, "short sizes come back absolute")
	assert.Equal(t, classify.DirectionUp, positions[0].Direction)
	assert.True(t, positions[0].HasPnL)
	assert.Equal(t, 2.5, positions[0].CashPnL)
	assert.False(t, positions[1].HasPnL)
}

func TestOpenPositionsFiveMinuteExclusion(t *testing.T) {
	source := &stubSource{positions: []record.Raw{
		mustRecord(t, `{"title":"Bitcoin Up or Down - 6:00PM-6:05PM ET","size":5,"avgPrice":0.5,"curPrice":0.5}`),
	}}
	tr := newTestTracker(Config{Wallet: "0xabc", Allow5m: false}, source, nil)
	assert.Empty(t, tr.OpenPositions(context.Background()))

	tr = newTestTracker(Config{Wallet: "0xabc", Allow5m: true}, source, nil)
	assert.Len(t, tr.OpenPositions(context.Background()), 1)
}

func TestSummaryTotals(t *testing.T) {
	source := &stubSource{
		name: "whale42",
		positions: []record.Raw{
			mustRecord(t, `{"title":"Bitcoin Up or Down","size":10,"curPrice":0.60,"cashPnl":1.5}`),
			mustRecord(t, `{"title":"Will the Fed cut rates?","size":-4,"curPrice":0.25}`),
		},
	}
	tr := newTestTracker(Config{Wallet: "0xABC"}, source, nil)

	s := tr.Summary(context.Background())
	assert.Equal(t, "whale42", s.Trader)
	assert.Equal(t, "0xabc", s.Wallet)
	assert.Equal(t, 2, s.OpenPositions)
	assert.Equal(t, 1, s.CryptoCount)
	assert.InDelta(t, 10*0.60+4*0.25, s.TotalValue, 1e-9)
	assert.InDelta(t, 1.5, s.TotalPnL, 1e-9)
}

func TestProfileNameCached(t *testing.T) {
	source := &stubSource{name: "whale42"}
	tr := newTestTracker(Config{Wallet: "0xabc"}, source, nil)

	tr.Summary(context.Background())
	tr.Summary(context.Background())
	assert.Equal(t, 1, source.nameCalls)
}

func TestClosedPnLSumsSettledTrades(t *testing.T) {
	source := &stubSource{trades: []record.Raw{
		mustRecord(t, `{"title":"Bitcoin Up or Down","status":"settled","cashPnl":12.5}`),
		mustRecord(t, `{"title":"Ethereum Up or Down","status":"open","cashPnl":3}`),
		mustRecord(t, `{"title":"Solana Up or Down","status":"resolved"}`),
		mustRecord(t, `{"title":"Doge Up or Down","status":"CLOSED","cashPnl":-2.5}`),
	}}
	tr := newTestTracker(Config{Wallet: "0xabc"}, source, nil)

	// Settled and closed trades with a PnL field count; open trades and
	// settled trades without one do not.
	assert.InDelta(t, 10.0, tr.ClosedPnL(context.Background()), 1e-9)
}

func TestClosedPnLCachesTradeHistory(t *testing.T) {
	source := &stubSource{trades: []record.Raw{
		mustRecord(t, `{"title":"Bitcoin Up or Down","status":"settled","cashPnl":5}`),
	}}
	tr := newTestTracker(Config{Wallet: "0xabc"}, source, nil)

	tr.ClosedPnL(context.Background())
	tr.ClosedPnL(context.Background())
	assert.Equal(t, 1, source.tradeCalls)
}

func TestMaxRowsFloor(t *testing.T) {
	assert.Equal(t, 200, maxRows(5))
	assert.Equal(t, 1800, maxRows(120))
}
