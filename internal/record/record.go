// Package record wraps the loosely-typed JSON returned by the Polymarket
// data APIs. No field is guaranteed present on any endpoint, so every
// accessor owns its fallback chain and typed default; callers never touch
// raw JSON keys directly.
package record

import (
	"strings"

	"github.com/tidwall/gjson"

	"polywatch/internal/pkg/convert"
)

// Raw is a single trade, activity or position record as received.
type Raw struct {
	data gjson.Result
}

// Parse wraps a single JSON object. Returns ok=false for anything that is
// not a JSON object.
func Parse(raw string) (Raw, bool) {
	if !gjson.Valid(raw) {
		return Raw{}, false
	}
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return Raw{}, false
	}
	return Raw{data: res}, true
}

// ParseList parses a JSON array of records. Malformed input or a non-array
// payload yields an empty slice, never an error.
func ParseList(raw string) []Raw {
	if !gjson.Valid(raw) {
		return nil
	}
	res := gjson.Parse(raw)
	if !res.IsArray() {
		return nil
	}
	items := res.Array()
	out := make([]Raw, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			out = append(out, Raw{data: item})
		}
	}
	return out
}

// FromResult wraps an already-parsed gjson value.
func FromResult(res gjson.Result) Raw {
	return Raw{data: res}
}

func (r Raw) Exists() bool {
	return r.data.Exists()
}

// JSON returns the underlying raw JSON, for the live buffer and debugging.
func (r Raw) JSON() string {
	return r.data.Raw
}

func (r Raw) str(paths ...string) string {
	for _, p := range paths {
		if v := r.data.Get(p); v.Exists() {
			s := strings.TrimSpace(v.String())
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// Title returns the market display title (title, then question).
func (r Raw) Title() string {
	return r.str("title", "question")
}

func (r Raw) Outcome() string {
	return r.str("outcome")
}

func (r Raw) Side() string {
	return r.str("side")
}

// DirectionText concatenates the lowercased free-text fields consulted by
// the direction classifier's text tier.
func (r Raw) DirectionText() string {
	parts := make([]string, 0, 5)
	for _, field := range []string{"outcome", "side", "answer", "choice", "direction"} {
		if v := r.data.Get(field); v.Exists() {
			parts = append(parts, strings.ToLower(v.String()))
		}
	}
	return strings.Join(parts, " ")
}

// Size returns the share count, zero when absent.
func (r Raw) Size() float64 {
	return convert.ParseAmount(r.data.Get("size").Value())
}

// Price returns the trade price (price, then curPrice), 0.50 when absent.
func (r Raw) Price() float64 {
	for _, p := range []string{"price", "curPrice"} {
		if v := r.data.Get(p); v.Exists() {
			return convert.ParseUSD(v.Value())
		}
	}
	return convert.DefaultPrice
}

// AvgPrice returns the position's average entry price.
func (r Raw) AvgPrice() float64 {
	for _, p := range []string{"avgPrice", "price"} {
		if v := r.data.Get(p); v.Exists() {
			return convert.ParseUSD(v.Value())
		}
	}
	return convert.DefaultPrice
}

// CurPrice returns the current market price, falling back to the average
// entry price when the API omits it.
func (r Raw) CurPrice() float64 {
	if v := r.data.Get("curPrice"); v.Exists() {
		return convert.ParseUSD(v.Value())
	}
	return r.AvgPrice()
}

// CashPnL returns realized/cash PnL across the field names the data API
// has used over time. Zero when no PnL field exists.
func (r Raw) CashPnL() (float64, bool) {
	for _, p := range []string{"cashPnl", "pnl", "realizedPnl"} {
		if v := r.data.Get(p); v.Exists() {
			return convert.ToFloat64(v.Value()), true
		}
	}
	return 0, false
}

// Timestamp returns the record's unix-seconds timestamp
// (timestamp, updatedAt, createdAt), or fallback when none parses.
func (r Raw) Timestamp(fallback int64) int64 {
	for _, p := range []string{"timestamp", "updatedAt", "createdAt"} {
		if v := r.data.Get(p); v.Exists() {
			if ts := convert.ToUnixSeconds(v.Value(), 0); ts > 0 {
				return ts
			}
		}
	}
	return fallback
}

// ConditionID returns the market identifier used for the authoritative
// end-date lookup.
func (r Raw) ConditionID() string {
	return r.str("conditionId", "marketId", "market.conditionId")
}

func (r Raw) Slug() string {
	return r.str("slug", "market.slug")
}

// Wallet returns the trader address attached to the record.
func (r Raw) Wallet() string {
	return strings.ToLower(r.str("proxyWallet", "user", "maker"))
}

func (r Raw) TxHash() string {
	return strings.ToLower(r.str("transactionHash"))
}

func (r Raw) AssetID() string {
	return r.str("asset_id", "asset", "assetId")
}

// ActivityType returns the /activity record type ("TRADE", "REDEEM", ...).
func (r Raw) ActivityType() string {
	return r.str("type")
}

// EventType returns the websocket event type ("trade", "last_trade_price").
func (r Raw) EventType() string {
	return r.str("event_type")
}

// StatusText returns the provider-reported status field ("settled", ...).
func (r Raw) StatusText() string {
	return r.str("status")
}
