package classify

import (
	"regexp"
	"strings"
)

// Watchlist holds the crypto keyword lists used to filter market titles.
// Matching is pure substring containment; coincidental substrings
// ("dotcom" matching "dot") are a known and accepted limitation.
type Watchlist struct {
	Tickers   []string
	FullNames []string
}

// DefaultWatchlist returns the built-in ticker and full-name lists.
func DefaultWatchlist() Watchlist {
	return Watchlist{
		Tickers: []string{
			"btc", "eth", "sol", "xrp", "ada", "doge", "shib", "link",
			"avax", "matic", "dot", "uni", "bnb", "usdt", "usdc",
		},
		FullNames: []string{
			"bitcoin", "ethereum", "solana", "ripple", "xrp", "cardano",
			"dogecoin", "shiba", "chainlink", "avalanche", "polygon",
			"polkadot", "uniswap", "binance coin",
		},
	}
}

// IsCrypto reports whether a market title mentions a watched asset.
func (w Watchlist) IsCrypto(title string) bool {
	title = strings.ToLower(title)
	for _, t := range w.Tickers {
		if t != "" && strings.Contains(title, t) {
			return true
		}
	}
	for _, f := range w.FullNames {
		if f != "" && strings.Contains(title, f) {
			return true
		}
	}
	return false
}

// timeRangeRe matches "5:40AM-5:45AM" or "5:40 AM - 5:45 AM" style windows.
var timeRangeRe = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*[AP]M?)\s*[-–]\s*(\d{1,2}:\d{2}\s*[AP]M?)`)

const noRangeSentinel = 999

// ExtractTimeRangeMinutes parses an explicit time window out of a title
// and returns its duration in minutes. ok=false when no window is present
// or either bound fails to parse.
func ExtractTimeRangeMinutes(title string) (int, bool) {
	start, end, ok := timeRangeBounds(title)
	if !ok {
		return 0, false
	}
	startMin := int(start*60 + 0.5)
	endMin := int(end*60 + 0.5)
	dur := endMin - startMin
	// 11:55PM-12:00AM wraps past midnight.
	if dur < 0 {
		dur += 24 * 60
	}
	return dur, true
}

// timeDiffMinutes is the numeric cross-check for ExtractTimeRangeMinutes.
// Returns the sentinel 999 when no range parses, so a missing range never
// looks like a short market.
func timeDiffMinutes(title string) int {
	m := timeRangeRe.FindStringSubmatch(title)
	if m == nil {
		return noRangeSentinel
	}
	startMin, ok := clockTokenMinutes(m[1])
	if !ok {
		return noRangeSentinel
	}
	endMin, ok := clockTokenMinutes(m[2])
	if !ok {
		return noRangeSentinel
	}
	dur := endMin - startMin
	if dur < 0 {
		dur += 24 * 60
	}
	return dur
}

func clockTokenMinutes(token string) (int, bool) {
	dec, ok := ParseTimeToDecimal(normalizeRangeToken(token))
	if !ok {
		return 0, false
	}
	return int(dec*60 + 0.5), true
}

func timeRangeBounds(title string) (start, end float64, ok bool) {
	m := timeRangeRe.FindStringSubmatch(title)
	if m == nil {
		return 0, 0, false
	}
	start, sok := ParseTimeToDecimal(normalizeRangeToken(m[1]))
	end, eok := ParseTimeToDecimal(normalizeRangeToken(m[2]))
	if !sok || !eok {
		return 0, 0, false
	}
	return start, end, true
}

// normalizeRangeToken turns a matched "5:40A" into "5:40AM" so the clock
// token parser accepts it.
func normalizeRangeToken(token string) string {
	token = strings.TrimSpace(token)
	upper := strings.ToUpper(token)
	if strings.HasSuffix(upper, "A") || strings.HasSuffix(upper, "P") {
		return token + "m"
	}
	return token
}

// Is5MinuteMarket detects short-window markets by the explicit range
// duration. Two independent parsers are consulted; either flagging the
// title as at or under the cutoff is sufficient.
func Is5MinuteMarket(title string, cutoffMinutes int) bool {
	if cutoffMinutes <= 0 {
		cutoffMinutes = 5
	}
	if dur, ok := ExtractTimeRangeMinutes(title); ok && dur <= cutoffMinutes {
		return true
	}
	return timeDiffMinutes(title) <= cutoffMinutes
}
