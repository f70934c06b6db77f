// Package simulator scales a trader's open positions down to a smaller
// bankroll and prices the resulting copy portfolio.
package simulator

import (
	"strings"

	"github.com/shopspring/decimal"

	"polywatch/internal/classify"
)

// DefaultMinShares is the smallest order the simulated marketplace
// accepts. Scaled positions below it are excluded, never zero-filled.
const DefaultMinShares = 5.0

// Position is the normalized open-position view consumed by the simulator.
type Position struct {
	Market      string // full display title, also the hedge grouping key
	Direction   classify.Direction
	Shares      float64 // absolute share count, >= 0
	AvgPrice    float64
	CurPrice    float64
	CashPnL     float64
	HasPnL      bool
	StatusLabel string
	AgeSec      int64
}

// SimPosition is one included leg of the simulated portfolio.
type SimPosition struct {
	Market       string
	Direction    classify.Direction
	StatusLabel  string
	TraderShares float64
	YourShares   float64
	YourCost     float64
	YourPnL      float64
	Hedge        bool
	AgeSec       int64
}

// Result reports the simulated portfolio. Callers must check Valid before
// reading the other fields.
type Result struct {
	Valid     bool          `json:"valid"`
	Message   string        `json:"message,omitempty"`
	Positions []SimPosition `json:"positions"`
	TotalCost float64       `json:"total_cost"`
	TotalPnL  float64       `json:"total_pnl"`
	Included  int           `json:"included_count"`
	Skipped   int           `json:"skipped_count"`
	Bankroll  float64       `json:"bankroll"`
}

func invalid(msg string) Result {
	return Result{Valid: false, Message: msg}
}

// Run scales each position by 1/copyRatio (rounded to 0.1 shares),
// enforces the minimum order size, and prices the included set with each
// leg's real average and current prices. Hedge pairs (exactly two legs in
// one market, one UP one DOWN) are all-or-nothing: if either scaled leg
// misses the minimum, both are skipped, since a partial hedge changes the
// risk exposure.
func Run(positions []Position, bankroll, copyRatio, minShares float64) Result {
	if copyRatio <= 0 {
		return invalid("copy ratio must be positive")
	}
	if minShares <= 0 {
		minShares = DefaultMinShares
	}
	if len(positions) == 0 {
		return invalid("No valid positions")
	}

	ratio := decimal.NewFromFloat(copyRatio)
	minDec := decimal.NewFromFloat(minShares)

	type scaled struct {
		pos    Position
		shares decimal.Decimal
	}
	byMarket := make(map[string][]scaled, len(positions))
	order := make([]string, 0, len(positions))
	for _, p := range positions {
		if _, seen := byMarket[p.Market]; !seen {
			order = append(order, p.Market)
		}
		yours := decimal.NewFromFloat(p.Shares).Div(ratio).Round(1)
		byMarket[p.Market] = append(byMarket[p.Market], scaled{pos: p, shares: yours})
	}

	var (
		out       []SimPosition
		totalCost = decimal.Zero
		totalPnL  = decimal.Zero
	)
	include := func(s scaled, hedge bool) {
		avg := decimal.NewFromFloat(s.pos.AvgPrice)
		cur := decimal.NewFromFloat(s.pos.CurPrice)
		cost := s.shares.Mul(avg)
		pnl := s.shares.Mul(cur.Sub(avg))
		totalCost = totalCost.Add(cost)
		totalPnL = totalPnL.Add(pnl)
		out = append(out, SimPosition{
			Market:       s.pos.Market,
			Direction:    s.pos.Direction,
			StatusLabel:  s.pos.StatusLabel,
			TraderShares: s.pos.Shares,
			YourShares:   s.shares.InexactFloat64(),
			YourCost:     cost.InexactFloat64(),
			YourPnL:      pnl.InexactFloat64(),
			Hedge:        hedge,
			AgeSec:       s.pos.AgeSec,
		})
	}

	for _, market := range order {
		group := byMarket[market]
		if len(group) == 2 && isHedgePair(group[0].pos, group[1].pos) {
			if group[0].shares.GreaterThanOrEqual(minDec) && group[1].shares.GreaterThanOrEqual(minDec) {
				include(group[0], true)
				include(group[1], true)
			}
			continue
		}
		for _, s := range group {
			if s.shares.GreaterThanOrEqual(minDec) {
				include(s, false)
			}
		}
	}

	if len(out) == 0 {
		return invalid("No valid positions")
	}
	return Result{
		Valid:     true,
		Positions: out,
		TotalCost: totalCost.InexactFloat64(),
		TotalPnL:  totalPnL.InexactFloat64(),
		Included:  len(out),
		Skipped:   len(positions) - len(out),
		Bankroll:  bankroll,
	}
}

func isHedgePair(a, b Position) bool {
	if a.Direction == b.Direction {
		return false
	}
	up := a.Direction == classify.DirectionUp || b.Direction == classify.DirectionUp
	down := a.Direction == classify.DirectionDown || b.Direction == classify.DirectionDown
	return up && down
}

var settledWords = []string{"expired", "settled", "closed", "resolved"}

// Settled reports whether a status label or provider status field marks a
// finished market.
func Settled(status string) bool {
	status = strings.ToLower(status)
	for _, w := range settledWords {
		if strings.Contains(status, w) {
			return true
		}
	}
	return false
}

// RealizedBankroll adds the realized PnL of expired or settled positions
// to the initial bankroll. Positions without any PnL field contribute
// nothing, so absent data leaves the bankroll unchanged.
func RealizedBankroll(initial float64, positions []Position) float64 {
	total := decimal.NewFromFloat(initial)
	for _, p := range positions {
		if !p.HasPnL {
			continue
		}
		if Settled(p.StatusLabel) {
			total = total.Add(decimal.NewFromFloat(p.CashPnL))
		}
	}
	return total.InexactFloat64()
}
