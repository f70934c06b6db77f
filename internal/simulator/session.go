package simulator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sample is one point of the session's PnL history chart.
type Sample struct {
	At         time.Time `json:"at"`
	RuntimeMin float64   `json:"runtime_min"`
	Bankroll   float64   `json:"bankroll"`
	PnL        float64   `json:"pnl"`
}

// Session holds the per-run simulator state: bankroll, allocation and the
// running PnL history. It lives only in memory and resets on restart.
// HTTP handlers and the poll loop both touch it, hence the mutex.
type Session struct {
	mu            sync.Mutex
	id            string
	startedAt     time.Time
	bankroll      float64
	allocationPct float64
	history       []Sample
	active        bool
}

// View is an immutable snapshot of the session for handlers.
type View struct {
	ID            string    `json:"id"`
	Active        bool      `json:"active"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	RuntimeMin    float64   `json:"runtime_min"`
	Bankroll      float64   `json:"bankroll"`
	AllocationPct float64   `json:"allocation_pct"`
	CopyRatio     float64   `json:"copy_ratio"`
	History       []Sample  `json:"history"`
}

func NewSession() *Session {
	return &Session{}
}

// Start begins a new run, discarding any previous history.
func (s *Session) Start(bankroll, allocationPct float64) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bankroll <= 0 {
		bankroll = 1000
	}
	if allocationPct <= 0 || allocationPct > 100 {
		allocationPct = 10
	}
	s.id = uuid.NewString()
	s.startedAt = time.Now()
	s.bankroll = bankroll
	s.allocationPct = allocationPct
	s.history = nil
	s.active = true
	return s.viewLocked()
}

// Reset stops the run and clears all session state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.startedAt = time.Time{}
	s.bankroll = 0
	s.allocationPct = 0
	s.history = nil
	s.active = false
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CopyRatio converts the allocation percentage to a divisor
// (10% -> 1:10 copying).
func (s *Session) CopyRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyRatioLocked()
}

func (s *Session) copyRatioLocked() float64 {
	if s.allocationPct <= 0 {
		return 0
	}
	return 100 / s.allocationPct
}

// Record appends a PnL history sample for the charts.
func (s *Session) Record(bankroll, pnl float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	now := time.Now()
	s.history = append(s.history, Sample{
		At:         now,
		RuntimeMin: now.Sub(s.startedAt).Minutes(),
		Bankroll:   bankroll,
		PnL:        pnl,
	})
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	hist := make([]Sample, len(s.history))
	copy(hist, s.history)
	v := View{
		ID:            s.id,
		Active:        s.active,
		Bankroll:      s.bankroll,
		AllocationPct: s.allocationPct,
		CopyRatio:     s.copyRatioLocked(),
		History:       hist,
	}
	if s.active {
		v.StartedAt = s.startedAt
		v.RuntimeMin = time.Since(s.startedAt).Minutes()
	}
	return v
}
