package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Active())
	assert.Equal(t, 0.0, s.CopyRatio())

	view := s.Start(1000, 10)
	assert.True(t, view.Active)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, 1000.0, view.Bankroll)
	assert.Equal(t, 10.0, view.CopyRatio)

	s.Record(1000, 5)
	s.Record(1002, 7)
	snap := s.Snapshot()
	assert.Len(t, snap.History, 2)
	assert.Equal(t, 7.0, snap.History[1].PnL)

	s.Reset()
	assert.False(t, s.Active())
	snap = s.Snapshot()
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.ID)
}

func TestSessionStartDefaults(t *testing.T) {
	s := NewSession()
	view := s.Start(0, 0)
	assert.Equal(t, 1000.0, view.Bankroll)
	assert.Equal(t, 10.0, view.AllocationPct)

	view = s.Start(500, 150) // pct out of range falls back
	assert.Equal(t, 500.0, view.Bankroll)
	assert.Equal(t, 10.0, view.AllocationPct)
	assert.Equal(t, 10.0, view.CopyRatio)
}

func TestSessionStartDiscardsHistory(t *testing.T) {
	s := NewSession()
	s.Start(1000, 10)
	s.Record(1000, 1)
	first := s.Snapshot().ID

	view := s.Start(2000, 20)
	assert.NotEqual(t, first, view.ID)
	assert.Empty(t, view.History)
	assert.Equal(t, 5.0, view.CopyRatio)
}

func TestSessionRecordIgnoredWhenInactive(t *testing.T) {
	s := NewSession()
	s.Record(1000, 5)
	assert.Empty(t, s.Snapshot().History)
}
