package stream

import (
	"fmt"
	"testing"

	"polywatch/internal/record"

	"github.com/stretchr/testify/assert"
)

func tradeRec(t *testing.T, n int, ts int64) record.Raw {
	t.Helper()
	rec, ok := record.Parse(fmt.Sprintf(`{"title":"trade-%d","timestamp":%d}`, n, ts))
	assert.True(t, ok)
	return rec
}

func TestBufferAppendAndLen(t *testing.T) {
	b := NewBuffer(3)
	assert.Equal(t, 0, b.Len())

	b.Append(tradeRec(t, 1, 100))
	b.Append(tradeRec(t, 2, 200))
	assert.Equal(t, 2, b.Len())

	snap := b.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "trade-1", snap[0].Title())
	assert.Equal(t, "trade-2", snap[1].Title())
}

func TestBufferDropsOldest(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Append(tradeRec(t, i, int64(i*100)))
	}
	assert.Equal(t, 3, b.Len())

	snap := b.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, "trade-3", snap[0].Title())
	assert.Equal(t, "trade-5", snap[2].Title())
}

func TestBufferSnapshotIsolated(t *testing.T) {
	b := NewBuffer(3)
	b.Append(tradeRec(t, 1, 100))
	snap := b.Snapshot()
	b.Append(tradeRec(t, 2, 200))
	assert.Len(t, snap, 1)
	assert.Equal(t, 2, b.Len())
}

func TestBufferRecent(t *testing.T) {
	b := NewBuffer(10)
	b.Append(tradeRec(t, 1, 100))
	b.Append(tradeRec(t, 2, 200))
	b.Append(tradeRec(t, 3, 300))

	recent := b.Recent(200)
	assert.Len(t, recent, 2)
	assert.Equal(t, "trade-2", recent[0].Title())

	assert.Empty(t, b.Recent(1000))
}

func TestBufferIgnoresEmptyRecords(t *testing.T) {
	b := NewBuffer(3)
	b.Append(record.Raw{})
	assert.Equal(t, 0, b.Len())
}

func TestBufferDefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	for i := 0; i < DefaultBufferSize+5; i++ {
		b.Append(tradeRec(t, i, int64(i)))
	}
	assert.Equal(t, DefaultBufferSize, b.Len())
}
