// Package stream maintains a best-effort live trade feed from the
// Polymarket CLOB websocket.
package stream

import (
	"sync"

	"polywatch/internal/record"
)

const DefaultBufferSize = 2000

// Buffer is a fixed-capacity ring of recent live trades. It has exactly
// one writer (the listener); readers get point-in-time copies and
// tolerate stale snapshots.
type Buffer struct {
	mu    sync.RWMutex
	items []record.Raw
	next  int
	full  bool
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{items: make([]record.Raw, capacity)}
}

// Append adds a trade, dropping the oldest entry once full.
func (b *Buffer) Append(rec record.Raw) {
	if !rec.Exists() {
		return
	}
	b.mu.Lock()
	b.items[b.next] = rec
	b.next++
	if b.next == len(b.items) {
		b.next = 0
		b.full = true
	}
	b.mu.Unlock()
}

// Snapshot returns the buffered trades oldest-first.
func (b *Buffer) Snapshot() []record.Raw {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.full {
		out := make([]record.Raw, b.next)
		copy(out, b.items[:b.next])
		return out
	}
	out := make([]record.Raw, 0, len(b.items))
	out = append(out, b.items[b.next:]...)
	out = append(out, b.items[:b.next]...)
	return out
}

// Recent returns buffered trades with a timestamp at or after the given
// unix second.
func (b *Buffer) Recent(sinceUnix int64) []record.Raw {
	all := b.Snapshot()
	out := make([]record.Raw, 0, len(all))
	for _, rec := range all {
		if rec.Timestamp(0) >= sinceUnix {
			out = append(out, rec)
		}
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.full {
		return len(b.items)
	}
	return b.next
}
