package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"polywatch/internal/classify"
)

func writeWatchlist(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "watchlist.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWatchlistMissingFileUsesBuiltin(t *testing.T) {
	list, err := loadWatchlist(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, classify.DefaultWatchlist(), list)

	list, err = loadWatchlist("")
	assert.NoError(t, err)
	assert.Equal(t, classify.DefaultWatchlist(), list)
}

func TestLoadWatchlistMergesOntoBuiltin(t *testing.T) {
	path := writeWatchlist(t, t.TempDir(), `
tickers:
  - PEPE
  - " wif "
  - btc
full_names:
  - Dogwifhat
`)
	list, err := loadWatchlist(path)
	assert.NoError(t, err)

	builtin := classify.DefaultWatchlist()
	assert.Contains(t, builtin.Tickers, "btc")
	assert.Contains(t, list.Tickers, "btc")
	assert.Contains(t, list.Tickers, "pepe")
	assert.Contains(t, list.Tickers, "wif")
	assert.Contains(t, list.FullNames, "dogwifhat")
	// btc already exists in the builtin list, so the merge adds two.
	assert.Len(t, list.Tickers, len(builtin.Tickers)+2)
}

func TestLoadWatchlistReplaceMode(t *testing.T) {
	path := writeWatchlist(t, t.TempDir(), `
replace: true
tickers:
  - pepe
  - pepe
full_names:
  - pepecoin
`)
	list, err := loadWatchlist(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"pepe"}, list.Tickers)
	assert.Equal(t, []string{"pepecoin"}, list.FullNames)
	assert.False(t, list.IsCrypto("Bitcoin Up or Down"))
	assert.True(t, list.IsCrypto("Pepe Up or Down"))
}

func TestLoadWatchlistMalformedYAML(t *testing.T) {
	path := writeWatchlist(t, t.TempDir(), "tickers: [unterminated")
	_, err := loadWatchlist(path)
	assert.Error(t, err)
}

func TestWatchlistLoaderSnapshot(t *testing.T) {
	path := writeWatchlist(t, t.TempDir(), "tickers:\n  - pepe\n")
	l, err := NewWatchlistLoader(path)
	assert.NoError(t, err)
	defer l.Close()

	snap := l.Snapshot()
	assert.Equal(t, int64(1), snap.Version)
	assert.False(t, snap.LoadedAt.IsZero())
	assert.Contains(t, l.Watchlist().Tickers, "pepe")
}

func TestWatchlistLoaderReloadBumpsVersion(t *testing.T) {
	path := writeWatchlist(t, t.TempDir(), "tickers:\n  - pepe\n")
	l, err := NewWatchlistLoader(path)
	assert.NoError(t, err)
	defer l.Close()

	assert.NoError(t, os.WriteFile(path, []byte("tickers:\n  - wif\n"), 0o644))
	assert.NoError(t, l.reload())

	snap := l.Snapshot()
	assert.Equal(t, int64(2), snap.Version)
	assert.Contains(t, snap.List.Tickers, "wif")
}

func TestWatchlistLoaderSubscribeGetsSnapshot(t *testing.T) {
	l, err := NewWatchlistLoader("")
	assert.NoError(t, err)
	defer l.Close()

	got := make(chan WatchlistSnapshot, 1)
	l.Subscribe(func(snap WatchlistSnapshot) { got <- snap })

	snap := <-got
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, classify.DefaultWatchlist(), snap.List)
}

func TestNormalizeTerms(t *testing.T) {
	out := normalizeTerms([]string{" BTC ", "btc", "", "Eth"})
	assert.Equal(t, []string{"btc", "eth"}, out)
}
