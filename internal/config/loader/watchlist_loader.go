package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"polywatch/internal/classify"
	"polywatch/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// watchlistFile 是 YAML 配置文件结构。额外项会追加到内置清单之后。
type watchlistFile struct {
	Tickers   []string `yaml:"tickers"`
	FullNames []string `yaml:"full_names"`
	Replace   bool     `yaml:"replace"` // true 时完全替换内置清单
}

// WatchlistSnapshot 对外暴露的只读快照。
type WatchlistSnapshot struct {
	Version  int64
	LoadedAt time.Time
	List     classify.Watchlist
}

// ChangeListener 在清单变更时被调用。
type ChangeListener func(WatchlistSnapshot)

// WatchlistLoader 从 YAML 文件加载加密货币关键词清单，并监听热更新。
// 文件缺失不算错误：直接使用内置清单。
type WatchlistLoader struct {
	path    string
	watcher *fsnotify.Watcher

	mu        sync.RWMutex
	snapshot  WatchlistSnapshot
	listeners []ChangeListener
}

// NewWatchlistLoader 读取清单文件并开始监听 FS 事件。
func NewWatchlistLoader(path string) (*WatchlistLoader, error) {
	l := &WatchlistLoader{path: strings.TrimSpace(path)}
	if err := l.reload(); err != nil {
		return nil, err
	}
	if l.path != "" {
		if err := l.watch(); err != nil {
			logger.Warnf("watchlist watch disabled: %v", err)
		}
	}
	return l, nil
}

// Snapshot 返回当前清单快照。
func (l *WatchlistLoader) Snapshot() WatchlistSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Watchlist 返回当前生效的清单。
func (l *WatchlistLoader) Watchlist() classify.Watchlist {
	return l.Snapshot().List
}

// Subscribe 注册监听器，并立即收到一次完整快照。
func (l *WatchlistLoader) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	snap := l.snapshot
	l.mu.Unlock()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("watchlist listener panic: %v", r)
			}
		}()
		fn(snap)
	}()
}

// Close 停止监听。
func (l *WatchlistLoader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}

func (l *WatchlistLoader) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors replace files on save, which drops
	// a watch placed on the file itself.
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		w.Close()
		return err
	}
	l.watcher = w
	go func() {
		base := filepath.Base(l.path)
		for {
			select {
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(evt.Name) != base {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := l.reload(); err != nil {
					logger.Errorf("watchlist reload failed (%s): %v", evt.Name, err)
					continue
				}
				l.notify()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("watchlist watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (l *WatchlistLoader) notify() {
	l.mu.RLock()
	snap := l.snapshot
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		if fn == nil {
			continue
		}
		go func(cb ChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("watchlist listener panic: %v", r)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func (l *WatchlistLoader) reload() error {
	list, err := loadWatchlist(l.path)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.snapshot = WatchlistSnapshot{
		Version:  l.snapshot.Version + 1,
		LoadedAt: time.Now(),
		List:     list,
	}
	l.mu.Unlock()
	logger.Infof("Watchlist loaded: %d tickers, %d names", len(list.Tickers), len(list.FullNames))
	return nil
}

func loadWatchlist(path string) (classify.Watchlist, error) {
	builtin := classify.DefaultWatchlist()
	if strings.TrimSpace(path) == "" {
		return builtin, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return builtin, nil
		}
		return classify.Watchlist{}, fmt.Errorf("read watchlist failed: %w", err)
	}
	var file watchlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return classify.Watchlist{}, fmt.Errorf("parse watchlist failed: %w", err)
	}
	if file.Replace {
		return classify.Watchlist{
			Tickers:   normalizeTerms(file.Tickers),
			FullNames: normalizeTerms(file.FullNames),
		}, nil
	}
	return classify.Watchlist{
		Tickers:   mergeTerms(builtin.Tickers, file.Tickers),
		FullNames: mergeTerms(builtin.FullNames, file.FullNames),
	}, nil
}

func normalizeTerms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, term := range in {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func mergeTerms(base, extra []string) []string {
	merged := make([]string, 0, len(base)+len(extra))
	merged = append(merged, base...)
	merged = append(merged, extra...)
	return normalizeTerms(merged)
}
