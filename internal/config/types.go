package config

import (
	"strings"
	"time"

	"polywatch/internal/scheduler"
)

// Config 是 Polywatch 的主配置载体。
type Config struct {
	App        AppConfig        `toml:"app"`
	Trader     TraderConfig     `toml:"trader"`
	Filter     FilterConfig     `toml:"filter"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Stream     StreamConfig     `toml:"stream"`
	Simulator  SimulatorConfig  `toml:"simulator"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// TraderConfig 指定被跟踪的钱包与刷新节奏。
type TraderConfig struct {
	Wallet          string `toml:"wallet"`
	WindowMinutes   int    `toml:"window_minutes"`
	RefreshInterval string `toml:"refresh_interval"` // 例如 "30s" / "1m"
}

// RefreshDuration 返回解析后的刷新间隔（非法时回退 30 秒）。
func (t TraderConfig) RefreshDuration() time.Duration {
	if d, ok := scheduler.ParseIntervalDuration(t.RefreshInterval); ok {
		return d
	}
	return 30 * time.Second
}

// FilterConfig 控制市场筛选规则。
type FilterConfig struct {
	CryptoOnly          bool   `toml:"crypto_only"`
	Allow5MinuteMarkets bool   `toml:"allow_5m_markets"`
	FiveMinuteCutoff    int    `toml:"five_minute_cutoff"`
	WatchlistPath       string `toml:"watchlist_path"`
}

type PolymarketConfig struct {
	DataAPIURL        string `toml:"data_api_url"`
	GammaAPIURL       string `toml:"gamma_api_url"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	PageLimit         int    `toml:"page_limit"`
	MaxPages          int    `toml:"max_pages"`
	EndDateTTLSeconds int    `toml:"end_date_ttl_seconds"`
}

// StreamConfig 描述 CLOB websocket 订阅参数。
type StreamConfig struct {
	Enabled             bool   `toml:"enabled"`
	WSURL               string `toml:"ws_url"`
	SubscribeMax        int    `toml:"subscribe_max"`
	BufferSize          int    `toml:"buffer_size"`
	PingIntervalSeconds int    `toml:"ping_interval_seconds"`
}

type SimulatorConfig struct {
	DefaultBankroll      float64 `toml:"default_bankroll"`
	DefaultAllocationPct float64 `toml:"default_allocation_pct"`
	MinShares            float64 `toml:"min_shares"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
