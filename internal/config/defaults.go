package config

import "strings"

// 默认值常量
const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":8501"
	defaultAppLogPath       = "/data/logs/polywatch.log"
	defaultWindowMinutes    = 120
	defaultRefreshInterval  = "30s"
	defaultFiveMinCutoff    = 5
	defaultWatchlistPath    = "configs/watchlist.yaml"
	defaultDataAPIURL       = "https://data-api.polymarket.com"
	defaultGammaAPIURL      = "https://gamma-api.polymarket.com"
	defaultAPITimeout       = 10
	defaultPageLimit        = 500
	defaultMaxPages         = 4
	defaultEndDateTTL       = 60
	defaultWSURL            = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	defaultSubscribeMax     = 20
	defaultBufferSize       = 2000
	defaultPingInterval     = 10
	defaultSimBankroll      = 1000
	defaultSimAllocationPct = 10
	defaultSimMinShares     = 5
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Trader.applyDefaults(keys)
	c.Filter.applyDefaults(keys)
	c.Polymarket.applyDefaults(keys)
	c.Stream.applyDefaults(keys)
	c.Simulator.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (t *TraderConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trader.refresh_interval", &t.RefreshInterval, defaultRefreshInterval),
		fieldDefault{
			key:   "trader.window_minutes",
			need:  func() bool { return t.WindowMinutes <= 0 },
			apply: func() { t.WindowMinutes = defaultWindowMinutes },
		},
	)
}

func (f *FilterConfig) applyDefaults(keys keySet) {
	if f == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("filter.crypto_only", &f.CryptoOnly, true),
		boolFieldDefault("filter.allow_5m_markets", &f.Allow5MinuteMarkets, true),
		stringFieldDefault("filter.watchlist_path", &f.WatchlistPath, defaultWatchlistPath),
		fieldDefault{
			key:   "filter.five_minute_cutoff",
			need:  func() bool { return f.FiveMinuteCutoff <= 0 },
			apply: func() { f.FiveMinuteCutoff = defaultFiveMinCutoff },
		},
	)
}

func (p *PolymarketConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("polymarket.data_api_url", &p.DataAPIURL, defaultDataAPIURL),
		stringFieldDefault("polymarket.gamma_api_url", &p.GammaAPIURL, defaultGammaAPIURL),
		fieldDefault{
			key:   "polymarket.timeout_seconds",
			need:  func() bool { return p.TimeoutSeconds <= 0 },
			apply: func() { p.TimeoutSeconds = defaultAPITimeout },
		},
		fieldDefault{
			key:   "polymarket.page_limit",
			need:  func() bool { return p.PageLimit <= 0 },
			apply: func() { p.PageLimit = defaultPageLimit },
		},
		fieldDefault{
			key:   "polymarket.max_pages",
			need:  func() bool { return p.MaxPages <= 0 },
			apply: func() { p.MaxPages = defaultMaxPages },
		},
		fieldDefault{
			key:   "polymarket.end_date_ttl_seconds",
			need:  func() bool { return p.EndDateTTLSeconds <= 0 },
			apply: func() { p.EndDateTTLSeconds = defaultEndDateTTL },
		},
	)
}

func (s *StreamConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("stream.enabled", &s.Enabled, true),
		stringFieldDefault("stream.ws_url", &s.WSURL, defaultWSURL),
		fieldDefault{
			key:   "stream.subscribe_max",
			need:  func() bool { return s.SubscribeMax <= 0 },
			apply: func() { s.SubscribeMax = defaultSubscribeMax },
		},
		fieldDefault{
			key:   "stream.buffer_size",
			need:  func() bool { return s.BufferSize <= 0 },
			apply: func() { s.BufferSize = defaultBufferSize },
		},
		fieldDefault{
			key:   "stream.ping_interval_seconds",
			need:  func() bool { return s.PingIntervalSeconds <= 0 },
			apply: func() { s.PingIntervalSeconds = defaultPingInterval },
		},
	)
}

func (s *SimulatorConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "simulator.default_bankroll",
			need:  func() bool { return s.DefaultBankroll <= 0 },
			apply: func() { s.DefaultBankroll = defaultSimBankroll },
		},
		fieldDefault{
			key:   "simulator.default_allocation_pct",
			need:  func() bool { return s.DefaultAllocationPct <= 0 },
			apply: func() { s.DefaultAllocationPct = defaultSimAllocationPct },
		},
		fieldDefault{
			key:   "simulator.min_shares",
			need:  func() bool { return s.MinShares <= 0 },
			apply: func() { s.MinShares = defaultSimMinShares },
		},
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
