package config

import (
	"fmt"
	"strings"

	"polywatch/internal/scheduler"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Trader.validate(); err != nil {
		return err
	}
	if err := c.Filter.validate(); err != nil {
		return err
	}
	if err := c.Polymarket.validate(); err != nil {
		return err
	}
	if err := c.Stream.validate(); err != nil {
		return err
	}
	if err := c.Simulator.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TraderConfig) validate() error {
	wallet := strings.TrimSpace(t.Wallet)
	if wallet == "" {
		return fmt.Errorf("trader.wallet cannot be empty")
	}
	if !strings.HasPrefix(strings.ToLower(wallet), "0x") || len(wallet) != 42 {
		return fmt.Errorf("trader.wallet must be a 0x-prefixed 42-char address, got %s", wallet)
	}
	if t.WindowMinutes <= 0 {
		return fmt.Errorf("trader.window_minutes must be > 0")
	}
	if _, ok := scheduler.ParseIntervalDuration(t.RefreshInterval); !ok {
		return fmt.Errorf("trader.refresh_interval invalid: %s", t.RefreshInterval)
	}
	return nil
}

func (f *FilterConfig) validate() error {
	if f.FiveMinuteCutoff <= 0 {
		return fmt.Errorf("filter.five_minute_cutoff must be > 0")
	}
	return nil
}

func (p *PolymarketConfig) validate() error {
	if strings.TrimSpace(p.DataAPIURL) == "" {
		return fmt.Errorf("polymarket.data_api_url cannot be empty")
	}
	if strings.TrimSpace(p.GammaAPIURL) == "" {
		return fmt.Errorf("polymarket.gamma_api_url cannot be empty")
	}
	if p.PageLimit < 1 || p.PageLimit > 500 {
		return fmt.Errorf("polymarket.page_limit must be in [1,500]")
	}
	return nil
}

func (s *StreamConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if !strings.HasPrefix(s.WSURL, "ws://") && !strings.HasPrefix(s.WSURL, "wss://") {
		return fmt.Errorf("stream.ws_url must be a ws:// or wss:// URL")
	}
	if s.BufferSize < 100 {
		return fmt.Errorf("stream.buffer_size must be >= 100")
	}
	return nil
}

func (s *SimulatorConfig) validate() error {
	if s.DefaultBankroll <= 0 {
		return fmt.Errorf("simulator.default_bankroll must be > 0")
	}
	if s.DefaultAllocationPct <= 0 || s.DefaultAllocationPct > 100 {
		return fmt.Errorf("simulator.default_allocation_pct must be in (0, 100]")
	}
	if s.MinShares < 0 {
		return fmt.Errorf("simulator.min_shares must be >= 0")
	}
	return nil
}
