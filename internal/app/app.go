package app

import (
	"context"
	"fmt"

	"polywatch/internal/config"
	"polywatch/internal/config/loader"
	"polywatch/internal/logger"
	"polywatch/internal/scheduler"
	"polywatch/internal/simulator"
	"polywatch/internal/stream"
	"polywatch/internal/tracker"
	dashhttp "polywatch/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动看板与数据流。
type App struct {
	cfg       *config.Config
	tracker   *tracker.Tracker
	session   *simulator.Session
	server    *dashhttp.Server
	listener  *stream.Listener
	watchlist *loader.WatchlistLoader
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildApp(cfg)
}

// Run 启动 HTTP 服务、行情流与刷新循环，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.InfoBlock(fmt.Sprintf(
		"Polywatch starting\n"+
			"  trader:  %s\n"+
			"  window:  %d min\n"+
			"  refresh: %s\n"+
			"  http:    %s\n"+
			"  stream:  %v (crypto_only=%v, allow_5m=%v)",
		a.cfg.Trader.Wallet, a.cfg.Trader.WindowMinutes, a.cfg.Trader.RefreshInterval,
		a.cfg.App.HTTPAddr, a.cfg.Stream.Enabled, a.cfg.Filter.CryptoOnly, a.cfg.Filter.Allow5MinuteMarkets))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("dashboard server error: %w", err)
		}
		return nil
	})

	if a.listener != nil {
		group.Go(func() error {
			err := a.listener.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		defer a.watchlist.Close()
		loop := scheduler.NewLoop("refresh", a.cfg.Trader.RefreshDuration())
		loop.Start(ctx, a.refresh)
		return nil
	})

	return group.Wait()
}

// refresh warms the tracker caches and, when a simulation session is
// running, appends one PnL history sample.
func (a *App) refresh(ctx context.Context) {
	positions := a.tracker.OpenPositions(ctx)
	_, stats := a.tracker.RecentTrades(ctx, a.cfg.Trader.WindowMinutes, a.cfg.Filter.Allow5MinuteMarkets)
	logger.Debugf("refresh: %d positions, %d trades kept", len(positions), stats.Kept)

	if !a.session.Active() {
		return
	}
	view := a.session.Snapshot()
	bankroll := view.Bankroll
	if view.CopyRatio > 0 {
		bankroll += a.tracker.ClosedPnL(ctx) / view.CopyRatio
	}
	result := simulator.Run(positions, bankroll, view.CopyRatio, a.cfg.Simulator.MinShares)
	if result.Valid {
		a.session.Record(bankroll, result.TotalPnL)
	} else {
		a.session.Record(bankroll, 0)
	}
}
