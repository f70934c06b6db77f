package app

import (
	"fmt"
	"time"

	"polywatch/internal/classify"
	"polywatch/internal/config"
	"polywatch/internal/config/loader"
	"polywatch/internal/polymarket"
	"polywatch/internal/simulator"
	"polywatch/internal/stream"
	"polywatch/internal/tracker"
	dashhttp "polywatch/internal/transport/http"
)

// buildApp 按依赖顺序手工装配各组件：
// client → buffer/listener → watchlist → tracker → session → http server。
func buildApp(cfg *config.Config) (*App, error) {
	client := polymarket.NewClient(polymarket.Config{
		DataAPIURL:  cfg.Polymarket.DataAPIURL,
		GammaAPIURL: cfg.Polymarket.GammaAPIURL,
		Timeout:     time.Duration(cfg.Polymarket.TimeoutSeconds) * time.Second,
		PageLimit:   cfg.Polymarket.PageLimit,
		MaxPages:    cfg.Polymarket.MaxPages,
		EndDateTTL:  time.Duration(cfg.Polymarket.EndDateTTLSeconds) * time.Second,
	})

	buffer := stream.NewBuffer(cfg.Stream.BufferSize)
	var listener *stream.Listener
	if cfg.Stream.Enabled {
		listener = stream.NewListener(stream.Config{
			URL:          cfg.Stream.WSURL,
			Wallet:       cfg.Trader.Wallet,
			SubscribeMax: cfg.Stream.SubscribeMax,
			PingInterval: time.Duration(cfg.Stream.PingIntervalSeconds) * time.Second,
		}, client, buffer)
	}

	watchlist, err := loader.NewWatchlistLoader(cfg.Filter.WatchlistPath)
	if err != nil {
		return nil, fmt.Errorf("watchlist loader failed: %w", err)
	}

	resolver := classify.NewResolver(client)
	trk := tracker.New(tracker.Config{
		Wallet:           cfg.Trader.Wallet,
		WindowMinutes:    cfg.Trader.WindowMinutes,
		CryptoOnly:       cfg.Filter.CryptoOnly,
		Allow5m:          cfg.Filter.Allow5MinuteMarkets,
		FiveMinuteCutoff: cfg.Filter.FiveMinuteCutoff,
		CacheTTL:         cfg.Trader.RefreshDuration(),
		ActivityLimit:    cfg.Polymarket.PageLimit,
	}, client, buffer, watchlist, resolver)

	session := simulator.NewSession()
	server, err := dashhttp.NewServer(dashhttp.ServerConfig{
		Addr:          cfg.App.HTTPAddr,
		Service:       trk,
		Session:       session,
		MinShares:     cfg.Simulator.MinShares,
		WindowMinutes: cfg.Trader.WindowMinutes,
		Include5m:     cfg.Filter.Allow5MinuteMarkets,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard server failed: %w", err)
	}

	return &App{
		cfg:       cfg,
		tracker:   trk,
		session:   session,
		server:    server,
		listener:  listener,
		watchlist: watchlist,
	}, nil
}
