package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"polywatch/internal/logger"
	"polywatch/internal/pkg/convert"
	"polywatch/internal/record"
)

const (
	DefaultWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	defaultPingInterval   = 10 * time.Second
	defaultSubscribeMax   = 20
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 60 * time.Second
	handshakeTimeout      = 10 * time.Second
	writeTimeout          = 5 * time.Second
)

// AssetSource supplies the asset ids to subscribe to.
type AssetSource interface {
	RecentAssets(ctx context.Context, wallet string, max int) []string
}

// Config configures the live listener.
type Config struct {
	URL          string
	Wallet       string
	SubscribeMax int
	PingInterval time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.URL) == "" {
		c.URL = DefaultWSURL
	}
	if c.SubscribeMax <= 0 {
		c.SubscribeMax = defaultSubscribeMax
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	return c
}

// Listener keeps one websocket subscription alive for the lifetime of the
// process, appending normalized trade events to the buffer. It reconnects
// forever with exponential backoff; losing the feed only degrades the
// dashboard to REST data.
type Listener struct {
	cfg    Config
	assets AssetSource
	buffer *Buffer
}

func NewListener(cfg Config, assets AssetSource, buffer *Buffer) *Listener {
	return &Listener{cfg: cfg.withDefaults(), assets: assets, buffer: buffer}
}

// Run blocks until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	delay := initialReconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := l.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf("stream: connection lost: %v (retry in %s)", err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (l *Listener) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, l.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Infof("stream: connected to %s", l.cfg.URL)

	var writeMu sync.Mutex
	send := func(payload []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteMessage(websocket.TextMessage, payload)
	}

	if err := l.subscribe(ctx, send); err != nil {
		return err
	}

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go func() {
		ticker := time.NewTicker(l.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				if err := send([]byte("ping")); err != nil {
					return
				}
			}
		}
	}()

	// Unblock the read loop when the context is cancelled.
	go func() {
		<-pingCtx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		text := strings.TrimSpace(string(msg))
		if text == "ping" {
			_ = send([]byte("pong"))
			continue
		}
		if text == "pong" || text == "" {
			continue
		}
		l.handleMessage(text)
	}
}

func (l *Listener) subscribe(ctx context.Context, send func([]byte) error) error {
	var assets []string
	if l.assets != nil {
		assets = l.assets.RecentAssets(ctx, l.cfg.Wallet, l.cfg.SubscribeMax)
	}
	if len(assets) == 0 {
		logger.Warnf("stream: no assets to subscribe, feed will stay quiet until reconnect")
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"type":       "market",
		"assets_ids": assets,
	})
	if err != nil {
		return err
	}
	logger.Infof("stream: subscribed to %d assets", len(assets))
	return send(payload)
}

// handleMessage normalizes one websocket payload (a single event or an
// array of events) into buffer records. Anything unparseable is dropped.
func (l *Listener) handleMessage(text string) {
	if !gjson.Valid(text) {
		return
	}
	parsed := gjson.Parse(text)
	if parsed.IsArray() {
		for _, item := range parsed.Array() {
			l.handleEvent(item)
		}
		return
	}
	l.handleEvent(parsed)
}

func (l *Listener) handleEvent(event gjson.Result) {
	if !event.IsObject() {
		return
	}
	eventType := event.Get("event_type").String()
	if eventType != "trade" && eventType != "last_trade_price" {
		return
	}
	rec := record.FromResult(event)

	assetID := rec.AssetID()
	size := firstAmount(event, "size", "amount", "sizeMatched")
	price := firstAmount(event, "price", "last_price")
	title := rec.Title()
	if title == "" {
		title = event.Get("market.question").String()
	}
	wallet := rec.Wallet()
	if wallet == "" {
		wallet = strings.ToLower(l.cfg.Wallet)
	}

	normalized, err := json.Marshal(map[string]any{
		"event_type":  eventType,
		"asset_id":    assetID,
		"conditionId": event.Get("market").String(),
		"size":        size,
		"price":       price,
		"timestamp":   convert.ToUnixSeconds(event.Get("timestamp").Value(), time.Now().Unix()),
		"proxyWallet": wallet,
		"title":       title,
	})
	if err != nil {
		return
	}
	out, ok := record.Parse(string(normalized))
	if !ok {
		return
	}
	l.buffer.Append(out)
	logger.Debugf("stream: trade %s size=%.2f price=%.3f", shortAsset(assetID), size, price)
}

func firstAmount(event gjson.Result, fields ...string) float64 {
	for _, f := range fields {
		if v := event.Get(f); v.Exists() {
			return convert.ParseAmount(v.Value())
		}
	}
	return 0
}

func shortAsset(id string) string {
	if len(id) > 16 {
		return id[:16] + "..."
	}
	return id
}
