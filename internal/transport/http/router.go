package dashhttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"polywatch/internal/simulator"
	"polywatch/internal/tracker"

	"github.com/gin-gonic/gin"
)

// TradeService is the view layer the handlers read from. *tracker.Tracker
// satisfies it; tests use a stub.
type TradeService interface {
	RecentTrades(ctx context.Context, minutesBack int, include5m bool) ([]tracker.TradeRow, tracker.FeedStats)
	OpenPositions(ctx context.Context) []simulator.Position
	Summary(ctx context.Context) tracker.Summary
	ClosedPnL(ctx context.Context) float64
}

type handlers struct {
	cfg ServerConfig
}

func (h *handlers) register(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", h.index)
	router.GET("/charts/pnl", h.pnlChart)

	api := router.Group("/api")
	api.GET("/trades", h.trades)
	api.GET("/positions", h.positions)
	api.GET("/summary", h.summary)
	api.GET("/simulation", h.simulation)
	api.POST("/simulation/start", h.simulationStart)
	api.POST("/simulation/reset", h.simulationReset)
}

func (h *handlers) trades(c *gin.Context) {
	minutes := h.cfg.WindowMinutes
	if raw := c.Query("minutes_back"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			minutes = n
		}
	}
	include5m := h.cfg.Include5m
	if raw := c.Query("include_5m"); raw != "" {
		include5m = parseBool(raw, include5m)
	}
	rows, stats := h.cfg.Service.RecentTrades(c.Request.Context(), minutes, include5m)
	if rows == nil {
		rows = []tracker.TradeRow{}
	}
	c.JSON(http.StatusOK, gin.H{
		"trades":       rows,
		"stats":        stats,
		"minutes_back": minutes,
		"include_5m":   include5m,
	})
}

func (h *handlers) positions(c *gin.Context) {
	positions := h.cfg.Service.OpenPositions(c.Request.Context())
	if positions == nil {
		positions = []simulator.Position{}
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (h *handlers) summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Service.Summary(c.Request.Context()))
}

// simulation recomputes the copied portfolio against the live positions on
// every call. Without an active session it answers valid=false, never 5xx.
func (h *handlers) simulation(c *gin.Context) {
	result, view := h.runSimulation(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"result": result, "session": view})
}

func (h *handlers) runSimulation(ctx context.Context) (simulator.Result, simulator.View) {
	view := h.cfg.Session.Snapshot()
	if !view.Active {
		return simulator.Result{Valid: false, Message: "simulation not started"}, view
	}
	positions := h.cfg.Service.OpenPositions(ctx)
	// Settled trades credit the simulated bankroll at the copied scale.
	bankroll := view.Bankroll
	if view.CopyRatio > 0 {
		bankroll += h.cfg.Service.ClosedPnL(ctx) / view.CopyRatio
	}
	result := simulator.Run(positions, bankroll, view.CopyRatio, h.cfg.MinShares)
	return result, view
}

type startRequest struct {
	Bankroll      float64 `json:"bankroll"`
	AllocationPct float64 `json:"allocation_pct"`
}

func (h *handlers) simulationStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "invalid request body"})
		return
	}
	view := h.cfg.Session.Start(req.Bankroll, req.AllocationPct)
	c.JSON(http.StatusOK, gin.H{"session": view})
}

func (h *handlers) simulationReset(c *gin.Context) {
	h.cfg.Session.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) index(c *gin.Context) {
	ctx := c.Request.Context()
	summary := h.cfg.Service.Summary(ctx)
	rows, stats := h.cfg.Service.RecentTrades(ctx, h.cfg.WindowMinutes, h.cfg.Include5m)
	positions := h.cfg.Service.OpenPositions(ctx)
	result, view := h.runSimulation(ctx)
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Summary":   summary,
		"Trades":    rows,
		"Stats":     stats,
		"Positions": positions,
		"Sim":       result,
		"Session":   view,
		"Window":    h.cfg.WindowMinutes,
	})
}

func parseBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
