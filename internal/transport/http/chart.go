package dashhttp

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	chartBackground = "#060c1b"
	chartTextColor  = "#eceff4"
	chartMutedColor = "#9ca3af"
	colorBankroll   = "#34d399"
	colorPnL        = "#3b82f6"
)

// pnlChart renders the session's bankroll and unrealized PnL history as a
// line chart. An empty or inactive session renders a short notice instead.
func (h *handlers) pnlChart(c *gin.Context) {
	view := h.cfg.Session.Snapshot()
	if !view.Active || len(view.History) == 0 {
		c.Data(http.StatusOK, "text/html; charset=utf-8",
			[]byte("<html><body><p>No simulation history yet. Start a session and let it run a few refresh cycles.</p></body></html>"))
		return
	}

	xAxis := make([]string, len(view.History))
	bankroll := make([]opts.LineData, len(view.History))
	pnl := make([]opts.LineData, len(view.History))
	for i, s := range view.History {
		xAxis[i] = fmt.Sprintf("%.1fm", s.RuntimeMin)
		bankroll[i] = opts.LineData{Value: round2(s.Bankroll)}
		pnl[i] = opts.LineData{Value: round2(s.PnL)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           "1200px",
			Height:          "520px",
			BackgroundColor: chartBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         "Simulated Bankroll",
			Subtitle:      fmt.Sprintf("session %s | 1:%.0f copy | runtime %.1f min", view.ID, view.CopyRatio, view.RuntimeMin),
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: chartTextColor, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: chartMutedColor},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: chartTextColor}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: chartMutedColor},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: chartMutedColor},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartMutedColor, Opacity: opts.Float(0.2)}},
		}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("Bankroll ($)", bankroll,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBankroll, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), Smooth: opts.Bool(true)}),
	)
	line.AddSeries("Unrealized PnL ($)", pnl,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorPnL, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), Smooth: opts.Bool(true)}),
	)

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(c.Writer); err != nil {
		c.String(http.StatusOK, "chart render failed: %v", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
