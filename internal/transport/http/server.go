package dashhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"polywatch/internal/logger"
	"polywatch/internal/simulator"

	"github.com/gin-gonic/gin"
)

// Server 提供跟单看板的 HTTP 服务（页面 + JSON 接口 + 图表）。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述看板服务依赖。
type ServerConfig struct {
	Addr          string
	Service       TradeService
	Session       *simulator.Session
	MinShares     float64
	WindowMinutes int
	Include5m     bool
}

// NewServer 构建看板 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("dashboard server requires a trade service")
	}
	if cfg.Session == nil {
		return nil, errors.New("dashboard server requires a simulator session")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8501"
	}
	if cfg.MinShares <= 0 {
		cfg.MinShares = simulator.DefaultMinShares
	}
	if cfg.WindowMinutes <= 0 {
		cfg.WindowMinutes = 120
	}
	if !logger.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if err := loadTemplates(router); err != nil {
		return nil, err
	}

	h := &handlers{cfg: cfg}
	h.register(router)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// requestLogger 记录页面刷新与接口调用，便于追踪。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
