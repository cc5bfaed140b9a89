package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"

	"github.com/labstack/echo/v4"
)

// StatusProvider returns a consistent copy of every asset's state.
type StatusProvider interface {
	Snapshot() []domain.AssetState
}

// Config holds server configuration.
type Config struct {
	Addr            string       // e.g. ":9090"
	Metrics         http.Handler // Optional, mounted at /metrics
	ShutdownTimeout time.Duration
	Logger          ports.Logger
}

// Server exposes health, status and metrics over HTTP.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger ports.Logger
	status StatusProvider

	shutdownTimeout time.Duration
}

type assetStatus struct {
	Asset         string   `json:"asset"`
	Position      string   `json:"position"`
	EntryPrice    *float64 `json:"entry_price"`
	CumulativePnL float64  `json:"cumulative_pnl"`
	TradeCount    int      `json:"trade_count"`
}

type statusResponse struct {
	Assets   []assetStatus `json:"assets"`
	TotalPnL float64       `json:"total_pnl"`
}

// New builds the server. Nothing listens until Start.
func New(cfg Config, status StatusProvider) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for HTTP server")
	}
	if status == nil {
		return nil, fmt.Errorf("status provider is required for HTTP server")
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, addr: cfg.Addr, logger: cfg.Logger, status: status, shutdownTimeout: timeout}
	e.Use(s.recoverMiddleware, s.loggingMiddleware)

	e.GET("/healthz", s.health)
	e.GET("/status", s.statusHandler)
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}
	return s, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens in the background until Stop.
func (s *Server) Start() {
	go func() {
		s.logger.Info(context.Background(), "HTTP server listening", map[string]interface{}{"addr": s.addr})
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), err, "HTTP server error", map[string]interface{}{"addr": s.addr})
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(c echo.Context) error {
	states := s.status.Snapshot()
	resp := statusResponse{Assets: make([]assetStatus, 0, len(states))}
	for _, st := range states {
		resp.Assets = append(resp.Assets, assetStatus{
			Asset:         st.Asset,
			Position:      string(st.Position),
			EntryPrice:    st.EntryPrice,
			CumulativePnL: st.CumulativePnL,
			TradeCount:    st.TradeCount,
		})
		resp.TotalPnL += st.CumulativePnL
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		req := c.Request()
		s.logger.Debug(req.Context(), "HTTP request", map[string]interface{}{
			"method":  req.Method,
			"path":    req.URL.Path,
			"status":  c.Response().Status,
			"latency": time.Since(start).String(),
		})
		return err
	}
}

func (s *Server) recoverMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				s.logger.Error(c.Request().Context(), perr, "HTTP handler panic", map[string]interface{}{"path": c.Request().URL.Path})
				err = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		return next(c)
	}
}
