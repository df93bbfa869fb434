// Package server exposes the market data tools over the Model Context Protocol.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"finmcp/internal/metrics"
	"finmcp/internal/resilience"
	"finmcp/internal/service"
	"finmcp/internal/session"
)

// Name is the implementation name announced to MCP clients.
const Name = "finmcp"

// Options configures a Server.
type Options struct {
	Version string
	Logger  zerolog.Logger
	// Metrics may be nil; a private recorder is created.
	Metrics *metrics.Recorder
	// Breaker, when set, is reported on /healthz.
	Breaker *resilience.CircuitBreaker
}

// Server owns the MCP server, its open sessions and the HTTP surface.
type Server struct {
	mcp      *mcp.Server
	svc      *service.Service
	sessions *session.Registry
	metrics  *metrics.Recorder
	health   *resilience.HealthMonitor
	logger   zerolog.Logger
}

// New creates a server with every tool registered.
func New(svc *service.Service, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &Server{
		svc:     svc,
		metrics: opts.Metrics,
		health:  resilience.NewHealthMonitor(),
		logger:  opts.Logger.With().Str("component", "server").Logger(),
	}
	s.sessions = session.NewRegistry(s.metrics.SetActiveSessions)

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: Name, Version: opts.Version}, &mcp.ServerOptions{
		InitializedHandler: s.onInitialized,
	})
	s.registerTools()

	s.health.RegisterComponent("sessions", func(ctx context.Context) resilience.ComponentHealth {
		return resilience.ComponentHealth{
			Status:  resilience.HealthStatusHealthy,
			Details: map[string]interface{}{"open": s.sessions.Len()},
		}
	})
	if opts.Breaker != nil {
		s.health.RegisterComponent("provider", resilience.CircuitHealthCheck(opts.Breaker))
	}
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Sessions returns the open session registry.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// onInitialized tracks a session from the initialized notification until it ends.
func (s *Server) onInitialized(ctx context.Context, req *mcp.InitializedRequest) {
	ss := req.Session
	transport := "http"
	if ss.ID() == "" {
		transport = "stdio"
	}
	s.track(ss.ID(), transport, ss.Wait)
}

// track registers a session and removes it once wait returns. A repeated
// notification for an id already tracked is ignored so that only the first
// watcher owns the entry.
func (s *Server) track(sessionID, transport string, wait func() error) {
	id, inserted := s.sessions.Add(sessionID, transport)
	if !inserted {
		s.logger.Warn().Str("session", id).Msg("Session already tracked")
		return
	}
	s.logger.Info().Str("session", id).Str("transport", transport).Int("open", s.sessions.Len()).Msg("Session opened")

	go func() {
		_ = wait()
		s.sessions.Remove(id)
		s.logger.Info().Str("session", id).Int("open", s.sessions.Len()).Msg("Session closed")
	}()
}

// RunStdio serves a single session over stdin/stdout until it ends or ctx is done.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info().Msg("Serving MCP over stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// Echo builds the HTTP surface: streamable MCP on /mcp, /healthz and /metrics.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recover(s.logger))
	e.Use(RequestLogging(s.logger, s.metrics))

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
	e.Any("/mcp", echo.WrapHandler(mcpHandler))
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	return e
}

func (s *Server) healthz(c echo.Context) error {
	h := s.health.Check(c.Request().Context())
	code := http.StatusOK
	if h.Status == resilience.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, h)
}

// ServeHTTP listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) ServeHTTP(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	e := s.Echo()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Serving MCP over HTTP")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info().Msg("HTTP server stopped gracefully")
	return nil
}
