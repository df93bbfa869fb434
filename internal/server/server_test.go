package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finmcp/internal/errors"
	"finmcp/internal/models"
	"finmcp/internal/resilience"
	"finmcp/internal/service"
)

type stubProvider struct {
	bars []models.PriceBar
	err  error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval models.Interval) ([]models.PriceBar, error) {
	return p.bars, p.err
}

func (p *stubProvider) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.Quote{Symbol: symbol, Price: 10, PreviousClose: 9.5, Volume: 1200}, nil
}

func dailyBars(n int) []models.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := range bars {
		c := 100 + float64(i)*0.2 + math.Sin(float64(i))
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 5000}
	}
	return bars
}

func newTestServer(p *stubProvider) *Server {
	now := func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }
	svc := service.New(p, nil, service.WithClock(now))
	return New(svc, Options{Version: "test", Logger: zerolog.Nop()})
}

// connect opens an in-memory client session against s.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()

	_, err := s.MCP().Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestServer_ListTools(t *testing.T) {
	cs := connect(t, newTestServer(&stubProvider{}))
	defer cs.Close()

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolQuote, ToolHistory, ToolIndicator, ToolTrend}, names)
}

func TestServer_IndicatorTool(t *testing.T) {
	cs := connect(t, newTestServer(&stubProvider{bars: dailyBars(250)}))
	defer cs.Close()

	text, isErr := callText(t, cs, ToolIndicator, map[string]any{"symbol": "aapl", "indicator": "sma", "period": 20})
	assert.False(t, isErr)
	assert.Contains(t, text, "SMA(20) for AAPL")
	assert.Contains(t, text, "231 values")
	assert.Contains(t, text, "2024-01-20: ")
}

func TestServer_IndicatorToolRejectsZeroPeriod(t *testing.T) {
	p := &stubProvider{bars: dailyBars(250)}
	cs := connect(t, newTestServer(p))
	defer cs.Close()

	text, isErr := callText(t, cs, ToolIndicator, map[string]any{"symbol": "AAPL", "indicator": "rsi", "period": 0})
	assert.True(t, isErr)
	assert.Contains(t, text, "Invalid request")
	assert.Contains(t, text, "period must be at least 1")
}

func TestServer_ToolOutcomes(t *testing.T) {
	cause := errors.New("upstream said 503")
	failing := newTestServer(&stubProvider{err: apperrors.NewProviderError("stub", "AAPL", "chart request failed", cause)})
	cs := connect(t, failing)
	defer cs.Close()

	text, isErr := callText(t, cs, ToolTrend, map[string]any{"symbol": "AAPL"})
	assert.True(t, isErr)
	assert.Equal(t, "Failed to fetch data for AAPL.", text)
	assert.NotContains(t, text, "503")

	text, isErr = callText(t, cs, ToolIndicator, map[string]any{"symbol": "AAPL", "indicator": "vwap"})
	assert.True(t, isErr)
	assert.Contains(t, text, "Invalid request")

	empty := connect(t, newTestServer(&stubProvider{bars: []models.PriceBar{}}))
	defer empty.Close()
	text, isErr = callText(t, empty, ToolHistory, map[string]any{"symbol": "AAPL"})
	assert.False(t, isErr)
	assert.Contains(t, text, "No data available for AAPL")
}

func TestServer_QuoteTool(t *testing.T) {
	cs := connect(t, newTestServer(&stubProvider{}))
	defer cs.Close()

	text, isErr := callText(t, cs, ToolQuote, map[string]any{"symbol": "ko"})
	assert.False(t, isErr)
	assert.Contains(t, text, "Quote for KO")
	assert.Contains(t, text, "Volume: 1,200")
}

func TestServer_SessionLifecycle(t *testing.T) {
	s := newTestServer(&stubProvider{})
	cs := connect(t, s)

	assert.Eventually(t, func() bool { return s.Sessions().Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, cs.Close())
	assert.Eventually(t, func() bool { return s.Sessions().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_RepeatedInitializedKeepsSession(t *testing.T) {
	s := newTestServer(&stubProvider{})
	first := make(chan struct{})
	second := make(chan struct{})
	wait := func(ch chan struct{}) func() error {
		return func() error { <-ch; return nil }
	}

	s.track("sess-1", "http", wait(first))
	s.track("sess-1", "http", wait(second))
	require.Equal(t, 1, s.Sessions().Len())

	// The ignored duplicate has no watcher, so ending it removes nothing.
	close(second)
	assert.Never(t, func() bool { return s.Sessions().Len() == 0 }, 100*time.Millisecond, 10*time.Millisecond)

	close(first)
	assert.Eventually(t, func() bool { return s.Sessions().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_Healthz(t *testing.T) {
	cb := resilience.NewCircuitBreaker("stub", resilience.CircuitBreakerConfig{FailureThreshold: 1, Timeout: time.Hour})
	svc := service.New(&stubProvider{}, nil)
	s := New(svc, Options{Logger: zerolog.Nop(), Breaker: cb})
	e := s.Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health resilience.SystemHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, resilience.HealthStatusHealthy, health.Status)
	assert.Len(t, health.Components, 2)

	_, _ = resilience.Execute(context.Background(), cb, func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, resilience.HealthStatusDegraded, health.Status)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(&stubProvider{bars: dailyBars(40)})
	cs := connect(t, s)
	defer cs.Close()
	_, _ = callText(t, cs, ToolIndicator, map[string]any{"symbol": "AAPL", "indicator": "rsi"})

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `finmcp_tool_calls_total{outcome="ok",tool="get_technical_indicator"} 1`)
	assert.True(t, strings.Contains(body, "finmcp_active_sessions"))
}

func TestRecover(t *testing.T) {
	e := echo.New()
	e.Use(Recover(zerolog.Nop()))
	e.GET("/boom", func(c echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}
