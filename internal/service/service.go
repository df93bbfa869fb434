// Package service implements the market data tools on top of a provider and
// the indicator pipeline. It is shared by the MCP server and the CLI.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"finmcp/internal/analysis/align"
	"finmcp/internal/analysis/indicators"
	"finmcp/internal/analysis/patterns"
	apperrors "finmcp/internal/errors"
	"finmcp/internal/logging"
	"finmcp/internal/marketdata"
	"finmcp/internal/models"
	"finmcp/pkg/utils"
)

// Service answers tool requests. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	provider marketdata.Provider
	engine   *indicators.Engine
	analyzer *patterns.TrendAnalyzer
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the clock used to default the end date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service. A nil engine uses the native backend.
func New(provider marketdata.Provider, engine *indicators.Engine, opts ...Option) *Service {
	if engine == nil {
		engine = indicators.NewEngine(nil)
	}
	s := &Service{
		provider: provider,
		engine:   engine,
		analyzer: patterns.NewTrendAnalyzer(engine),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the provider name.
func (s *Service) Provider() string { return s.provider.Name() }

// Backend returns the indicator backend name.
func (s *Service) Backend() string { return s.engine.Backend() }

// HistoryResult is the bar table for a symbol and range.
type HistoryResult struct {
	Symbol string            `json:"symbol"`
	From   time.Time         `json:"from"`
	To     time.Time         `json:"to"`
	Bars   []models.PriceBar `json:"bars"`
}

// IndicatorResult is an indicator series aligned to its dates.
type IndicatorResult struct {
	Symbol    string                          `json:"symbol"`
	Indicator indicators.Kind                 `json:"indicator"`
	Params    indicators.Params               `json:"params"`
	Backend   string                          `json:"backend"`
	From      time.Time                       `json:"from"`
	To        time.Time                       `json:"to"`
	Points    []align.Point[indicators.Value] `json:"points"`
}

// TrendResult is the trend analysis for a symbol and range.
type TrendResult struct {
	Symbol string                `json:"symbol"`
	From   time.Time             `json:"from"`
	To     time.Time             `json:"to"`
	Bars   int                   `json:"bars"`
	Report *patterns.TrendReport `json:"report"`
}

// Quote returns the latest quote for a symbol.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*models.Quote, error) {
	if err := Validate(&req); err != nil {
		return nil, err
	}
	return s.provider.Quote(ctx, marketdata.NormalizeSymbol(req.Symbol))
}

// History returns daily bars for the requested range.
func (s *Service) History(ctx context.Context, req HistoryRequest) (*HistoryResult, error) {
	if err := Validate(&req); err != nil {
		return nil, err
	}
	symbol := marketdata.NormalizeSymbol(req.Symbol)
	from, to, bars, err := s.fetch(ctx, symbol, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Symbol: symbol, From: from, To: to, Bars: bars}, nil
}

// Indicator computes one indicator and aligns every value with its date.
func (s *Service) Indicator(ctx context.Context, req IndicatorRequest) (*IndicatorResult, error) {
	req.Indicator = strings.ToLower(strings.TrimSpace(req.Indicator))
	if err := Validate(&req); err != nil {
		return nil, err
	}
	kind, err := indicators.ParseKind(req.Indicator)
	if err != nil {
		return nil, err
	}
	params := indicators.Params{
		Period: *req.Period,
		Fast:   *req.FastPeriod,
		Slow:   *req.SlowPeriod,
		Signal: *req.SignalPeriod,
		StdDev: *req.StdDev,
	}
	if err := params.Validate(kind); err != nil {
		return nil, err
	}

	symbol := marketdata.NormalizeSymbol(req.Symbol)
	from, to, bars, err := s.fetch(ctx, symbol, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	series, err := s.engine.Compute(kind, models.Closes(bars), params)
	if err != nil {
		return nil, err
	}
	points, err := align.AlignSeries(models.Dates(bars), series, params)
	if err != nil {
		return nil, err
	}

	return &IndicatorResult{
		Symbol:    symbol,
		Indicator: kind,
		Params:    params,
		Backend:   s.engine.Backend(),
		From:      from,
		To:        to,
		Points:    points,
	}, nil
}

// TrendAnalysis runs the trend rules over the requested range.
func (s *Service) TrendAnalysis(ctx context.Context, req TrendRequest) (*TrendResult, error) {
	if err := Validate(&req); err != nil {
		return nil, err
	}
	symbol := marketdata.NormalizeSymbol(req.Symbol)
	from, to, bars, err := s.fetch(ctx, symbol, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	report, err := s.analyzer.Analyze(bars)
	if err != nil {
		return nil, err
	}
	return &TrendResult{Symbol: symbol, From: from, To: to, Bars: len(bars), Report: report}, nil
}

// fetch resolves the date range and loads bars. No bars is ErrEmptySeries.
func (s *Service) fetch(ctx context.Context, symbol, start, end string) (time.Time, time.Time, []models.PriceBar, error) {
	from, to, err := utils.ResolveDateRange(start, end, s.now())
	if err != nil {
		return time.Time{}, time.Time{}, nil, apperrors.NewValidationError("dateRange", start+".."+end, err.Error())
	}

	logger := logging.WithSymbol(s.logger, symbol)
	logger.Debug().
		Str("provider", s.provider.Name()).
		Str("from", from.Format(models.DateLayout)).
		Str("to", to.Format(models.DateLayout)).
		Int("expected_sessions", utils.TradingDaysBetween(from, to)).
		Msg("Fetching bars")

	bars, err := s.provider.Fetch(ctx, symbol, from, to, models.IntervalDaily)
	if err != nil {
		return from, to, nil, err
	}
	if len(bars) == 0 {
		return from, to, nil, apperrors.Wrapf(apperrors.ErrEmptySeries, "%s %s..%s",
			symbol, from.Format(models.DateLayout), to.Format(models.DateLayout))
	}
	logger.Debug().Int("bars", len(bars)).Msg("Fetched bars")
	return from, to, bars, nil
}
