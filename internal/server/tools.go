package server

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"finmcp/internal/logging"
	"finmcp/internal/marketdata"
	"finmcp/internal/report"
	"finmcp/internal/service"
)

// Tool names.
const (
	ToolQuote     = "get_stock_quote"
	ToolHistory   = "get_historical_data"
	ToolIndicator = "get_technical_indicator"
	ToolTrend     = "get_trend_analysis"
)

func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        ToolQuote,
		Description: "Get the latest price, change and volume for a stock symbol.",
	}, func(r service.QuoteRequest) string { return r.Symbol },
		func(ctx context.Context, r service.QuoteRequest) (string, error) {
			q, err := s.svc.Quote(ctx, r)
			if err != nil {
				return "", err
			}
			return report.Quote(q), nil
		})

	addTool(s, &mcp.Tool{
		Name:        ToolHistory,
		Description: "Get daily open, high, low, close and volume bars for a stock symbol over a date range.",
	}, func(r service.HistoryRequest) string { return r.Symbol },
		func(ctx context.Context, r service.HistoryRequest) (string, error) {
			res, err := s.svc.History(ctx, r)
			if err != nil {
				return "", err
			}
			return report.History(res), nil
		})

	addTool(s, &mcp.Tool{
		Name: ToolIndicator,
		Description: "Calculate a technical indicator (sma, ema, rsi, macd, bollinger) for a stock symbol " +
			"and list every value with its date.",
	}, func(r service.IndicatorRequest) string { return r.Symbol },
		func(ctx context.Context, r service.IndicatorRequest) (string, error) {
			res, err := s.svc.Indicator(ctx, r)
			if err != nil {
				return "", err
			}
			return report.Indicator(res), nil
		})

	addTool(s, &mcp.Tool{
		Name: ToolTrend,
		Description: "Analyze the trend of a stock symbol from moving averages, RSI, MACD, Bollinger Bands, " +
			"volume and support and resistance levels.",
	}, func(r service.TrendRequest) string { return r.Symbol },
		func(ctx context.Context, r service.TrendRequest) (string, error) {
			res, err := s.svc.TrendAnalysis(ctx, r)
			if err != nil {
				return "", err
			}
			return report.Trend(res), nil
		})
}

// addTool registers a text tool. Failures become IsError results; the
// handler never returns a protocol error.
func addTool[In any](s *Server, tool *mcp.Tool, symbol func(In) string, run func(context.Context, In) (string, error)) {
	mcp.AddTool(s.mcp, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		return s.invoke(ctx, tool.Name, marketdata.NormalizeSymbol(symbol(in)), func(ctx context.Context) (string, error) {
			return run(ctx, in)
		}), nil, nil
	})
}

// invoke runs one tool call, maps its error to caller-facing text and records
// logs and metrics.
func (s *Server) invoke(ctx context.Context, name, symbol string, run func(context.Context) (string, error)) *mcp.CallToolResult {
	begin := time.Now()
	ctx = logging.WithRequestID(logging.WithLogger(ctx, logging.WithTool(s.logger, name)), "")
	logger := logging.WithSymbol(logging.FromContext(ctx), symbol)

	text, err := run(ctx)
	outcome, msg := service.Describe(err, symbol)
	if err == nil {
		msg = text
	}

	var logged error
	if outcome.IsError() {
		logged = err
	}
	logging.LogToolCall(logger, name, string(outcome), time.Since(begin), logged)
	s.metrics.ObserveTool(name, string(outcome), time.Since(begin))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: outcome.IsError(),
	}
}
