package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"finmcp/internal/analysis"
	"finmcp/internal/analysis/align"
	"finmcp/internal/analysis/indicators"
	"finmcp/internal/analysis/patterns"
	"finmcp/internal/models"
	"finmcp/internal/service"
)

var (
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan3 = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
)

func TestQuote(t *testing.T) {
	q := &models.Quote{
		Symbol:        "AAPL",
		Exchange:      "NMS",
		Currency:      "USD",
		Price:         1025,
		PreviousClose: 1000,
		Volume:        45_000_000,
	}
	q.ComputeChange()

	out := Quote(q)
	assert.Contains(t, out, "Quote for AAPL (NMS)")
	assert.Contains(t, out, "Price: 1,025.00 USD")
	assert.Contains(t, out, "Change: +25.00 (+2.50%)")
	assert.Contains(t, out, "Volume: 45,000,000")
	assert.NotContains(t, out, "As of")
}

func TestHistory(t *testing.T) {
	out := History(&service.HistoryResult{
		Symbol: "MSFT",
		From:   jan2,
		To:     jan3,
		Bars: []models.PriceBar{
			{Date: jan2, Open: 370, High: 375, Low: 368, Close: 372.5, Volume: 20_000_000},
			{Date: jan3, Open: 372, High: 374, Low: 366, Close: 367, Volume: 21_000_000},
		},
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "MSFT (2024-01-02 to 2024-01-03), 2 bars")
	assert.True(t, strings.HasPrefix(lines[2], "2024-01-02"))
	assert.Contains(t, lines[2], "372.50")
	assert.Contains(t, lines[3], "21,000,000")
}

func TestIndicator(t *testing.T) {
	res := &service.IndicatorResult{
		Symbol:    "SPY",
		Indicator: indicators.KindMACD,
		Params:    indicators.DefaultParams(),
		From:      jan2,
		To:        jan3,
		Points: []align.Point[indicators.Value]{
			{Date: jan2, Value: indicators.MACDValue{MACD: 1.5, Signal: 1.25, Histogram: 0.25}},
			{Date: jan3, Value: indicators.MACDValue{MACD: 1.0, Signal: 1.2, Histogram: -0.2}},
		},
	}

	out := Indicator(res)
	assert.Contains(t, out, "MACD(12,26,9) for SPY")
	assert.Contains(t, out, "2 values")
	assert.Contains(t, out, "2024-01-02: MACD 1.5000, Signal 1.2500, Histogram 0.2500")
	assert.Contains(t, out, "2024-01-03: MACD 1.0000, Signal 1.2000, Histogram -0.2000")
}

func TestTitleAndFormatValue(t *testing.T) {
	p := indicators.DefaultParams()
	p.Period = 20
	assert.Equal(t, "SMA(20)", Title(indicators.KindSMA, p))
	assert.Equal(t, "RSI(20)", Title(indicators.KindRSI, p))
	assert.Equal(t, "Bollinger Bands(20,2)", Title(indicators.KindBollinger, p))

	assert.Equal(t, "42.1235", FormatValue(indicators.Scalar(42.12346)))
	assert.Equal(t, "Upper 3.0000, Middle 2.0000, Lower 1.0000",
		FormatValue(indicators.BandValue{Upper: 3, Middle: 2, Lower: 1}))
}

func TestTrend(t *testing.T) {
	res := &service.TrendResult{
		Symbol: "QQQ",
		From:   jan2,
		To:     jan3,
		Bars:   2,
		Report: &patterns.TrendReport{
			Price: 410,
			Observations: []analysis.Observation{
				{Tag: analysis.TagRSI, Signal: analysis.SignalNeutral, Text: "RSI at 55.00 is in neutral territory."},
			},
			Resistance: []analysis.Level{{Price: 420, Type: analysis.LevelResistance}, {Price: 415, Type: analysis.LevelResistance}},
		},
	}

	out := Trend(res)
	assert.Contains(t, out, "Trend analysis for QQQ")
	assert.Contains(t, out, "Current price: 410.00")
	assert.Contains(t, out, "- RSI at 55.00 is in neutral territory.")
	assert.Contains(t, out, "Support levels: none detected")
	assert.Contains(t, out, "Resistance levels: 420.00, 415.00")
}
