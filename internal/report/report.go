// Package report renders tool results as plain text.
package report

import (
	"fmt"
	"strings"

	"finmcp/internal/analysis"
	"finmcp/internal/analysis/indicators"
	"finmcp/internal/models"
	"finmcp/internal/service"
	"finmcp/pkg/utils"
)

// Quote renders the latest quote.
func Quote(q *models.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quote for %s", q.Symbol)
	if q.Exchange != "" {
		fmt.Fprintf(&b, " (%s)", q.Exchange)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Price: %s", utils.FormatPrice(q.Price))
	if q.Currency != "" {
		fmt.Fprintf(&b, " %s", q.Currency)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Change: %s (%s)\n", utils.FormatChange(q.Change), utils.FormatPercent(q.ChangePercent))
	fmt.Fprintf(&b, "Open: %s  High: %s  Low: %s\n",
		utils.FormatPrice(q.Open), utils.FormatPrice(q.High), utils.FormatPrice(q.Low))
	fmt.Fprintf(&b, "Previous close: %s\n", utils.FormatPrice(q.PreviousClose))
	fmt.Fprintf(&b, "Volume: %s\n", utils.FormatVolume(q.Volume))
	if !q.Timestamp.IsZero() {
		fmt.Fprintf(&b, "As of: %s\n", q.Timestamp.Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}

// History renders the bar table, oldest first.
func History(res *service.HistoryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Historical data for %s (%s to %s), %d bars\n",
		res.Symbol, res.From.Format(models.DateLayout), res.To.Format(models.DateLayout), len(res.Bars))
	fmt.Fprintf(&b, "%-10s  %10s  %10s  %10s  %10s  %14s\n", "Date", "Open", "High", "Low", "Close", "Volume")
	for _, bar := range res.Bars {
		fmt.Fprintf(&b, "%-10s  %10s  %10s  %10s  %10s  %14s\n",
			bar.Date.Format(models.DateLayout),
			utils.FormatPrice(bar.Open),
			utils.FormatPrice(bar.High),
			utils.FormatPrice(bar.Low),
			utils.FormatPrice(bar.Close),
			utils.FormatVolume(bar.Volume))
	}
	return b.String()
}

// Indicator renders an aligned indicator series, one dated line per value.
func Indicator(res *service.IndicatorResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s (%s to %s)\n",
		Title(res.Indicator, res.Params), res.Symbol,
		res.From.Format(models.DateLayout), res.To.Format(models.DateLayout))
	fmt.Fprintf(&b, "%d values\n\n", len(res.Points))
	for _, p := range res.Points {
		fmt.Fprintf(&b, "%s: %s\n", p.Date.Format(models.DateLayout), FormatValue(p.Value))
	}
	return b.String()
}

// Title names an indicator with its parameters, e.g. "SMA(20)".
func Title(kind indicators.Kind, p indicators.Params) string {
	switch kind {
	case indicators.KindMACD:
		return fmt.Sprintf("MACD(%d,%d,%d)", p.Fast, p.Slow, p.Signal)
	case indicators.KindBollinger:
		return fmt.Sprintf("Bollinger Bands(%d,%g)", p.Period, p.StdDev)
	default:
		return fmt.Sprintf("%s(%d)", strings.ToUpper(string(kind)), p.Period)
	}
}

// FormatValue renders one indicator value.
func FormatValue(v indicators.Value) string {
	switch v := v.(type) {
	case indicators.Scalar:
		return utils.FormatIndicator(float64(v))
	case indicators.MACDValue:
		return fmt.Sprintf("MACD %s, Signal %s, Histogram %s",
			utils.FormatIndicator(v.MACD), utils.FormatIndicator(v.Signal), utils.FormatIndicator(v.Histogram))
	case indicators.BandValue:
		return fmt.Sprintf("Upper %s, Middle %s, Lower %s",
			utils.FormatIndicator(v.Upper), utils.FormatIndicator(v.Middle), utils.FormatIndicator(v.Lower))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Trend renders the trend narrative followed by the detected levels.
func Trend(res *service.TrendResult) string {
	r := res.Report
	var b strings.Builder
	fmt.Fprintf(&b, "Trend analysis for %s (%s to %s, %d bars)\n",
		res.Symbol, res.From.Format(models.DateLayout), res.To.Format(models.DateLayout), res.Bars)
	fmt.Fprintf(&b, "Current price: %s\n\n", utils.FormatPrice(r.Price))

	l := r.Latest
	b.WriteString("Indicators:\n")
	fmt.Fprintf(&b, "  SMA20 %s  SMA50 %s  SMA200 %s\n",
		utils.FormatPrice(l.SMA20), utils.FormatPrice(l.SMA50), utils.FormatPrice(l.SMA200))
	fmt.Fprintf(&b, "  RSI14 %.2f  MACD %s  Signal %s\n",
		l.RSI, utils.FormatIndicator(l.MACD), utils.FormatIndicator(l.Signal))
	fmt.Fprintf(&b, "  Bollinger %s / %s / %s\n\n",
		utils.FormatPrice(l.Upper), utils.FormatPrice(l.Middle), utils.FormatPrice(l.Lower))

	b.WriteString("Observations:\n")
	for _, o := range r.Observations {
		fmt.Fprintf(&b, "- %s\n", o.Text)
	}

	b.WriteString("\nSupport levels: ")
	b.WriteString(levels(r.Support))
	b.WriteString("\nResistance levels: ")
	b.WriteString(levels(r.Resistance))
	b.WriteString("\n")
	return b.String()
}

func levels(ls []analysis.Level) string {
	if len(ls) == 0 {
		return "none detected"
	}
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = utils.FormatPrice(l.Price)
	}
	return strings.Join(parts, ", ")
}
