package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"finmcp/internal/analysis"
	"finmcp/internal/models"
	"finmcp/internal/report"
	"finmcp/internal/service"
	"finmcp/pkg/utils"
)

// addAnalysisCommands adds technical analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newIndicatorCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
}

func newIndicatorCmd(app *App) *cobra.Command {
	req := service.IndicatorRequest{}
	var (
		period, fast, slow, signal int
		stddev                     float64
	)

	cmd := dataCommand(&cobra.Command{
		Use:   "indicator <symbol> <sma|ema|rsi|macd|bollinger>",
		Short: "Calculate a technical indicator",
		Long: `Calculate a technical indicator over daily closes and print one value
per date. Values start once the indicator has enough history.`,
		Example: `  finmcp indicator AAPL rsi
  finmcp indicator AAPL sma --period 50 --start 2024-01-01
  finmcp indicator MSFT macd --fast 8 --slow 21 --signal 5
  finmcp indicator MSFT bollinger --period 20 --stddev 2.5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			req.Symbol = args[0]
			req.Indicator = args[1]
			req.Period, req.StdDev = &period, &stddev
			req.FastPeriod, req.SlowPeriod, req.SignalPeriod = &fast, &slow, &signal

			res, err := app.Service.Indicator(cmd.Context(), req)
			if err != nil {
				return app.serviceError(output, err, args[0])
			}
			if output.IsJSON() {
				return output.JSON(res)
			}

			output.Bold("%s for %s (%s to %s)", report.Title(res.Indicator, res.Params), res.Symbol,
				res.From.Format(models.DateLayout), res.To.Format(models.DateLayout))
			output.Dim("%d values, %s backend", len(res.Points), res.Backend)
			for _, p := range res.Points {
				output.Printf("%s  %s\n", p.Date.Format(models.DateLayout), report.FormatValue(p.Value))
			}
			return nil
		},
	})

	cmd.Flags().IntVar(&period, "period", 14, "window length for sma, ema, rsi and bollinger")
	cmd.Flags().IntVar(&fast, "fast", 12, "MACD fast EMA period")
	cmd.Flags().IntVar(&slow, "slow", 26, "MACD slow EMA period")
	cmd.Flags().IntVar(&signal, "signal", 9, "MACD signal EMA period")
	cmd.Flags().Float64Var(&stddev, "stddev", 2, "Bollinger band width in standard deviations")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "end date YYYY-MM-DD")
	return cmd
}

func newAnalyzeCmd(app *App) *cobra.Command {
	req := service.TrendRequest{}

	cmd := dataCommand(&cobra.Command{
		Use:     "analyze <symbol>",
		Short:   "Run the trend analysis for a symbol",
		Example: "  finmcp analyze AAPL --start 2023-01-01",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			req.Symbol = args[0]

			res, err := app.Service.TrendAnalysis(cmd.Context(), req)
			if err != nil {
				return app.serviceError(output, err, args[0])
			}
			if output.IsJSON() {
				return output.JSON(res)
			}

			r := res.Report
			l := r.Latest
			output.Bold("Trend analysis for %s (%s to %s, %d bars)", res.Symbol,
				res.From.Format(models.DateLayout), res.To.Format(models.DateLayout), res.Bars)
			output.Printf("Price %s\n\n", utils.FormatPrice(r.Price))

			table := NewTable(output, "INDICATOR", "VALUE")
			table.AddRow("SMA 20", utils.FormatPrice(l.SMA20))
			table.AddRow("SMA 50", utils.FormatPrice(l.SMA50))
			table.AddRow("SMA 200", utils.FormatPrice(l.SMA200))
			table.AddRow("RSI 14", utils.FormatIndicator(l.RSI))
			table.AddRow("MACD", output.Change(l.MACD-l.Signal, utils.FormatIndicator(l.MACD)))
			table.AddRow("Signal", utils.FormatIndicator(l.Signal))
			table.AddRow("Bollinger", strings.Join([]string{
				utils.FormatPrice(l.Upper), utils.FormatPrice(l.Middle), utils.FormatPrice(l.Lower),
			}, " / "))
			table.Render()
			output.Println()

			output.Bold("Observations")
			for _, o := range r.Observations {
				output.Signal(o.Signal, "  %s %s", marker(o.Signal), o.Text)
			}
			output.Println()
			output.Printf("Support:    %s\n", levelList(r.Support))
			output.Printf("Resistance: %s\n", levelList(r.Resistance))
			return nil
		},
	})

	cmd.Flags().StringVar(&req.StartDate, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "end date YYYY-MM-DD")
	return cmd
}

func marker(s analysis.Signal) string {
	switch s {
	case analysis.SignalBullish:
		return "+"
	case analysis.SignalBearish:
		return "-"
	}
	return "~"
}

func levelList(levels []analysis.Level) string {
	if len(levels) == 0 {
		return "none detected"
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = utils.FormatPrice(l.Price)
	}
	return strings.Join(parts, ", ")
}
