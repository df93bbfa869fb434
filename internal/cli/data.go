package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"finmcp/internal/marketdata"
	"finmcp/internal/models"
	"finmcp/internal/service"
	"finmcp/pkg/utils"
)

// addMarketDataCommands adds market data commands.
func addMarketDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	return dataCommand(&cobra.Command{
		Use:     "quote <symbol>",
		Short:   "Get the latest quote for a symbol",
		Example: "  finmcp quote AAPL",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			q, err := app.Service.Quote(cmd.Context(), service.QuoteRequest{Symbol: args[0]})
			if err != nil {
				return app.serviceError(output, err, args[0])
			}
			if output.IsJSON() {
				return output.JSON(q)
			}

			title := q.Symbol
			if q.Exchange != "" {
				title += " (" + q.Exchange + ")"
			}
			output.Bold("%s", title)
			output.Printf("  Price:          %s %s\n", utils.FormatPrice(q.Price), q.Currency)
			output.Printf("  Change:         %s\n", output.Change(q.Change,
				fmt.Sprintf("%s (%s)", utils.FormatChange(q.Change), utils.FormatPercent(q.ChangePercent))))
			output.Printf("  Open/High/Low:  %s / %s / %s\n",
				utils.FormatPrice(q.Open), utils.FormatPrice(q.High), utils.FormatPrice(q.Low))
			output.Printf("  Previous close: %s\n", utils.FormatPrice(q.PreviousClose))
			output.Printf("  Volume:         %s\n", utils.FormatVolume(q.Volume))
			if !q.Timestamp.IsZero() {
				output.Dim("  As of %s (%s)", q.Timestamp.Format("2006-01-02 15:04 MST"), humanize.Time(q.Timestamp))
			}
			return nil
		},
	})
}

func newHistoryCmd(app *App) *cobra.Command {
	var start, end string
	var csvOut, save bool

	cmd := dataCommand(&cobra.Command{
		Use:   "history <symbol>",
		Short: "Show daily price history",
		Long: `Show daily open, high, low, close and volume bars.

The range defaults to the year ending today. --csv writes the bars in the
archive format read by the csv provider; --save stores them in the SQLite
archive configured under data.sqlite.path.`,
		Example: `  finmcp history AAPL --start 2024-01-01 --end 2024-06-30
  finmcp history MSFT --csv > ~/.config/finmcp/data/MSFT.csv
  finmcp history MSFT --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			res, err := app.Service.History(cmd.Context(), service.HistoryRequest{
				Symbol: args[0], StartDate: start, EndDate: end,
			})
			if err != nil {
				return app.serviceError(output, err, args[0])
			}

			if save {
				if err := saveBars(cmd, app, res); err != nil {
					return err
				}
			}

			switch {
			case csvOut:
				return marketdata.EncodeCSV(cmd.OutOrStdout(), res.Bars)
			case output.IsJSON():
				return output.JSON(res)
			}

			output.Bold("%s daily bars, %s to %s", res.Symbol,
				res.From.Format(models.DateLayout), res.To.Format(models.DateLayout))
			table := NewTable(output, "DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")
			prev := 0.0
			for _, b := range res.Bars {
				closeText := utils.FormatPrice(b.Close)
				if prev != 0 {
					closeText = output.Change(b.Close-prev, closeText)
				}
				prev = b.Close
				table.AddRow(
					b.Date.Format(models.DateLayout),
					utils.FormatPrice(b.Open),
					utils.FormatPrice(b.High),
					utils.FormatPrice(b.Low),
					closeText,
					utils.FormatVolume(b.Volume),
				)
			}
			table.Render()
			output.Dim("%d bars", len(res.Bars))
			return nil
		},
	})

	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default: one year before --end)")
	cmd.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "write bars as CSV")
	cmd.Flags().BoolVar(&save, "save", false, "store bars in the SQLite archive")
	return cmd
}

func saveBars(cmd *cobra.Command, app *App, res *service.HistoryResult) error {
	archive, err := marketdata.OpenSQLiteProvider(app.Config.Data.SQLite.Path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer archive.Close()

	if err := archive.SaveBars(cmd.Context(), res.Symbol, models.IntervalDaily, res.Bars); err != nil {
		return fmt.Errorf("saving bars: %w", err)
	}
	app.Logger.Info().
		Str("symbol", res.Symbol).
		Int("bars", len(res.Bars)).
		Str("path", app.Config.Data.SQLite.Path).
		Msg("Bars archived")
	return nil
}
