// Package marketdata provides historical bars and quotes from Yahoo Finance
// or from offline CSV and SQLite archives.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "finmcp/internal/errors"
	"finmcp/internal/models"
)

// HistoricalDataProvider returns daily bars for a symbol, ascending by date.
// An empty slice means the range has no data and is not an error.
type HistoricalDataProvider interface {
	Name() string
	Fetch(ctx context.Context, symbol string, start, end time.Time, interval models.Interval) ([]models.PriceBar, error)
}

// QuoteProvider returns the latest quote for a symbol.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Provider is a source of both bars and quotes.
type Provider interface {
	HistoricalDataProvider
	QuoteProvider
}

// Provider names accepted by New.
const (
	ProviderYahoo  = "yahoo"
	ProviderCSV    = "csv"
	ProviderSQLite = "sqlite"
)

// Options configures the provider built by New.
type Options struct {
	Provider string
	Yahoo    YahooOptions
	CSVDir   string
	SQLite   string
}

// New builds the provider named in opts. Closing SQLite providers is the
// caller's job; use Close to release any provider.
func New(opts Options) (Provider, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderYahoo, "":
		return NewYahooProvider(opts.Yahoo), nil
	case ProviderCSV:
		return NewCSVProvider(opts.CSVDir)
	case ProviderSQLite:
		return OpenSQLiteProvider(opts.SQLite)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, opts.Provider)
	}
}

// Close releases provider resources when the provider holds any.
func Close(p Provider) error {
	if c, ok := p.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// sortBars orders bars ascending by date.
func sortBars(bars []models.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
}

// inRange keeps bars whose calendar day lies within [start, end].
func inRange(bars []models.PriceBar, start, end time.Time) []models.PriceBar {
	from := day(start)
	to := day(end)
	out := bars[:0]
	for _, b := range bars {
		d := day(b.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// quoteFromBars derives a quote from the last two bars of an archive.
func quoteFromBars(symbol string, bars []models.PriceBar) *models.Quote {
	last := bars[len(bars)-1]
	q := &models.Quote{
		Symbol:        symbol,
		Price:         last.Close,
		PreviousClose: last.Open,
		Open:          last.Open,
		High:          last.High,
		Low:           last.Low,
		Volume:        last.Volume,
		Timestamp:     last.Date,
	}
	if len(bars) > 1 {
		q.PreviousClose = bars[len(bars)-2].Close
	}
	q.ComputeChange()
	return q
}
