package marketdata

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "finmcp/internal/errors"
	"finmcp/internal/models"
)

// csvBar is one row of a Yahoo style daily export:
// Date,Open,High,Low,Close,Adj Close,Volume. Columns are strings because
// exports write "null" for missing sessions.
type csvBar struct {
	Date   string `csv:"Date"`
	Open   string `csv:"Open"`
	High   string `csv:"High"`
	Low    string `csv:"Low"`
	Close  string `csv:"Close"`
	Volume string `csv:"Volume"`
}

// CSVProvider serves bars from a directory holding one <SYMBOL>.csv per ticker.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider over dir, which must exist.
func NewCSVProvider(dir string) (*CSVProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: csv directory: %w", apperrors.ErrConfigInvalid, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: csv directory %s is not a directory", apperrors.ErrConfigInvalid, dir)
	}
	return &CSVProvider{dir: dir}, nil
}

func (c *CSVProvider) Name() string { return ProviderCSV }

// Fetch reads the symbol file and returns the bars inside [start, end].
// Only daily files are supported.
func (c *CSVProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval models.Interval) ([]models.PriceBar, error) {
	symbol = NormalizeSymbol(symbol)
	if interval != "" && interval != models.IntervalDaily {
		return nil, apperrors.NewProviderError(ProviderCSV, symbol, "only daily bars are archived", apperrors.ErrInvalidParameter)
	}
	bars, err := c.load(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return inRange(bars, start, end), nil
}

// Quote derives a quote from the last two archived bars.
func (c *CSVProvider) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	bars, err := c.load(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, apperrors.NewProviderError(ProviderCSV, symbol, "archive is empty", apperrors.ErrSymbolNotFound)
	}
	return quoteFromBars(symbol, bars), nil
}

func (c *CSVProvider) load(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == "" || strings.ContainsAny(symbol, `/\`) || strings.Contains(symbol, "..") {
		return nil, apperrors.NewProviderError(ProviderCSV, symbol, "invalid symbol", apperrors.ErrInvalidParameter)
	}

	f, err := os.Open(filepath.Join(c.dir, symbol+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewProviderError(ProviderCSV, symbol, "no archive file", apperrors.ErrSymbolNotFound)
		}
		return nil, apperrors.NewProviderError(ProviderCSV, symbol, "open archive", err)
	}
	defer f.Close()

	bars, err := DecodeCSV(f)
	if err != nil {
		return nil, apperrors.NewProviderError(ProviderCSV, symbol, "decode archive", err)
	}
	return bars, nil
}

// DecodeCSV parses a daily export. Rows with a null or empty close are skipped.
func DecodeCSV(r io.Reader) ([]models.PriceBar, error) {
	var rows []*csvBar
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for i, row := range rows {
		if isNull(row.Close) {
			continue
		}
		bar, err := row.toBar()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		bars = append(bars, bar)
	}
	sortBars(bars)
	return bars, nil
}

// EncodeCSV writes bars in the format DecodeCSV reads.
func EncodeCSV(w io.Writer, bars []models.PriceBar) error {
	rows := make([]*csvBar, len(bars))
	for i, b := range bars {
		rows[i] = &csvBar{
			Date:   b.Date.Format(models.DateLayout),
			Open:   strconv.FormatFloat(b.Open, 'f', -1, 64),
			High:   strconv.FormatFloat(b.High, 'f', -1, 64),
			Low:    strconv.FormatFloat(b.Low, 'f', -1, 64),
			Close:  strconv.FormatFloat(b.Close, 'f', -1, 64),
			Volume: strconv.FormatInt(b.Volume, 10),
		}
	}
	return gocsv.Marshal(rows, w)
}

func (row *csvBar) toBar() (models.PriceBar, error) {
	date, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(row.Date), time.UTC)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("date %q: %w", row.Date, err)
	}

	var bar models.PriceBar
	bar.Date = date
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", row.Open, &bar.Open},
		{"high", row.High, &bar.High},
		{"low", row.Low, &bar.Low},
		{"close", row.Close, &bar.Close},
	}
	for _, f := range fields {
		if isNull(f.raw) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
		if err != nil {
			return models.PriceBar{}, fmt.Errorf("%s %q: %w", f.name, f.raw, err)
		}
		*f.dst = v
	}

	if !isNull(row.Volume) {
		v, err := strconv.ParseFloat(strings.TrimSpace(row.Volume), 64)
		if err != nil {
			return models.PriceBar{}, fmt.Errorf("volume %q: %w", row.Volume, err)
		}
		bar.Volume = int64(v)
	}
	return bar, nil
}

func isNull(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "null")
}
