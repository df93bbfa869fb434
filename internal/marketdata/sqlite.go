package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "finmcp/internal/errors"
	"finmcp/internal/models"
)

// SQLiteProvider serves bars from a local SQLite archive.
type SQLiteProvider struct {
	db *sql.DB
}

// OpenSQLiteProvider opens (or creates) the archive at dbPath.
func OpenSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", apperrors.ErrConfigInvalid)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	p := &SQLiteProvider{db: db}
	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return p, nil
}

// initSchema creates the bars table. Dates are stored as YYYY-MM-DD text so
// range queries compare lexically.
func (s *SQLiteProvider) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bars (
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL DEFAULT '1d',
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, interval, date)
	);
	CREATE INDEX IF NOT EXISTS idx_bars_symbol_date ON bars(symbol, date);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteProvider) Name() string { return ProviderSQLite }

// Close closes the database connection.
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

// SaveBars upserts bars for a symbol.
func (s *SQLiteProvider) SaveBars(ctx context.Context, symbol string, interval models.Interval, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	symbol = NormalizeSymbol(symbol)
	if interval == "" {
		interval = models.IntervalDaily
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, interval, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, symbol, string(interval), b.Date.Format(models.DateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Fetch returns archived bars for [start, end].
func (s *SQLiteProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval models.Interval) ([]models.PriceBar, error) {
	symbol = NormalizeSymbol(symbol)
	if interval == "" {
		interval = models.IntervalDaily
	}

	bars, err := s.query(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, string(interval), start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return nil, apperrors.NewProviderError(ProviderSQLite, symbol, "query bars", err)
	}
	return bars, nil
}

// Quote derives a quote from the two most recent daily bars.
func (s *SQLiteProvider) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = NormalizeSymbol(symbol)

	bars, err := s.query(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ?
		ORDER BY date DESC
		LIMIT 2
	`, symbol, string(models.IntervalDaily))
	if err != nil {
		return nil, apperrors.NewProviderError(ProviderSQLite, symbol, "query latest bars", err)
	}
	if len(bars) == 0 {
		return nil, apperrors.NewProviderError(ProviderSQLite, symbol, "no archived bars", apperrors.ErrSymbolNotFound)
	}
	sortBars(bars)
	return quoteFromBars(symbol, bars), nil
}

// Freshness returns the date of the most recent archived bar.
func (s *SQLiteProvider) Freshness(ctx context.Context, symbol string) (time.Time, error) {
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM bars WHERE symbol = ?
	`, NormalizeSymbol(symbol)).Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to get bar freshness: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return time.ParseInLocation(models.DateLayout, latest.String, time.UTC)
}

func (s *SQLiteProvider) query(ctx context.Context, query string, args ...interface{}) ([]models.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	bars := []models.PriceBar{}
	for rows.Next() {
		var (
			b    models.PriceBar
			date string
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		if b.Date, err = time.ParseInLocation(models.DateLayout, date, time.UTC); err != nil {
			return nil, fmt.Errorf("bad bar date %q: %w", date, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}
	return bars, nil
}
