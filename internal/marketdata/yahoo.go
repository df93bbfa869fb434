package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	apperrors "finmcp/internal/errors"
	"finmcp/internal/logging"
	"finmcp/internal/models"
	"finmcp/internal/resilience"
	"finmcp/pkg/utils"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOptions configures the Yahoo Finance client.
type YahooOptions struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Retry             utils.RetryConfig
	// Breaker guards the upstream; nil creates one with default settings.
	Breaker           *resilience.CircuitBreaker
	Logger            zerolog.Logger
}

// YahooProvider implements Provider using the Yahoo Finance v8 chart API.
type YahooProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *Limiter
	retry     utils.RetryConfig
	breaker   *resilience.CircuitBreaker
	logger    zerolog.Logger
}

// errTransient marks failures worth retrying: network errors, 429 and 5xx.
var errTransient = errors.New("transient")

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(opts YahooOptions) *YahooProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = utils.DefaultRetryConfig()
	}
	opts.Retry.ShouldRetry = func(err error) bool {
		return errors.Is(err, errTransient)
	}
	if opts.Breaker == nil {
		cfg := resilience.DefaultCircuitBreakerConfig()
		cfg.IsFailure = func(err error) bool {
			return !errors.Is(err, apperrors.ErrSymbolNotFound)
		}
		opts.Breaker = resilience.NewCircuitBreaker(ProviderYahoo, cfg)
	}

	return &YahooProvider{
		client:    &http.Client{Timeout: opts.Timeout},
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		limiter:   NewLimiter(ProviderYahoo, opts.RequestsPerSecond, opts.Burst),
		retry:     opts.Retry,
		breaker:   opts.Breaker,
		logger:    opts.Logger,
	}
}

func (y *YahooProvider) Name() string { return ProviderYahoo }

// Breaker returns the circuit breaker guarding the upstream.
func (y *YahooProvider) Breaker() *resilience.CircuitBreaker { return y.breaker }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooResult struct {
	Meta       yahooMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yahooMeta struct {
	Currency             string   `json:"currency"`
	Symbol               string   `json:"symbol"`
	ExchangeName         string   `json:"exchangeName"`
	GMTOffset            int64    `json:"gmtoffset"`
	RegularMarketTime    int64    `json:"regularMarketTime"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	ChartPreviousClose   *float64 `json:"chartPreviousClose"`
	PreviousClose        *float64 `json:"previousClose"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  *float64 `json:"regularMarketVolume"`
}

// Fetch returns daily bars for [start, end], both calendar days inclusive.
func (y *YahooProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval models.Interval) ([]models.PriceBar, error) {
	symbol = NormalizeSymbol(symbol)
	if interval == "" {
		interval = models.IntervalDaily
	}

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(day(start).Unix(), 10))
	params.Set("period2", strconv.FormatInt(day(end).AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", string(interval))
	params.Set("events", "history")

	result, err := y.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	bars := result.bars()
	sortBars(bars)
	return inRange(bars, start, end), nil
}

// Quote returns the latest regular-market quote from the chart metadata.
func (y *YahooProvider) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = NormalizeSymbol(symbol)

	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	result, err := y.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	if meta.RegularMarketPrice == nil {
		return nil, apperrors.NewProviderError(ProviderYahoo, symbol, "quote has no market price", apperrors.ErrSymbolNotFound)
	}

	q := &models.Quote{
		Symbol:    symbol,
		Currency:  meta.Currency,
		Exchange:  meta.ExchangeName,
		Price:     *meta.RegularMarketPrice,
		High:      value(meta.RegularMarketDayHigh),
		Low:       value(meta.RegularMarketDayLow),
		Volume:    int64(value(meta.RegularMarketVolume)),
		Timestamp: time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	switch {
	case meta.PreviousClose != nil:
		q.PreviousClose = *meta.PreviousClose
	case meta.ChartPreviousClose != nil:
		q.PreviousClose = *meta.ChartPreviousClose
	}
	if bars := result.bars(); len(bars) > 0 {
		last := bars[len(bars)-1]
		q.Open = last.Open
		if q.High == 0 {
			q.High = last.High
		}
		if q.Low == 0 {
			q.Low = last.Low
		}
		if q.Volume == 0 {
			q.Volume = last.Volume
		}
	}
	q.ComputeChange()
	return q, nil
}

// chart calls the chart endpoint with retry and rate limiting. Every failure
// comes back as a ProviderError.
func (y *YahooProvider) chart(ctx context.Context, symbol string, params url.Values) (*yahooResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), params.Encode())

	result, err := resilience.Execute(ctx, y.breaker, func(ctx context.Context) (*yahooResult, error) {
		return utils.RetryWithResult(ctx, y.retry, func() (*yahooResult, error) {
			if err := y.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			begin := time.Now()
			res, err := y.get(ctx, endpoint)
			logging.LogAPICall(logging.WithSymbol(y.logger, symbol), http.MethodGet, endpoint, time.Since(begin), err)
			return res, err
		})
	})
	if err != nil {
		return nil, apperrors.NewProviderError(ProviderYahoo, symbol, "chart request failed", err)
	}
	return result, nil
}

func (y *YahooProvider) get(ctx context.Context, endpoint string) (*yahooResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", y.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", errTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", errTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, apperrors.ErrSymbolNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d: %w", errTransient, resp.StatusCode, apperrors.ErrRateLimited)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w", e.Description, apperrors.ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("chart error %s: %s", e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result: %w", apperrors.ErrSymbolNotFound)
	}
	return &chart.Chart.Result[0], nil
}

// bars converts the columnar quote arrays into PriceBars. Rows with a null
// close (holidays, halted sessions) are skipped.
func (r *yahooResult) bars() []models.PriceBar {
	if len(r.Indicators.Quote) == 0 {
		return []models.PriceBar{}
	}
	q := r.Indicators.Quote[0]
	offset := time.Duration(r.Meta.GMTOffset) * time.Second

	bars := make([]models.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		c := at(q.Close, i)
		if c == nil {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   day(time.Unix(ts, 0).UTC().Add(offset)),
			Open:   value(at(q.Open, i)),
			High:   value(at(q.High, i)),
			Low:    value(at(q.Low, i)),
			Close:  *c,
			Volume: int64(value(at(q.Volume, i))),
		})
	}
	return bars
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
