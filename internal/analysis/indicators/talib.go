package indicators

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

// TalibBackend computes indicators with go-talib. ta-lib returns full-length
// arrays with a zero lookback prefix; the prefix is cut using the Warmup table.
type TalibBackend struct{}

func (TalibBackend) Name() string { return "talib" }

func (TalibBackend) SMA(closes []float64, period int) ([]float64, error) {
	if err := checkWindow(KindSMA, closes, period, period-1); err != nil {
		return nil, err
	}
	return trim(talib.Sma(closes, period), period-1), nil
}

func (TalibBackend) EMA(closes []float64, period int) ([]float64, error) {
	if err := checkWindow(KindEMA, closes, period, period-1); err != nil {
		return nil, err
	}
	return trim(talib.Ema(closes, period), period-1), nil
}

// RSI needs period >= 2; ta-lib emits no values below that.
func (TalibBackend) RSI(closes []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, fmt.Errorf("%w: talib rsi period %d (minimum 2)", ErrInvalidPeriod, period)
	}
	if err := checkWindow(KindRSI, closes, period, period); err != nil {
		return nil, err
	}
	return trim(talib.Rsi(closes, period), period), nil
}

// MACD builds the lines from talib.Ema. talib.Macd is not used: it seeds the
// signal EMA with the zero lookback prefix of the MACD line.
func (TalibBackend) MACD(closes []float64, fast, slow, signal int) (MACDSeries, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return MACDSeries{}, fmt.Errorf("%w: macd %d/%d/%d", ErrInvalidPeriod, fast, slow, signal)
	}
	warmup := slow + signal - 2
	if len(closes) <= warmup {
		return MACDSeries{}, fmt.Errorf("%w: macd(%d,%d,%d) over %d closes", ErrInsufficientData, fast, slow, signal, len(closes))
	}

	fastEMA := talib.Ema(closes, fast)
	slowEMA := talib.Ema(closes, slow)
	macdLine := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		macdLine = append(macdLine, fastEMA[i]-slowEMA[i])
	}

	signalLine := trim(talib.Ema(macdLine, signal), signal-1)
	macd := trim(macdLine, signal-1)
	hist := make([]float64, len(signalLine))
	for j := range signalLine {
		hist[j] = macd[j] - signalLine[j]
	}
	return MACDSeries{MACD: macd, Signal: signalLine, Histogram: hist}, nil
}

func (TalibBackend) Bollinger(closes []float64, period int, stdDevMul float64) (BandSeries, error) {
	if stdDevMul <= 0 {
		return BandSeries{}, fmt.Errorf("%w: bollinger multiplier %.2f", ErrInvalidPeriod, stdDevMul)
	}
	if err := checkWindow(KindBollinger, closes, period, period-1); err != nil {
		return BandSeries{}, err
	}
	upper, middle, lower := talib.BBands(closes, period, stdDevMul, stdDevMul, talib.SMA)
	return BandSeries{
		Upper:  trim(upper, period-1),
		Middle: trim(middle, period-1),
		Lower:  trim(lower, period-1),
	}, nil
}

// checkWindow guards ta-lib calls, which index past the input on short data.
func checkWindow(kind Kind, closes []float64, period, warmup int) error {
	if period <= 0 {
		return fmt.Errorf("%w: %s period %d", ErrInvalidPeriod, kind, period)
	}
	if len(closes) <= warmup {
		return fmt.Errorf("%w: %s(%d) over %d closes", ErrInsufficientData, kind, period, len(closes))
	}
	return nil
}

// trim drops the lookback prefix and copies so callers never alias ta-lib buffers.
func trim(values []float64, warmup int) []float64 {
	if warmup >= len(values) {
		return []float64{}
	}
	out := make([]float64, len(values)-warmup)
	copy(out, values[warmup:])
	return out
}
