package indicators

import (
	"fmt"
)

// SMA calculates the Simple Moving Average of closes.
// Entry j is the mean of closes[j : j+period].
func SMA(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: sma period %d", ErrInvalidPeriod, period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("%w: sma(%d) over %d closes", ErrInsufficientData, period, len(closes))
	}
	return trailingMeans(closes, period), nil
}

// EMA calculates the Exponential Moving Average of closes.
// The first value is the SMA of the first window.
func EMA(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: ema period %d", ErrInvalidPeriod, period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("%w: ema(%d) over %d closes", ErrInsufficientData, period, len(closes))
	}
	return emaOf(closes, period), nil
}

// MACD calculates Moving Average Convergence Divergence.
//
// The MACD line exists from close slow-1, the signal line signal-1 steps later.
// All three lines are cut at that shared step so index j of each refers to
// close slow+signal-2+j.
func MACD(closes []float64, fast, slow, signal int) (MACDSeries, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return MACDSeries{}, fmt.Errorf("%w: macd %d/%d/%d", ErrInvalidPeriod, fast, slow, signal)
	}
	warmup := slow + signal - 2
	if len(closes) <= warmup {
		return MACDSeries{}, fmt.Errorf("%w: macd(%d,%d,%d) over %d closes", ErrInsufficientData, fast, slow, signal, len(closes))
	}

	fastEMA := emaOf(closes, fast)
	slowEMA := emaOf(closes, slow)

	// MACD Line = Fast EMA - Slow EMA, starting at close slow-1
	macdLine := make([]float64, 0, len(slowEMA))
	offset := slow - fast
	for j, s := range slowEMA {
		macdLine = append(macdLine, fastEMA[j+offset]-s)
	}

	// Signal Line = EMA of MACD Line
	signalLine := emaOf(macdLine, signal)

	result := MACDSeries{
		MACD:      make([]float64, len(signalLine)),
		Signal:    make([]float64, len(signalLine)),
		Histogram: make([]float64, len(signalLine)),
	}
	for j, sig := range signalLine {
		m := macdLine[j+signal-1]
		result.MACD[j] = m
		result.Signal[j] = sig
		result.Histogram[j] = m - sig
	}

	return result, nil
}
