package indicators

import (
	"fmt"
	"math"

	apperrors "finmcp/internal/errors"
)

var (
	// ErrInvalidPeriod is returned when a period or multiplier is out of range.
	ErrInvalidPeriod = fmt.Errorf("%w: invalid period", apperrors.ErrInvalidParameter)
	// ErrInsufficientData is returned when there are fewer closes than the warm-up needs.
	// It is an InvalidParameter, but callers may treat it as an empty result.
	ErrInsufficientData = fmt.Errorf("%w: insufficient data for calculation", apperrors.ErrInvalidParameter)
	// ErrUnknownKind is returned for an indicator kind the engine does not know.
	ErrUnknownKind = fmt.Errorf("%w: unknown indicator", apperrors.ErrInvalidParameter)
)

// sum calculates the sum of a slice of float64.
func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// stdDev calculates the population standard deviation of a slice of float64.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// trailingMeans returns the mean of every trailing window of size period.
func trailingMeans(values []float64, period int) []float64 {
	out := make([]float64, 0, len(values)-period+1)
	for i := period - 1; i < len(values); i++ {
		out = append(out, mean(values[i-period+1:i+1]))
	}
	return out
}

// emaOf smooths values with factor 2/(period+1), seeded by the first window mean.
// The result has len(values)-period+1 entries; entry j belongs to values[period-1+j].
func emaOf(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	multiplier := 2.0 / float64(period+1)

	prev := mean(values[:period])
	out = append(out, prev)
	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*multiplier + prev
		out = append(out, prev)
	}
	return out
}
