// Package align pairs indicator output with the calendar dates it belongs to.
//
// An indicator over n closes yields n - warmup values; value j belongs to
// date warmup + j. Alignment never reorders and never pads.
package align

import (
	"time"

	"finmcp/internal/analysis/indicators"
	apperrors "finmcp/internal/errors"
)

// Point is one dated indicator value.
type Point[V any] struct {
	Date  time.Time `json:"date"`
	Value V         `json:"value"`
}

// Align pairs values with dates[warmup:]. A length mismatch is a defect in the
// caller's warm-up bookkeeping and is reported as an AlignmentError.
func Align[V any](dates []time.Time, values []V, warmup int) ([]Point[V], error) {
	if warmup < 0 || len(dates)-warmup != len(values) {
		return nil, &apperrors.AlignmentError{
			Dates:  len(dates),
			Values: len(values),
			Warmup: warmup,
		}
	}

	points := make([]Point[V], len(values))
	for j, v := range values {
		points[j] = Point[V]{Date: dates[warmup+j], Value: v}
	}
	return points, nil
}

// AlignSeries aligns an indicator series using the fixed warm-up table.
func AlignSeries(dates []time.Time, series indicators.Series, p indicators.Params) ([]Point[indicators.Value], error) {
	warmup, err := indicators.Warmup(series.Kind(), p)
	if err != nil {
		return nil, err
	}
	points, err := Align(dates, indicators.Values(series), warmup)
	if err != nil {
		var alignErr *apperrors.AlignmentError
		if apperrors.As(err, &alignErr) {
			alignErr.Context = string(series.Kind())
		}
		return nil, err
	}
	return points, nil
}

// Last returns the final point, or false when there are none.
func Last[V any](points []Point[V]) (Point[V], bool) {
	if len(points) == 0 {
		return Point[V]{}, false
	}
	return points[len(points)-1], true
}
