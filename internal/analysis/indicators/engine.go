// Package indicators provides technical indicator calculations over closing prices.
//
// Every calculation returns only defined values: the warm-up prefix is removed and
// the output length is len(closes) - Warmup(kind, params).
package indicators

import (
	"fmt"
	"sort"

	apperrors "finmcp/internal/errors"
)

// Backend computes the primitive indicators. Implementations must be pure and
// must honour the Warmup table for their output lengths.
type Backend interface {
	Name() string
	SMA(closes []float64, period int) ([]float64, error)
	EMA(closes []float64, period int) ([]float64, error)
	RSI(closes []float64, period int) ([]float64, error)
	MACD(closes []float64, fast, slow, signal int) (MACDSeries, error)
	Bollinger(closes []float64, period int, stdDevMul float64) (BandSeries, error)
}

// NativeBackend is the pure Go implementation.
type NativeBackend struct{}

func (NativeBackend) Name() string { return "native" }

func (NativeBackend) SMA(closes []float64, period int) ([]float64, error) {
	return SMA(closes, period)
}

func (NativeBackend) EMA(closes []float64, period int) ([]float64, error) {
	return EMA(closes, period)
}

func (NativeBackend) RSI(closes []float64, period int) ([]float64, error) {
	return RSI(closes, period)
}

func (NativeBackend) MACD(closes []float64, fast, slow, signal int) (MACDSeries, error) {
	return MACD(closes, fast, slow, signal)
}

func (NativeBackend) Bollinger(closes []float64, period int, stdDevMul float64) (BandSeries, error) {
	return Bollinger(closes, period, stdDevMul)
}

var backends = map[string]func() Backend{
	"native": func() Backend { return NativeBackend{} },
	"talib":  func() Backend { return TalibBackend{} },
}

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	ctor, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: indicator backend %q", apperrors.ErrConfigInvalid, name)
	}
	return ctor(), nil
}

// BackendNames returns the registered backend names, sorted.
func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Engine dispatches indicator requests to a backend. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	backend Backend
}

// NewEngine creates an engine over the given backend; nil selects the native one.
func NewEngine(backend Backend) *Engine {
	if backend == nil {
		backend = NativeBackend{}
	}
	return &Engine{backend: backend}
}

// Backend returns the backend name.
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// Compute calculates one indicator over closes.
func (e *Engine) Compute(kind Kind, closes []float64, p Params) (Series, error) {
	warmup, err := Warmup(kind, p)
	if err != nil {
		return nil, err
	}
	if len(closes) <= warmup {
		return nil, fmt.Errorf("%w: %s needs more than %d closes, got %d", ErrInsufficientData, kind, warmup, len(closes))
	}

	var series Series
	switch kind {
	case KindSMA:
		values, err := e.backend.SMA(closes, p.Period)
		if err != nil {
			return nil, err
		}
		series = LineSeries{Indicator: kind, Values: values}
	case KindEMA:
		values, err := e.backend.EMA(closes, p.Period)
		if err != nil {
			return nil, err
		}
		series = LineSeries{Indicator: kind, Values: values}
	case KindRSI:
		values, err := e.backend.RSI(closes, p.Period)
		if err != nil {
			return nil, err
		}
		series = LineSeries{Indicator: kind, Values: values}
	case KindMACD:
		macd, err := e.backend.MACD(closes, p.Fast, p.Slow, p.Signal)
		if err != nil {
			return nil, err
		}
		series = macd
	case KindBollinger:
		bands, err := e.backend.Bollinger(closes, p.Period, p.StdDev)
		if err != nil {
			return nil, err
		}
		series = bands
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if want := len(closes) - warmup; series.Len() != want {
		return nil, &apperrors.AlignmentError{
			Dates:   len(closes),
			Values:  series.Len(),
			Warmup:  warmup,
			Context: e.backend.Name() + "/" + string(kind),
		}
	}
	return series, nil
}

// LatestValue computes kind and returns its last value. Insufficient data is
// reported as ok == false rather than an error.
func (e *Engine) LatestValue(kind Kind, closes []float64, p Params) (Value, bool, error) {
	series, err := e.Compute(kind, closes, p)
	if err != nil {
		if apperrors.Is(err, ErrInsufficientData) {
			return nil, false, nil
		}
		return nil, false, err
	}
	v, ok := Latest(series)
	return v, ok, nil
}
