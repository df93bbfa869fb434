package indicators

import (
	"fmt"
	"strings"
)

// Kind identifies an indicator.
type Kind string

const (
	KindSMA       Kind = "sma"
	KindEMA       Kind = "ema"
	KindRSI       Kind = "rsi"
	KindMACD      Kind = "macd"
	KindBollinger Kind = "bollinger"
)

// Kinds lists every supported indicator in display order.
var Kinds = []Kind{KindSMA, KindEMA, KindRSI, KindMACD, KindBollinger}

// ParseKind converts a user supplied name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Label returns the human readable indicator name.
func (k Kind) Label() string {
	switch k {
	case KindSMA:
		return "Simple Moving Average"
	case KindEMA:
		return "Exponential Moving Average"
	case KindRSI:
		return "Relative Strength Index"
	case KindMACD:
		return "MACD"
	case KindBollinger:
		return "Bollinger Bands"
	default:
		return string(k)
	}
}

// Params holds indicator parameters. Fields a kind does not use are ignored.
type Params struct {
	Period int     `json:"period,omitempty"`
	Fast   int     `json:"fast,omitempty"`
	Slow   int     `json:"slow,omitempty"`
	Signal int     `json:"signal,omitempty"`
	StdDev float64 `json:"std_dev,omitempty"`
}

// DefaultParams returns period 14, MACD 12/26/9 and a 2σ band.
func DefaultParams() Params {
	return Params{
		Period: 14,
		Fast:   12,
		Slow:   26,
		Signal: 9,
		StdDev: 2.0,
	}
}

// Validate checks the parameters a kind depends on.
func (p Params) Validate(kind Kind) error {
	switch kind {
	case KindSMA, KindEMA, KindRSI:
		if p.Period < 1 {
			return fmt.Errorf("%w: %s period %d", ErrInvalidPeriod, kind, p.Period)
		}
	case KindBollinger:
		if p.Period < 1 {
			return fmt.Errorf("%w: %s period %d", ErrInvalidPeriod, kind, p.Period)
		}
		if p.StdDev <= 0 {
			return fmt.Errorf("%w: std dev multiplier %.2f", ErrInvalidPeriod, p.StdDev)
		}
	case KindMACD:
		if p.Fast < 1 || p.Slow < 1 || p.Signal < 1 {
			return fmt.Errorf("%w: macd %d/%d/%d", ErrInvalidPeriod, p.Fast, p.Slow, p.Signal)
		}
		if p.Fast >= p.Slow {
			return fmt.Errorf("%w: macd fast period %d must be below slow period %d", ErrInvalidPeriod, p.Fast, p.Slow)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

// Warmup returns how many leading closes a kind consumes before its first value.
// The table is fixed; the aligner depends on it matching each backend's output length.
func Warmup(kind Kind, p Params) (int, error) {
	if err := p.Validate(kind); err != nil {
		return 0, err
	}
	switch kind {
	case KindSMA, KindEMA, KindBollinger:
		return p.Period - 1, nil
	case KindRSI:
		return p.Period, nil
	case KindMACD:
		return p.Slow + p.Signal - 2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Value is one indicator output element.
type Value interface {
	isValue()
}

// Scalar is a single-line indicator value.
type Scalar float64

// MACDValue is one MACD step.
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BandValue is one Bollinger step.
type BandValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

func (Scalar) isValue() {}
func (MACDValue) isValue() {}
func (BandValue) isValue() {}

// Series is an indicator output with its warm-up already removed.
type Series interface {
	Kind() Kind
	Len() int
	At(i int) Value
}

// LineSeries backs sma, ema and rsi.
type LineSeries struct {
	Indicator Kind
	Values    []float64
}

func (s LineSeries) Kind() Kind { return s.Indicator }
func (s LineSeries) Len() int { return len(s.Values) }
func (s LineSeries) At(i int) Value { return Scalar(s.Values[i]) }
func (s LineSeries) Last() float64 { return s.Values[len(s.Values)-1] }

// MACDSeries keeps the three MACD lines index-aligned.
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

func (s MACDSeries) Kind() Kind { return KindMACD }
func (s MACDSeries) Len() int { return len(s.MACD) }

func (s MACDSeries) At(i int) Value {
	return MACDValue{MACD: s.MACD[i], Signal: s.Signal[i], Histogram: s.Histogram[i]}
}

// BandSeries holds Bollinger upper, middle and lower bands.
type BandSeries struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

func (s BandSeries) Kind() Kind { return KindBollinger }
func (s BandSeries) Len() int { return len(s.Middle) }

func (s BandSeries) At(i int) Value {
	return BandValue{Upper: s.Upper[i], Middle: s.Middle[i], Lower: s.Lower[i]}
}

// Latest returns the last value of a series, or false when it is empty.
func Latest(s Series) (Value, bool) {
	if s == nil || s.Len() == 0 {
		return nil, false
	}
	return s.At(s.Len() - 1), true
}

// Values copies a series into a slice of Values.
func Values(s Series) []Value {
	out := make([]Value, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}
