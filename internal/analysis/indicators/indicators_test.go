package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finmcp/internal/errors"
)

// wavySeries is a rising series with a deterministic wobble.
func wavySeries(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5 + 3*math.Sin(float64(i)/3)
	}
	return closes
}

func flatSeries(n int, v float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = v
	}
	return closes
}

func TestSMA_ExactValues(t *testing.T) {
	values, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, values)
}

func TestSMA_RejectsBadWindows(t *testing.T) {
	_, err := SMA([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)

	_, err = SMA([]float64{1, 2, 3}, 4)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)
}

func TestEMA_SeedsWithSMA(t *testing.T) {
	values, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.InDeltaSlice(t, []float64{2, 3, 4}, values, 1e-12)
}

func TestRSI_MonotonicRiseIsHundred(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}

	values, err := RSI(closes, 14)
	require.NoError(t, err)
	require.Len(t, values, 16)
	for _, v := range values {
		assert.Equal(t, 100.0, v)
	}
}

func TestRSI_MonotonicFallIsZero(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(200 - i)
	}

	values, err := RSI(closes, 14)
	require.NoError(t, err)
	require.Len(t, values, 6)
	for _, v := range values {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestRSI_NeedsPeriodPlusOneCloses(t *testing.T) {
	_, err := RSI(flatSeries(14, 10), 14)
	assert.ErrorIs(t, err, ErrInsufficientData)

	values, err := RSI(wavySeries(15), 14)
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestMACD_FlatSeriesIsZero(t *testing.T) {
	macd, err := MACD(flatSeries(60, 42), 12, 26, 9)
	require.NoError(t, err)
	require.Len(t, macd.MACD, 60-33)
	for j := range macd.MACD {
		assert.InDelta(t, 0.0, macd.MACD[j], 1e-9)
		assert.InDelta(t, 0.0, macd.Signal[j], 1e-9)
		assert.InDelta(t, 0.0, macd.Histogram[j], 1e-9)
	}
}

func TestMACD_RequiresFastBelowSlow(t *testing.T) {
	_, err := MACD(wavySeries(80), 26, 12, 9)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	bands, err := Bollinger(flatSeries(25, 50), 20, 2)
	require.NoError(t, err)
	require.Equal(t, 6, bands.Len())
	for i := 0; i < bands.Len(); i++ {
		v := bands.At(i).(BandValue)
		assert.Equal(t, 50.0, v.Middle)
		assert.Equal(t, 50.0, v.Upper)
		assert.Equal(t, 50.0, v.Lower)
		assert.Zero(t, v.Width())
	}
}

func TestBollinger_BandsBracketMiddle(t *testing.T) {
	bands, err := Bollinger(wavySeries(60), 20, 2)
	require.NoError(t, err)
	for i := 0; i < bands.Len(); i++ {
		v := bands.At(i).(BandValue)
		assert.Greater(t, v.Upper, v.Middle)
		assert.Less(t, v.Lower, v.Middle)
		assert.InDelta(t, v.Upper-v.Middle, v.Middle-v.Lower, 1e-9)
	}
}

func TestWarmupTable(t *testing.T) {
	p := DefaultParams()
	p.Period = 20

	cases := map[Kind]int{
		KindSMA:       19,
		KindEMA:       19,
		KindRSI:       20,
		KindMACD:      33,
		KindBollinger: 19,
	}
	for kind, want := range cases {
		got, err := Warmup(kind, p)
		require.NoError(t, err, kind)
		assert.Equal(t, want, got, kind)
	}

	_, err := Warmup(Kind("vwap"), p)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEngine_SMA20Over250Bars(t *testing.T) {
	engine := NewEngine(nil)
	p := DefaultParams()
	p.Period = 20

	series, err := engine.Compute(KindSMA, wavySeries(250), p)
	require.NoError(t, err)
	assert.Equal(t, 231, series.Len())
	assert.Equal(t, KindSMA, series.Kind())
}

func TestEngine_InsufficientData(t *testing.T) {
	engine := NewEngine(nil)
	p := DefaultParams()

	_, err := engine.Compute(KindMACD, wavySeries(33), p)
	assert.ErrorIs(t, err, ErrInsufficientData)

	v, ok, err := engine.LatestValue(KindMACD, wavySeries(33), p)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)

	v, ok, err = engine.LatestValue(KindMACD, wavySeries(34), p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.IsType(t, MACDValue{}, v)
}

func TestEngine_LatestMatchesLastElement(t *testing.T) {
	engine := NewEngine(nil)
	closes := wavySeries(120)
	p := DefaultParams()
	p.Period = 20

	series, err := engine.Compute(KindSMA, closes, p)
	require.NoError(t, err)
	line := series.(LineSeries)

	v, ok, err := engine.LatestValue(KindSMA, closes, p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Scalar(line.Values[len(line.Values)-1]), v)
}

func TestTalibBackend_AgreesWithNative(t *testing.T) {
	closes := wavySeries(120)
	native := NewEngine(nil)
	fromTalib := NewEngine(TalibBackend{})

	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			p := DefaultParams()
			p.Period = 20

			want, err := native.Compute(kind, closes, p)
			require.NoError(t, err)
			got, err := fromTalib.Compute(kind, closes, p)
			require.NoError(t, err)
			require.Equal(t, want.Len(), got.Len())

			for i, w := range Values(want) {
				g := got.At(i)
				switch w := w.(type) {
				case Scalar:
					assert.InDelta(t, float64(w), float64(g.(Scalar)), 1e-6, "index %d", i)
				case MACDValue:
					g := g.(MACDValue)
					assert.InDelta(t, w.MACD, g.MACD, 1e-6, "macd at %d", i)
					assert.InDelta(t, w.Signal, g.Signal, 1e-6, "signal at %d", i)
					assert.InDelta(t, w.Histogram, g.Histogram, 1e-6, "histogram at %d", i)
				case BandValue:
					g := g.(BandValue)
					assert.InDelta(t, w.Upper, g.Upper, 1e-6, "upper at %d", i)
					assert.InDelta(t, w.Middle, g.Middle, 1e-6, "middle at %d", i)
					assert.InDelta(t, w.Lower, g.Lower, 1e-6, "lower at %d", i)
				}
			}
		})
	}
}

func TestTalibBackend_MACDMatchesNativeShortSignal(t *testing.T) {
	closes := wavySeries(80)

	want, err := MACD(closes, 5, 13, 4)
	require.NoError(t, err)
	got, err := TalibBackend{}.MACD(closes, 5, 13, 4)
	require.NoError(t, err)

	assert.InDeltaSlice(t, want.MACD, got.MACD, 1e-9)
	assert.InDeltaSlice(t, want.Signal, got.Signal, 1e-9)
	assert.InDeltaSlice(t, want.Histogram, got.Histogram, 1e-9)
}

// Flat closes have neither gains nor losses: the native RSI reports 100,
// ta-lib reports 0.
func TestTalibBackend_FlatRSIDiffers(t *testing.T) {
	closes := flatSeries(40, 10)

	native, err := RSI(closes, 14)
	require.NoError(t, err)
	fromTalib, err := TalibBackend{}.RSI(closes, 14)
	require.NoError(t, err)

	require.Equal(t, len(native), len(fromTalib))
	assert.Equal(t, 100.0, native[len(native)-1])
	assert.Equal(t, 0.0, fromTalib[len(fromTalib)-1])
}

func TestTalibBackend_RejectsShortRSIPeriod(t *testing.T) {
	_, err := TalibBackend{}.RSI(wavySeries(30), 1)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("talib")
	require.NoError(t, err)
	assert.Equal(t, "talib", b.Name())

	_, err = NewBackend("abacus")
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)

	assert.Equal(t, []string{"native", "talib"}, BackendNames())
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("MACD")
	require.NoError(t, err)
	assert.Equal(t, KindMACD, kind)

	_, err = ParseKind("stoch")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
