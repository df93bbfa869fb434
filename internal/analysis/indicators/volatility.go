package indicators

import (
	"fmt"
)

// Bollinger calculates Bollinger Bands: the SMA of each trailing window
// plus and minus stdDevMul population standard deviations.
func Bollinger(closes []float64, period int, stdDevMul float64) (BandSeries, error) {
	if period <= 0 || stdDevMul <= 0 {
		return BandSeries{}, fmt.Errorf("%w: bollinger(%d, %.2f)", ErrInvalidPeriod, period, stdDevMul)
	}
	if len(closes) < period {
		return BandSeries{}, fmt.Errorf("%w: bollinger(%d) over %d closes", ErrInsufficientData, period, len(closes))
	}

	size := len(closes) - period + 1
	bands := BandSeries{
		Upper:  make([]float64, 0, size),
		Middle: make([]float64, 0, size),
		Lower:  make([]float64, 0, size),
	}

	for i := period - 1; i < len(closes); i++ {
		slice := closes[i-period+1 : i+1]
		sma := mean(slice)
		sd := stdDev(slice)

		bands.Middle = append(bands.Middle, sma)
		bands.Upper = append(bands.Upper, sma+stdDevMul*sd)
		bands.Lower = append(bands.Lower, sma-stdDevMul*sd)
	}

	return bands, nil
}

// Width returns upper minus lower for one band step.
func (b BandValue) Width() float64 {
	return b.Upper - b.Lower
}
