package patterns

import (
	"fmt"

	"finmcp/internal/analysis"
	"finmcp/internal/analysis/indicators"
	apperrors "finmcp/internal/errors"
	"finmcp/internal/models"
)

const (
	// contractingBandWidth is an absolute price distance, not a percentage.
	contractingBandWidth = 10.0
	rsiOverbought        = 70.0
	rsiOversold          = 30.0
	volumeLookback       = 10
	highVolumeRatio      = 1.5
	lowVolumeRatio       = 0.5
)

// Latest holds the most recent value of every indicator the analyzer reads.
// Values that could not be computed are zero.
type Latest struct {
	SMA20  float64 `json:"sma20"`
	SMA50  float64 `json:"sma50"`
	SMA200 float64 `json:"sma200"`
	RSI    float64 `json:"rsi"`
	MACD   float64 `json:"macd"`
	Signal float64 `json:"signal"`
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// TrendReport is the composite trend analysis for one symbol.
type TrendReport struct {
	Price        float64                `json:"price"`
	Latest       Latest                 `json:"latest"`
	Observations []analysis.Observation `json:"observations"`
	Support      []analysis.Level       `json:"support"`
	Resistance   []analysis.Level       `json:"resistance"`
}

// TrendAnalyzer combines indicators, levels and volume into trend observations.
type TrendAnalyzer struct {
	engine   *indicators.Engine
	detector *LevelDetector
}

// NewTrendAnalyzer creates a new trend analyzer. A nil engine uses the native backend.
func NewTrendAnalyzer(engine *indicators.Engine) *TrendAnalyzer {
	if engine == nil {
		engine = indicators.NewEngine(nil)
	}
	return &TrendAnalyzer{
		engine:   engine,
		detector: NewLevelDetector(),
	}
}

func (t *TrendAnalyzer) Name() string {
	return "TrendAnalyzer"
}

// Analyze computes the latest indicators and levels for bars and evaluates the rules.
func (t *TrendAnalyzer) Analyze(bars []models.PriceBar) (*TrendReport, error) {
	if len(bars) == 0 {
		return nil, apperrors.ErrEmptySeries
	}

	closes := models.Closes(bars)
	latest, err := LatestIndicators(t.engine, closes)
	if err != nil {
		return nil, err
	}
	levels := t.detector.Detect(closes)

	report := Evaluate(bars, closes, latest, levels)
	return &report, nil
}

// LatestIndicators computes the last SMA20/50/200, RSI14, MACD(12,26,9) and
// Bollinger(20,2) values. An indicator without enough closes stays zero.
func LatestIndicators(engine *indicators.Engine, closes []float64) (Latest, error) {
	var latest Latest

	sma := func(period int) (float64, error) {
		p := indicators.DefaultParams()
		p.Period = period
		return latestScalar(engine, indicators.KindSMA, closes, p)
	}

	var err error
	if latest.SMA20, err = sma(20); err != nil {
		return latest, err
	}
	if latest.SMA50, err = sma(50); err != nil {
		return latest, err
	}
	if latest.SMA200, err = sma(200); err != nil {
		return latest, err
	}
	if latest.RSI, err = latestScalar(engine, indicators.KindRSI, closes, indicators.DefaultParams()); err != nil {
		return latest, err
	}

	v, ok, err := engine.LatestValue(indicators.KindMACD, closes, indicators.DefaultParams())
	if err != nil {
		return latest, err
	}
	if ok {
		m := v.(indicators.MACDValue)
		latest.MACD, latest.Signal = m.MACD, m.Signal
	}

	bandParams := indicators.DefaultParams()
	bandParams.Period = 20
	v, ok, err = engine.LatestValue(indicators.KindBollinger, closes, bandParams)
	if err != nil {
		return latest, err
	}
	if ok {
		b := v.(indicators.BandValue)
		latest.Upper, latest.Middle, latest.Lower = b.Upper, b.Middle, b.Lower
	}

	return latest, nil
}

func latestScalar(engine *indicators.Engine, kind indicators.Kind, closes []float64, p indicators.Params) (float64, error) {
	v, ok, err := engine.LatestValue(kind, closes, p)
	if err != nil || !ok {
		return 0, err
	}
	return float64(v.(indicators.Scalar)), nil
}

// Evaluate applies the trend rules in a fixed order. Each rule is independent
// and reads the latest values; missing inputs compare as zero.
func Evaluate(bars []models.PriceBar, closes []float64, latest Latest, levels analysis.Levels) TrendReport {
	var price float64
	if len(closes) > 0 {
		price = closes[len(closes)-1]
	}

	report := TrendReport{
		Price:        price,
		Latest:       latest,
		Observations: make([]analysis.Observation, 0, 6),
		Support:      levels.Support,
		Resistance:   levels.Resistance,
	}
	observe := func(tag analysis.ObservationTag, signal analysis.Signal, format string, args ...interface{}) {
		report.Observations = append(report.Observations, analysis.Observation{
			Tag:    tag,
			Signal: signal,
			Text:   fmt.Sprintf(format, args...),
		})
	}

	// Moving averages
	switch {
	case price > latest.SMA50 && latest.SMA20 > latest.SMA50:
		observe(analysis.TagMovingAverage, analysis.SignalBullish,
			"Price and 20-day SMA are above the 50-day SMA, indicating a positive trend.")
	case price < latest.SMA50 && latest.SMA20 < latest.SMA50:
		observe(analysis.TagMovingAverage, analysis.SignalBearish,
			"Price and 20-day SMA are below the 50-day SMA, indicating a negative trend.")
	}

	// Golden / death cross
	switch {
	case latest.SMA50 > latest.SMA200:
		observe(analysis.TagCross, analysis.SignalBullish,
			"50-day SMA is above the 200-day SMA (golden cross), a long-term bullish signal.")
	case latest.SMA50 < latest.SMA200:
		observe(analysis.TagCross, analysis.SignalBearish,
			"50-day SMA is below the 200-day SMA (death cross), a long-term bearish signal.")
	}

	// RSI
	switch {
	case latest.RSI > rsiOverbought:
		observe(analysis.TagRSI, analysis.SignalBearish,
			"RSI at %.2f indicates overbought conditions.", latest.RSI)
	case latest.RSI < rsiOversold:
		observe(analysis.TagRSI, analysis.SignalBullish,
			"RSI at %.2f indicates oversold conditions.", latest.RSI)
	default:
		observe(analysis.TagRSI, analysis.SignalNeutral,
			"RSI at %.2f is in neutral territory.", latest.RSI)
	}

	// MACD
	if latest.MACD > latest.Signal {
		observe(analysis.TagMACD, analysis.SignalBullish,
			"MACD line is above the signal line, a bullish momentum signal.")
	} else {
		observe(analysis.TagMACD, analysis.SignalBearish,
			"MACD line is below the signal line, a bearish momentum signal.")
	}

	// Bollinger Bands
	switch {
	case price > latest.Upper:
		observe(analysis.TagBollinger, analysis.SignalBearish,
			"Price is above the upper Bollinger Band, potentially overbought.")
	case price < latest.Lower:
		observe(analysis.TagBollinger, analysis.SignalBullish,
			"Price is below the lower Bollinger Band, potentially oversold.")
	case latest.Upper-latest.Lower < contractingBandWidth:
		observe(analysis.TagBollinger, analysis.SignalNeutral,
			"Bollinger Bands are contracting, suggesting low volatility and a possible breakout.")
	}

	// Volume
	if ratio, ok := volumeRatio(bars); ok {
		switch {
		case ratio > highVolumeRatio:
			observe(analysis.TagVolume, analysis.SignalNeutral,
				"Volume is %.1fx the 10-day average, indicating high interest.", ratio)
		case ratio < lowVolumeRatio:
			observe(analysis.TagVolume, analysis.SignalNeutral,
				"Volume is %.1fx the 10-day average, indicating low interest.", ratio)
		}
	}

	return report
}

// volumeRatio compares the latest volume with the mean of the last ten bars,
// the latest included.
func volumeRatio(bars []models.PriceBar) (float64, bool) {
	if len(bars) == 0 {
		return 0, false
	}
	recent := bars
	if len(recent) > volumeLookback {
		recent = recent[len(recent)-volumeLookback:]
	}

	var total float64
	for _, b := range recent {
		total += float64(b.Volume)
	}
	avg := total / float64(len(recent))
	if avg == 0 {
		return 0, false
	}
	return float64(bars[len(bars)-1].Volume) / avg, true
}
