// Package patterns detects price levels and derives trend observations.
package patterns

import (
	"math"
	"sort"

	"finmcp/internal/analysis"
)

const (
	// DefaultLevelWindow is how many trailing prices are scanned for extrema.
	DefaultLevelWindow = 30
	// DefaultLevelMargin is the first index inside the window that may be an extremum.
	DefaultLevelMargin = 10
	// levelTolerance is the relative distance under which two levels are the same.
	levelTolerance = 0.01
	// maxLevels is how many levels of each kind are reported.
	maxLevels = 2
)

// LevelDetector identifies support and resistance levels from local extrema.
type LevelDetector struct {
	window int
	margin int
}

// NewLevelDetector creates a detector with the default 30 price window and margin of 10.
func NewLevelDetector() *LevelDetector {
	return &LevelDetector{
		window: DefaultLevelWindow,
		margin: DefaultLevelMargin,
	}
}

func (d *LevelDetector) Name() string {
	return "LevelDetector"
}

// Detect runs the detector over prices.
func (d *LevelDetector) Detect(prices []float64) analysis.Levels {
	return Detect(prices, d.window, d.margin)
}

// Detect scans the trailing window of prices for strict local extrema.
//
// Index i in [margin, len(window)-2] is resistance when it is above both
// neighbours and support when it is below both. A candidate within 1% of an
// already recorded level of its kind is dropped. Resistance is sorted
// descending and the first two kept. Support is also sorted descending, but
// the last two are kept, i.e. the two lowest.
func Detect(prices []float64, window, margin int) analysis.Levels {
	if window > 0 && len(prices) > window {
		prices = prices[len(prices)-window:]
	}
	if margin < 1 {
		margin = 1
	}

	var support, resistance []analysis.Level
	for i := margin; i <= len(prices)-2; i++ {
		p := prices[i]
		switch {
		case p > prices[i-1] && p > prices[i+1]:
			if !nearLevel(resistance, p) {
				resistance = append(resistance, analysis.Level{Price: p, Type: analysis.LevelResistance, Index: i})
			}
		case p < prices[i-1] && p < prices[i+1]:
			if !nearLevel(support, p) {
				support = append(support, analysis.Level{Price: p, Type: analysis.LevelSupport, Index: i})
			}
		}
	}

	sortDescending(resistance)
	sortDescending(support)

	return analysis.Levels{
		Support:    lastN(support, maxLevels),
		Resistance: firstN(resistance, maxLevels),
	}
}

// nearLevel reports whether price is within levelTolerance of any recorded level.
func nearLevel(levels []analysis.Level, price float64) bool {
	for _, l := range levels {
		if l.Price == 0 {
			if price == 0 {
				return true
			}
			continue
		}
		if math.Abs(l.Price-price)/math.Abs(l.Price) < levelTolerance {
			return true
		}
	}
	return false
}

func sortDescending(levels []analysis.Level) {
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Price > levels[j].Price
	})
}

func firstN(levels []analysis.Level, n int) []analysis.Level {
	if len(levels) > n {
		levels = levels[:n]
	}
	return append([]analysis.Level{}, levels...)
}

func lastN(levels []analysis.Level, n int) []analysis.Level {
	if len(levels) > n {
		levels = levels[len(levels)-n:]
	}
	return append([]analysis.Level{}, levels...)
}
