// Package analysis holds the types shared by the indicator, alignment and
// pattern packages.
package analysis

// Level represents a support or resistance level.
type Level struct {
	Price float64   `json:"price"`
	Type  LevelType `json:"type"`
	// Index is the position of the extremum inside the scanned window.
	Index int `json:"index"`
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// Levels groups the detected support and resistance levels.
type Levels struct {
	Support    []Level `json:"support"`
	Resistance []Level `json:"resistance"`
}

// Signal is the direction an observation points to.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// ObservationTag identifies the rule that produced an observation.
type ObservationTag string

const (
	TagMovingAverage ObservationTag = "moving_average"
	TagCross         ObservationTag = "cross"
	TagRSI           ObservationTag = "rsi"
	TagMACD          ObservationTag = "macd"
	TagBollinger     ObservationTag = "bollinger"
	TagVolume        ObservationTag = "volume"
)

// Observation is one qualitative statement about the trend.
type Observation struct {
	Tag    ObservationTag `json:"tag"`
	Signal Signal         `json:"signal"`
	Text   string         `json:"text"`
}
