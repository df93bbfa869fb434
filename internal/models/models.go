// Package models provides domain models for the market data tools.
package models

import (
	"time"
)

// DateLayout is the calendar-day format used on the tool surface.
const DateLayout = "2006-01-02"

// Interval represents the bar interval requested from a provider.
type Interval string

const (
	IntervalDaily   Interval = "1d"
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// PriceBar represents OHLCV data for one trading session.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Quote represents the latest market quote for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Currency      string    `json:"currency,omitempty"`
	Exchange      string    `json:"exchange,omitempty"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Timestamp     time.Time `json:"timestamp"`
}

// ComputeChange fills Change and ChangePercent from Price and PreviousClose.
func (q *Quote) ComputeChange() {
	q.Change = q.Price - q.PreviousClose
	if q.PreviousClose != 0 {
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}
}

// Closes extracts close prices from bars.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Dates extracts bar dates.
func Dates(bars []PriceBar) []time.Time {
	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
	}
	return dates
}

// Volumes extracts bar volumes.
func Volumes(bars []PriceBar) []int64 {
	vols := make([]int64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
