// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatPrice formats a price with thousands separators and two decimals.
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "n/a"
	}
	return humanize.FormatFloat("#,###.##", price)
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatChange formats a signed price change.
func FormatChange(change float64) string {
	if change > 0 {
		return "+" + FormatPrice(change)
	}
	return FormatPrice(change)
}

// FormatVolume formats a share count with commas.
func FormatVolume(volume int64) string {
	return humanize.Comma(volume)
}

// FormatCompact formats a large number with an SI suffix, e.g. "12.3 M".
func FormatCompact(value float64) string {
	if math.Abs(value) < 1000 {
		return fmt.Sprintf("%.2f", value)
	}
	return humanize.SIWithDigits(value, 2, "")
}

// FormatIndicator formats an indicator reading with four decimals.
func FormatIndicator(value float64) string {
	return fmt.Sprintf("%.4f", value)
}
