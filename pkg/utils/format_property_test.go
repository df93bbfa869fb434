package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// FormatPrice groups thousands, keeps two decimals and preserves the value;
// FormatPercent and FormatVolume keep their sign and digits.
func TestFormattingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	pricePattern := regexp.MustCompile(`^-?\d{1,3}(,\d{3})*\.\d{2}$`)

	properties.Property("FormatPrice uses comma groups and two decimals", prop.ForAll(
		func(price float64) bool {
			formatted := FormatPrice(price)
			if !pricePattern.MatchString(formatted) {
				t.Logf("unexpected format for %f: %s", price, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatPrice preserves value", prop.ForAll(
		func(price float64) bool {
			formatted := FormatPrice(price)
			parsed, err := strconv.ParseFloat(strings.ReplaceAll(formatted, ",", ""), 64)
			if err != nil {
				t.Logf("cannot parse %s: %v", formatted, err)
				return false
			}
			if diff := math.Abs(parsed - price); diff > 0.0101 {
				t.Logf("value not preserved: %f -> %s", price, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("FormatPercent carries the sign and a % suffix", prop.ForAll(
		func(value float64) bool {
			formatted := FormatPercent(value)
			if !strings.HasSuffix(formatted, "%") {
				return false
			}
			if value > 0 && !strings.HasPrefix(formatted, "+") {
				t.Logf("expected + prefix for %f, got %s", value, formatted)
				return false
			}
			return value >= 0 || strings.HasPrefix(formatted, "-")
		},
		gen.Float64Range(-100, 100),
	))

	properties.Property("FormatVolume only inserts commas", prop.ForAll(
		func(volume int64) bool {
			formatted := FormatVolume(volume)
			parsed, err := strconv.ParseInt(strings.ReplaceAll(formatted, ",", ""), 10, 64)
			return err == nil && parsed == volume
		},
		gen.Int64Range(0, 1e12),
	))

	properties.TestingRun(t)
}
