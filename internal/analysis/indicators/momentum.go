package indicators

import (
	"fmt"
)

// RSI calculates the Relative Strength Index with Wilder smoothing.
// Entry j belongs to closes[period+j]; fewer than period+1 closes yield no values.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: rsi period %d", ErrInvalidPeriod, period)
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("%w: rsi(%d) over %d closes", ErrInsufficientData, period, len(closes))
	}

	n := len(closes)
	result := make([]float64, 0, n-period)

	gains := make([]float64, n)
	losses := make([]float64, n)

	// Calculate gains and losses
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// First average using SMA
	avgGain := mean(gains[1 : period+1])
	avgLoss := mean(losses[1 : period+1])
	result = append(result, rsiValue(avgGain, avgLoss))

	// Subsequent values using Wilder smoothing
	for i := period + 1; i < n; i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		result = append(result, rsiValue(avgGain, avgLoss))
	}

	return result, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
