package service

import (
	"errors"
	"fmt"

	"finmcp/internal/analysis/indicators"
	apperrors "finmcp/internal/errors"
)

// Outcome classifies how a tool call ended.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNoData   Outcome = "no_data"
	OutcomeRejected Outcome = "rejected"
	OutcomeProvider Outcome = "provider_error"
	OutcomeInternal Outcome = "internal_error"
)

// IsError reports whether the outcome should be flagged as a failed call.
// No data is informational.
func (o Outcome) IsError() bool {
	return o != OutcomeOK && o != OutcomeNoData
}

// Classify maps an error returned by the service to an outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, apperrors.ErrEmptySeries), errors.Is(err, indicators.ErrInsufficientData):
		return OutcomeNoData
	case errors.Is(err, apperrors.ErrInvalidParameter):
		return OutcomeRejected
	case errors.Is(err, apperrors.ErrProvider):
		return OutcomeProvider
	default:
		return OutcomeInternal
	}
}

// Describe returns the outcome of err and the text shown to the caller.
// Provider and internal failures never expose the underlying error.
func Describe(err error, symbol string) (Outcome, string) {
	outcome := Classify(err)
	switch outcome {
	case OutcomeNoData:
		if errors.Is(err, indicators.ErrInsufficientData) {
			return outcome, fmt.Sprintf("Not enough price history for %s to compute this indicator.", symbol)
		}
		return outcome, fmt.Sprintf("No data available for %s in the requested range.", symbol)
	case OutcomeRejected:
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			return outcome, "Invalid request: " + verr.Message
		}
		return outcome, "Invalid request: " + err.Error()
	case OutcomeProvider:
		if errors.Is(err, apperrors.ErrSymbolNotFound) {
			return outcome, fmt.Sprintf("Failed to fetch data for %s: symbol not found.", symbol)
		}
		return outcome, fmt.Sprintf("Failed to fetch data for %s.", symbol)
	case OutcomeInternal:
		return outcome, fmt.Sprintf("Internal error while processing %s.", symbol)
	default:
		return outcome, ""
	}
}
