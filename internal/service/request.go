package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	apperrors "finmcp/internal/errors"
)

// QuoteRequest holds get_stock_quote arguments.
type QuoteRequest struct {
	Symbol string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=20"`
}

// HistoryRequest holds get_historical_data arguments.
type HistoryRequest struct {
	Symbol    string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=20"`
	StartDate string `json:"startDate,omitempty" jsonschema:"Start date YYYY-MM-DD, defaults to one year before endDate"`
	EndDate   string `json:"endDate,omitempty" jsonschema:"End date YYYY-MM-DD, defaults to today"`
}

// IndicatorRequest holds get_technical_indicator arguments. The numeric
// parameters are pointers so an explicit 0 is validated rather than defaulted.
type IndicatorRequest struct {
	Symbol       string   `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=20"`
	Indicator    string   `json:"indicator" jsonschema:"One of sma, ema, rsi, macd, bollinger" validate:"required,oneof=sma ema rsi macd bollinger"`
	Period       *int     `json:"period,omitempty" jsonschema:"Window length for sma, ema, rsi and bollinger (1-200, default 14)" default:"14" validate:"min=1,max=200"`
	StartDate    string   `json:"startDate,omitempty" jsonschema:"Start date YYYY-MM-DD"`
	EndDate      string   `json:"endDate,omitempty" jsonschema:"End date YYYY-MM-DD"`
	FastPeriod   *int     `json:"fastPeriod,omitempty" jsonschema:"MACD fast EMA period (default 12)" default:"12" validate:"min=1,max=200"`
	SlowPeriod   *int     `json:"slowPeriod,omitempty" jsonschema:"MACD slow EMA period (default 26)" default:"26" validate:"min=1,max=200"`
	SignalPeriod *int     `json:"signalPeriod,omitempty" jsonschema:"MACD signal EMA period (default 9)" default:"9" validate:"min=1,max=200"`
	StdDev       *float64 `json:"stdDev,omitempty" jsonschema:"Bollinger band width in standard deviations (default 2)" default:"2" validate:"gt=0,lte=10"`
}

// TrendRequest holds get_trend_analysis arguments.
type TrendRequest struct {
	Symbol    string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=20"`
	StartDate string `json:"startDate,omitempty" jsonschema:"Start date YYYY-MM-DD"`
	EndDate   string `json:"endDate,omitempty" jsonschema:"End date YYYY-MM-DD"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate fills defaults into req and checks it. Failures are ValidationErrors.
func Validate(req interface{}) error {
	if err := defaults.Set(req); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidParameter, err.Error())
	}
	if err := validatorInstance().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.NewValidationError(fe.Field(), fe.Value(), fieldMessage(fe))
		}
		return apperrors.Wrap(apperrors.ErrInvalidParameter, err.Error())
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
