package marketdata

import (
	"context"
	"time"

	"finmcp/internal/models"
)

// Observer receives the outcome of every provider call.
type Observer interface {
	ObserveProvider(provider, operation string, duration time.Duration, err error)
}

type observed struct {
	Provider
	observer Observer
}

// WithObserver reports each Fetch and Quote call on p to o.
func WithObserver(p Provider, o Observer) Provider {
	if o == nil {
		return p
	}
	return &observed{Provider: p, observer: o}
}

func (o *observed) Fetch(ctx context.Context, symbol string, start, end time.Time, interval models.Interval) ([]models.PriceBar, error) {
	begin := time.Now()
	bars, err := o.Provider.Fetch(ctx, symbol, start, end, interval)
	o.observer.ObserveProvider(o.Name(), "fetch", time.Since(begin), err)
	return bars, err
}

func (o *observed) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	begin := time.Now()
	q, err := o.Provider.Quote(ctx, symbol)
	o.observer.ObserveProvider(o.Name(), "quote", time.Since(begin), err)
	return q, err
}

// Close forwards to the wrapped provider.
func (o *observed) Close() error {
	return Close(o.Provider)
}
