package shipping

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
)

// Option is one selectable shipping option with its computed rate in major
// currency units.
type Option struct {
	ID     uuid.UUID
	Title  string
	Amount float64
}

// Resolver enumerates eligible shipping options for a cart with a shipping
// destination set.
type Resolver struct {
	service Service
	logger  *slog.Logger
}

// NewResolver creates a shipping option resolver.
func NewResolver(service Service, logger *slog.Logger) *Resolver {
	return &Resolver{service: service, logger: logger}
}

// Resolve lists the market's shipping methods and rates each one against the
// cart's shipment. A rate failure for one method is logged and that method
// skipped; it never aborts the whole resolution. Ordering follows the
// service's method enumeration order.
func (r *Resolver) Resolve(ctx context.Context, cart *domain.Cart) ([]Option, error) {
	methods, err := r.service.ListMethods(ctx, cart.MarketID)
	if err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(methods))
	for _, m := range methods {
		rate, err := r.service.Rate(ctx, cart.Shipment, m)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping shipping method, rate computation failed",
				slog.String("method_id", m.ID.String()),
				slog.String("method_name", m.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		options = append(options, Option{ID: m.ID, Title: m.Name, Amount: rate})
	}
	return options, nil
}

// Contains reports whether the given method id is among the options.
func Contains(options []Option, id uuid.UUID) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}
