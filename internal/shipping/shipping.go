// Package shipping enumerates shipping methods and computes per-method rates
// for a cart's shipment.
package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
)

// Method is one shipping method configured for a market.
type Method struct {
	ID       uuid.UUID
	Name     string
	MarketID string
	// BaseRate is the flat charge for this method in major units.
	BaseRate float64
}

// Service lists methods for a market and rates a shipment against a method.
type Service interface {
	ListMethods(ctx context.Context, marketID string) ([]Method, error)
	Rate(ctx context.Context, shipment domain.Shipment, method Method) (float64, error)
}

// StaticService serves a fixed method table with flat rates.
type StaticService struct {
	methods []Method
}

// NewStaticService builds a shipping service from the given methods.
func NewStaticService(methods []Method) *StaticService {
	return &StaticService{methods: methods}
}

// ListMethods returns the methods configured for a market, in table order.
func (s *StaticService) ListMethods(_ context.Context, marketID string) ([]Method, error) {
	var out []Method
	for _, m := range s.methods {
		if m.MarketID == marketID {
			out = append(out, m)
		}
	}
	return out, nil
}

// Rate returns the flat rate for the method. A shipment without a destination
// cannot be rated.
func (s *StaticService) Rate(_ context.Context, shipment domain.Shipment, method Method) (float64, error) {
	if shipment.ShippingAddress == nil {
		return 0, fmt.Errorf("rate method %s: shipment has no destination", method.ID)
	}
	return method.BaseRate, nil
}
