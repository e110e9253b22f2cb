// Package promotion applies order-level discounts to a cart.
package promotion

import (
	"context"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
)

// Engine recomputes promotion discounts on a cart. The engine overwrites the
// cart's order discount on every call so stale discounts never survive a
// line or address change.
type Engine interface {
	Apply(ctx context.Context, cart *domain.Cart) error
}

// ThresholdEngine grants a percentage discount on the subtotal once it
// reaches a configured threshold. A zero threshold disables the promotion.
type ThresholdEngine struct {
	threshold float64
	percent   float64
}

// NewThresholdEngine creates a threshold promotion engine. Threshold and the
// resulting discount are in major currency units; percent is 0..100.
func NewThresholdEngine(threshold, percent float64) *ThresholdEngine {
	return &ThresholdEngine{threshold: threshold, percent: percent}
}

// Apply sets the cart's order discount.
func (e *ThresholdEngine) Apply(_ context.Context, cart *domain.Cart) error {
	cart.OrderDiscount = 0
	if e.threshold <= 0 || e.percent <= 0 {
		return nil
	}
	subtotal := cart.Subtotal()
	if subtotal >= e.threshold {
		cart.OrderDiscount = subtotal * e.percent / 100
	}
	return nil
}
