// Package calculator computes cart totals in major currency units. Conversion
// to minor units happens at the response boundary.
package calculator

import "github.com/karolberezicki/ActualFoundation/internal/domain"

// Totals holds the computed amounts for a cart, all in major units.
type Totals struct {
	Subtotal float64
	Discount float64
	Shipping float64
	Tax      float64
	Total    float64
}

// Calculator derives totals from cart state. Tax applies to the discounted
// subtotal, not to shipping.
type Calculator struct {
	taxRate float64
}

// New creates a calculator with the given tax rate (0.08 = 8%).
func New(taxRate float64) *Calculator {
	return &Calculator{taxRate: taxRate}
}

// Totals recomputes all amounts from current cart state. Nothing is cached.
func (c *Calculator) Totals(cart *domain.Cart) Totals {
	subtotal := cart.Subtotal()
	discount := cart.OrderDiscount
	if discount > subtotal {
		discount = subtotal
	}
	shipping := cart.Shipment.ShippingCost
	tax := (subtotal - discount) * c.taxRate

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal - discount + shipping + tax,
	}
}
