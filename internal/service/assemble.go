package service

import (
	"context"
	"fmt"

	"github.com/karolberezicki/ActualFoundation/internal/calculator"
	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/internal/shipping"
	"github.com/karolberezicki/ActualFoundation/pkg/money"
)

// GlobalID builds the externally visible session identifier. It is cosmetic
// and never decoded.
func GlobalID(merchantHostname, sessionID string) string {
	return fmt.Sprintf("gid://%s/Checkout/%s", merchantHostname, sessionID)
}

// Assembler renders the external session view from cart state. Totals are
// recomputed on every call, never cached, and converted to minor currency
// units at this boundary.
type Assembler struct {
	calc             *calculator.Calculator
	resolver         *shipping.Resolver
	merchantHostname string
	paymentConfig    domain.PaymentHandlerConfig
}

// NewAssembler creates a session view assembler.
func NewAssembler(calc *calculator.Calculator, resolver *shipping.Resolver, merchantHostname string, paymentConfig domain.PaymentHandlerConfig) *Assembler {
	return &Assembler{
		calc:             calc,
		resolver:         resolver,
		merchantHostname: merchantHostname,
		paymentConfig:    paymentConfig,
	}
}

// FullView renders the complete session representation returned from create,
// get and update. Shipping options are included only once a destination has
// been set.
func (a *Assembler) FullView(ctx context.Context, cart *domain.Cart) (*domain.CheckoutSession, error) {
	totals := a.calc.Totals(cart)
	currency := cart.Currency

	lines := make([]domain.SessionLineItem, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = domain.SessionLineItem{
			ItemID:    l.Code,
			Title:     l.DisplayName,
			Quantity:  l.Quantity,
			UnitPrice: money.ToMinorUnits(l.PlacedPrice, currency),
		}
	}

	view := &domain.CheckoutSession{
		GlobalID:  GlobalID(a.merchantHostname, cart.SessionID),
		SessionID: cart.SessionID,
		Status:    cart.Status,
		Currency:  currency,
		LineItems: lines,
		Totals: &domain.SessionTotals{
			Subtotal: money.ToMinorUnits(totals.Subtotal, currency),
			Tax:      money.ToMinorUnits(totals.Tax, currency),
			Shipping: money.ToMinorUnits(totals.Shipping, currency),
			Discount: money.ToMinorUnits(totals.Discount, currency),
			Total:    money.ToMinorUnits(totals.Total, currency),
		},
	}

	cfg := a.paymentConfig
	view.PaymentHandlerConfig = &cfg

	if cart.HasShippingAddress() {
		options, err := a.resolver.Resolve(ctx, cart)
		if err != nil {
			return nil, fmt.Errorf("resolve shipping options: %w", err)
		}
		sessionOptions := make([]domain.SessionShippingOption, len(options))
		for i, o := range options {
			sessionOptions[i] = domain.SessionShippingOption{
				ID:     o.ID.String(),
				Title:  o.Title,
				Amount: money.ToMinorUnits(o.Amount, currency),
			}
		}
		view.ShippingOptions = &sessionOptions
	}

	return view, nil
}

// MinimalView renders the deliberately sparse representation returned from
// complete and cancel: no line items, totals or payment config.
func (a *Assembler) MinimalView(sessionID string, status domain.SessionStatus, orderID string) *domain.CheckoutSession {
	view := &domain.CheckoutSession{
		GlobalID:  GlobalID(a.merchantHostname, sessionID),
		SessionID: sessionID,
		Status:    status,
	}
	if orderID != "" {
		view.OrderConfirmation = &domain.OrderConfirmation{OrderID: orderID}
	}
	return view
}
