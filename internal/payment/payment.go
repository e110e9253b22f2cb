// Package payment defines the processor interface a checkout session uses to
// take payment, with a tagged per-attempt result.
package payment

import (
	"context"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
)

// Result is the outcome of processing one payment attempt.
type Result struct {
	AttemptID string
	Status    domain.PaymentStatus
	// GatewayPaymentID is the gateway-side identifier for a processed
	// payment. Empty on decline or error.
	GatewayPaymentID string
	Message          string
}

// Processed reports whether the attempt ended in a processed payment.
func (r Result) Processed() bool {
	return r.Status == domain.PaymentProcessed
}

// Processor submits a session's payment attempts to a gateway. Each attempt
// yields exactly one result; a non-nil error means the gateway itself could
// not be reached and no attempt outcome is known.
type Processor interface {
	Name() string
	Process(ctx context.Context, currency string, attempts []domain.PaymentAttempt) ([]Result, error)
}
