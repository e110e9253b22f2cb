// Package googlepay implements the payment processor for Google Pay
// credentials. It validates the presence of a tokenized credential and
// simulates gateway authorization; swap it for a real gateway integration by
// implementing the same processor interface.
package googlepay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/internal/payment"
)

// MethodName is the label stamped on payment attempts created for this
// processor.
const MethodName = "GooglePay"

// Gateway processes Google Pay payment attempts.
type Gateway struct {
	logger *slog.Logger
}

// NewGateway creates a Google Pay gateway.
func NewGateway(logger *slog.Logger) *Gateway {
	return &Gateway{logger: logger}
}

// Name returns the processor name.
func (g *Gateway) Name() string {
	return MethodName
}

// Process authorizes each attempt. An attempt without a credential token is
// declined; the gateway never partially fails a batch.
func (g *Gateway) Process(ctx context.Context, currency string, attempts []domain.PaymentAttempt) ([]payment.Result, error) {
	results := make([]payment.Result, 0, len(attempts))
	for _, a := range attempts {
		if a.CredentialToken == "" {
			g.logger.WarnContext(ctx, "payment attempt declined",
				slog.String("attempt_id", a.ID),
				slog.String("reason", "missing credential token"),
			)
			results = append(results, payment.Result{
				AttemptID: a.ID,
				Status:    domain.PaymentDeclined,
				Message:   fmt.Sprintf("payment %s declined: missing payment credential", a.ID),
			})
			continue
		}
		results = append(results, payment.Result{
			AttemptID:        a.ID,
			Status:           domain.PaymentProcessed,
			GatewayPaymentID: "gpay_" + uuid.New().String(),
		})
		g.logger.InfoContext(ctx, "payment attempt processed",
			slog.String("attempt_id", a.ID),
			slog.String("currency", currency),
			slog.Float64("amount", a.Amount),
		)
	}
	return results, nil
}
