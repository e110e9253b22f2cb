package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	pkgkafka "github.com/karolberezicki/ActualFoundation/pkg/kafka"
)

// Kafka topic constants for checkout session events.
const (
	TopicSessionCreated   = "ucp.checkout_session.created"
	TopicSessionCompleted = "ucp.checkout_session.completed"
	TopicSessionCancelled = "ucp.checkout_session.cancelled"
)

// AggregateTypeSession is the aggregate type stamped on session events.
const AggregateTypeSession = "checkout_session"

// SourceCheckoutService identifies events originating from this service.
const SourceCheckoutService = "checkout-service"

// SessionCreatedData is the payload for a checkout_session.created event.
type SessionCreatedData struct {
	SessionID string  `json:"session_id"`
	MarketID  string  `json:"market_id"`
	Currency  string  `json:"currency"`
	LineCount int     `json:"line_count"`
	Subtotal  float64 `json:"subtotal"`
}

// SessionCompletedData is the payload for a checkout_session.completed event.
type SessionCompletedData struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
	Currency  string `json:"currency"`
	Total     int64  `json:"total"`
}

// SessionCancelledData is the payload for a checkout_session.cancelled event.
type SessionCancelledData struct {
	SessionID string `json:"session_id"`
}

// Producer publishes checkout session events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the checkout service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishSessionCreated publishes a checkout_session.created event.
func (p *Producer) PublishSessionCreated(ctx context.Context, cart *domain.Cart) error {
	data := SessionCreatedData{
		SessionID: cart.SessionID,
		MarketID:  cart.MarketID,
		Currency:  cart.Currency,
		LineCount: len(cart.Lines),
		Subtotal:  cart.Subtotal(),
	}

	event, err := pkgkafka.NewEvent(TopicSessionCreated, cart.SessionID, AggregateTypeSession, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create checkout_session.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionCreated, event); err != nil {
		return fmt.Errorf("publish checkout_session.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout_session.created event",
		slog.String("session_id", cart.SessionID),
	)

	return nil
}

// PublishSessionCompleted publishes a checkout_session.completed event.
func (p *Producer) PublishSessionCompleted(ctx context.Context, order *domain.PurchaseOrder) error {
	data := SessionCompletedData{
		SessionID: order.SessionID,
		OrderID:   order.ID,
		Currency:  order.Currency,
		Total:     order.Total,
	}

	event, err := pkgkafka.NewEvent(TopicSessionCompleted, order.SessionID, AggregateTypeSession, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create checkout_session.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionCompleted, event); err != nil {
		return fmt.Errorf("publish checkout_session.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout_session.completed event",
		slog.String("session_id", order.SessionID),
		slog.String("order_id", order.ID),
	)

	return nil
}

// PublishSessionCancelled publishes a checkout_session.cancelled event.
func (p *Producer) PublishSessionCancelled(ctx context.Context, sessionID string) error {
	data := SessionCancelledData{SessionID: sessionID}

	event, err := pkgkafka.NewEvent(TopicSessionCancelled, sessionID, AggregateTypeSession, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create checkout_session.cancelled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionCancelled, event); err != nil {
		return fmt.Errorf("publish checkout_session.cancelled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout_session.cancelled event",
		slog.String("session_id", sessionID),
	)

	return nil
}
