package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karolberezicki/ActualFoundation/internal/calculator"
	"github.com/karolberezicki/ActualFoundation/internal/catalog"
	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/internal/event"
	"github.com/karolberezicki/ActualFoundation/internal/payment"
	"github.com/karolberezicki/ActualFoundation/internal/pricing"
	"github.com/karolberezicki/ActualFoundation/internal/promotion"
	"github.com/karolberezicki/ActualFoundation/internal/repository"
	"github.com/karolberezicki/ActualFoundation/internal/shipping"
	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
	"github.com/karolberezicki/ActualFoundation/pkg/money"
)

// LineItemInput is one requested line on session creation. Inputs arrive
// already validated by the transport layer.
type LineItemInput struct {
	ID       string
	Title    string
	Quantity int
}

// CreateSessionInput holds the parameters for creating a checkout session.
type CreateSessionInput struct {
	LineItems []LineItemInput
	Currency  string
}

// BuyerInput holds buyer contact fields.
type BuyerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// AddressInput holds a shipping destination.
type AddressInput struct {
	Line1       string
	Line2       string
	City        string
	RegionCode  string
	PostalCode  string
	CountryCode string
}

// PaymentDataInput carries an opaque payment credential.
type PaymentDataInput struct {
	GooglePayToken string
}

// UpdateSessionInput holds the optional fields of a session update. Each
// present field is applied independently.
type UpdateSessionInput struct {
	Buyer                    *BuyerInput
	ShippingAddress          *AddressInput
	SelectedShippingOptionID string
	PaymentData              *PaymentDataInput
}

// CheckoutService implements the checkout session state machine.
type CheckoutService struct {
	carts      repository.CartStore
	orders     repository.OrderRepository
	catalog    catalog.ContentLookup
	pricing    pricing.PriceService
	promotions promotion.Engine
	resolver   *shipping.Resolver
	processor  payment.Processor
	assembler  *Assembler
	producer   *event.Producer
	logger     *slog.Logger

	marketID        string
	defaultCurrency string
	customerID      string

	locks *sessionLocks
}

// NewCheckoutService creates the checkout session service.
func NewCheckoutService(
	carts repository.CartStore,
	orders repository.OrderRepository,
	contentLookup catalog.ContentLookup,
	prices pricing.PriceService,
	promotions promotion.Engine,
	resolver *shipping.Resolver,
	processor payment.Processor,
	assembler *Assembler,
	producer *event.Producer,
	logger *slog.Logger,
	marketID, defaultCurrency, customerID string,
) *CheckoutService {
	return &CheckoutService{
		carts:           carts,
		orders:          orders,
		catalog:         contentLookup,
		pricing:         prices,
		promotions:      promotions,
		resolver:        resolver,
		processor:       processor,
		assembler:       assembler,
		producer:        producer,
		logger:          logger,
		marketID:        marketID,
		defaultCurrency: defaultCurrency,
		customerID:      customerID,
		locks:           newSessionLocks(),
	}
}

// Create starts a new checkout session from the requested line items. An
// unresolvable item code rejects the whole request.
func (s *CheckoutService) Create(ctx context.Context, input CreateSessionInput) (*domain.CheckoutSession, error) {
	currency := input.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	currency = strings.ToUpper(currency)

	sessionID := domain.NewSessionID()
	cart := domain.NewCart(s.customerID, sessionID, s.marketID, currency)

	for _, item := range input.LineItems {
		content, err := s.catalog.Resolve(ctx, item.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.UnprocessableInput(
					domain.CodeLineItemNotFound,
					fmt.Sprintf("line item %s does not resolve to a catalog entry", item.ID),
				)
			}
			return nil, fmt.Errorf("resolve catalog content %s: %w", item.ID, err)
		}

		title := item.Title
		if title == "" {
			title = content.DisplayName
		}

		line := domain.LineItem{
			Code:        item.ID,
			DisplayName: title,
			Quantity:    item.Quantity,
		}

		// A missing price is not an error; the line is added with a
		// zero placed price.
		price, ok, err := s.pricing.GetPrice(ctx, item.ID, s.marketID, currency)
		if err != nil {
			return nil, fmt.Errorf("get price for %s: %w", item.ID, err)
		}
		if ok {
			line.PlacedPrice = price
		}

		cart.Lines = append(cart.Lines, line)
	}

	if err := s.promotions.Apply(ctx, cart); err != nil {
		return nil, fmt.Errorf("apply promotions: %w", err)
	}

	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	if err := s.producer.PublishSessionCreated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout_session.created event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", sessionID),
		slog.String("currency", currency),
		slog.Int("line_count", len(cart.Lines)),
	)

	return s.assembler.FullView(ctx, cart)
}

// Get renders the current session view. Pure read, no side effects.
func (s *CheckoutService) Get(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.assembler.FullView(ctx, cart)
}

// Update applies each present field of the input independently, re-applies
// promotions and persists the cart. Setting a shipping address ratchets the
// session to SHIPPING_REQUIRED.
func (s *CheckoutService) Update(ctx context.Context, sessionID string, input UpdateSessionInput) (*domain.CheckoutSession, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if input.Buyer != nil {
		cart.Buyer = &domain.Buyer{
			Email:     input.Buyer.Email,
			FirstName: input.Buyer.FirstName,
			LastName:  input.Buyer.LastName,
			Phone:     input.Buyer.Phone,
		}
	}

	if input.ShippingAddress != nil {
		addr := &domain.OrderAddress{
			Line1:       input.ShippingAddress.Line1,
			Line2:       input.ShippingAddress.Line2,
			City:        input.ShippingAddress.City,
			RegionCode:  input.ShippingAddress.RegionCode,
			PostalCode:  input.ShippingAddress.PostalCode,
			CountryCode: input.ShippingAddress.CountryCode,
		}
		// Buyer contact fields ride along on the shipment address when
		// supplied in the same call.
		if cart.Buyer != nil {
			addr.FirstName = cart.Buyer.FirstName
			addr.LastName = cart.Buyer.LastName
			addr.Email = cart.Buyer.Email
		}
		cart.Shipment.ShippingAddress = addr

		if err := cart.SetStatus(domain.StatusShippingRequired); err != nil {
			return nil, apperrors.Conflict(err.Error())
		}
	}

	if input.SelectedShippingOptionID != "" {
		if err := s.selectShippingOption(ctx, cart, input.SelectedShippingOptionID); err != nil {
			return nil, err
		}
	}

	if input.PaymentData != nil {
		cart.PaymentCredential = input.PaymentData.GooglePayToken
	}

	if err := s.promotions.Apply(ctx, cart); err != nil {
		return nil, fmt.Errorf("apply promotions: %w", err)
	}

	cart.UpdatedAt = time.Now().UTC()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	return s.assembler.FullView(ctx, cart)
}

// selectShippingOption assigns a shipping method after checking it is one of
// the options currently offered for the cart's destination.
func (s *CheckoutService) selectShippingOption(ctx context.Context, cart *domain.Cart, optionID string) error {
	methodID, err := uuid.Parse(optionID)
	if err != nil {
		return apperrors.UnprocessableInput(
			domain.CodeInvalidShippingOption,
			fmt.Sprintf("shipping option id %s is not a valid identifier", optionID),
		)
	}

	if !cart.HasShippingAddress() {
		return apperrors.UnprocessableInput(
			domain.CodeInvalidShippingOption,
			"a shipping option cannot be selected before a shipping address is set",
		)
	}

	options, err := s.resolver.Resolve(ctx, cart)
	if err != nil {
		return fmt.Errorf("resolve shipping options: %w", err)
	}
	if !shipping.Contains(options, methodID) {
		return apperrors.UnprocessableInput(
			domain.CodeInvalidShippingOption,
			fmt.Sprintf("shipping option %s is not offered for this session", optionID),
		)
	}

	for _, o := range options {
		if o.ID == methodID {
			cart.Shipment.ShippingMethodID = methodID
			cart.Shipment.ShippingCost = o.Amount
			break
		}
	}
	return nil
}

// Complete takes payment for the current total, promotes the cart to a
// purchase order and deletes the cart. It is not idempotent: a second call
// finds no cart and reports session not found.
func (s *CheckoutService) Complete(ctx context.Context, sessionID string, paymentData *PaymentDataInput) (*domain.CheckoutSession, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	credential := cart.PaymentCredential
	if paymentData != nil && paymentData.GooglePayToken != "" {
		credential = paymentData.GooglePayToken
	}

	totals := s.assembler.calc.Totals(cart)
	attempt := domain.PaymentAttempt{
		ID:              uuid.New().String(),
		MethodName:      s.processor.Name(),
		Amount:          totals.Total,
		Status:          domain.PaymentPending,
		CredentialToken: credential,
	}
	cart.Payments = append(cart.Payments, attempt)

	// Only pending attempts go to the gateway. Attempts declined on an
	// earlier completion stay recorded on the cart but must not be
	// resubmitted, or their decline would sink every retry.
	pending := make([]domain.PaymentAttempt, 0, len(cart.Payments))
	for _, p := range cart.Payments {
		if p.Status == domain.PaymentPending {
			pending = append(pending, p)
		}
	}

	results, err := s.processor.Process(ctx, cart.Currency, pending)
	if err != nil {
		return nil, fmt.Errorf("process payments: %w", err)
	}
	s.applyPaymentResults(cart, results)

	if msgs := paymentFailures(results); len(msgs) > 0 {
		// Record the failed attempt, leave the cart unpromoted.
		if saveErr := s.carts.Save(ctx, cart); saveErr != nil {
			s.logger.ErrorContext(ctx, "failed to persist failed payment attempt",
				slog.String("session_id", sessionID),
				slog.String("error", saveErr.Error()),
			)
		}
		return nil, apperrors.PaymentFailed(strings.Join(msgs, "; "))
	}

	processed, ok := cart.ProcessedPayment()
	if !ok {
		return nil, apperrors.Internal(errors.New("payment processing reported success but no attempt was processed"))
	}

	if err := cart.SetStatus(domain.StatusCompleted); err != nil {
		return nil, apperrors.Conflict(err.Error())
	}

	order := s.buildPurchaseOrder(cart, totals, processed)
	if err := s.orders.SaveAsPurchaseOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save purchase order: %w", err)
	}

	// The order is committed; a cart deletion failure must not surface as
	// a completion failure or a retry would double-charge. The orphaned
	// cart expires with its TTL.
	if err := s.carts.Delete(ctx, cart.CustomerID, cart.Name); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete cart after completion",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishSessionCompleted(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout_session.completed event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session completed",
		slog.String("session_id", sessionID),
		slog.String("order_id", order.ID),
		slog.Int64("total", order.Total),
	)

	return s.assembler.MinimalView(sessionID, domain.StatusCompleted, order.ID), nil
}

// Cancel deletes the session's cart unconditionally and returns a minimal
// cancelled view.
func (s *CheckoutService) Cancel(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.Delete(ctx, cart.CustomerID, cart.Name); err != nil {
		return nil, fmt.Errorf("delete cart: %w", err)
	}

	if err := s.producer.PublishSessionCancelled(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout_session.cancelled event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session cancelled",
		slog.String("session_id", sessionID),
	)

	return s.assembler.MinimalView(sessionID, domain.StatusCancelled, ""), nil
}

// loadCart maps a session id to its cart. A missing cart means the session
// does not exist, whatever the reason.
func (s *CheckoutService) loadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Load(ctx, s.customerID, domain.CartName(sessionID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("checkout session", sessionID)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// applyPaymentResults copies per-attempt outcomes back onto the cart.
func (s *CheckoutService) applyPaymentResults(cart *domain.Cart, results []payment.Result) {
	for _, r := range results {
		for i := range cart.Payments {
			if cart.Payments[i].ID == r.AttemptID {
				cart.Payments[i].Status = r.Status
				cart.Payments[i].Message = r.Message
				break
			}
		}
	}
}

// paymentFailures collects the failure messages of all non-processed results.
func paymentFailures(results []payment.Result) []string {
	var msgs []string
	for _, r := range results {
		if r.Processed() {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("payment attempt %s failed with status %s", r.AttemptID, r.Status)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// buildPurchaseOrder snapshots the completed cart into an immutable order
// record with all amounts in minor units.
func (s *CheckoutService) buildPurchaseOrder(cart *domain.Cart, totals calculator.Totals, processed domain.PaymentAttempt) *domain.PurchaseOrder {
	currency := cart.Currency

	lines := make([]domain.OrderLine, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = domain.OrderLine{
			Code:        l.Code,
			DisplayName: l.DisplayName,
			Quantity:    l.Quantity,
			UnitPrice:   money.ToMinorUnits(l.PlacedPrice, currency),
		}
	}

	var buyerEmail string
	if cart.Buyer != nil {
		buyerEmail = cart.Buyer.Email
	} else if cart.HasShippingAddress() {
		buyerEmail = cart.Shipment.ShippingAddress.Email
	}

	return &domain.PurchaseOrder{
		ID:              uuid.New().String(),
		SessionID:       cart.SessionID,
		CustomerID:      cart.CustomerID,
		MarketID:        cart.MarketID,
		Currency:        currency,
		Lines:           lines,
		Subtotal:        money.ToMinorUnits(totals.Subtotal, currency),
		Discount:        money.ToMinorUnits(totals.Discount, currency),
		Shipping:        money.ToMinorUnits(totals.Shipping, currency),
		Tax:             money.ToMinorUnits(totals.Tax, currency),
		Total:           money.ToMinorUnits(totals.Total, currency),
		BuyerEmail:      buyerEmail,
		ShippingAddress: cart.Shipment.ShippingAddress,
		PaymentMethod:   processed.MethodName,
		PaymentID:       processed.ID,
		CreatedAt:       time.Now().UTC(),
	}
}
