package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CartNamePrefix is prepended to the session id to form the cart name under
// which a checkout session's cart is stored.
const CartNamePrefix = "UcpCheckout-"

// Cart is the persisted representation of a checkout session. It holds the
// buyer's selections, the shipping state and any payment attempts recorded
// against the session.
type Cart struct {
	CustomerID string        `json:"customer_id"`
	Name       string        `json:"name"`
	SessionID  string        `json:"session_id"`
	MarketID   string        `json:"market_id"`
	Currency   string        `json:"currency"`
	Status     SessionStatus `json:"status"`

	Buyer    *Buyer           `json:"buyer,omitempty"`
	Lines    []LineItem       `json:"lines"`
	Shipment Shipment         `json:"shipment"`
	Payments []PaymentAttempt `json:"payments,omitempty"`

	// PaymentCredential is an opaque tokenized credential supplied ahead
	// of completion, consumed when the payment attempt is created.
	PaymentCredential string `json:"payment_credential,omitempty"`

	// OrderDiscount is the order-level promotion discount, in major units.
	OrderDiscount float64 `json:"order_discount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Buyer identifies the person checking out.
type Buyer struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LineItem is one priced entry on the cart. PlacedPrice is the unit price in
// major currency units captured at the time the item was added.
type LineItem struct {
	Code        string  `json:"code"`
	DisplayName string  `json:"display_name"`
	Quantity    int     `json:"quantity"`
	PlacedPrice float64 `json:"placed_price"`
}

// Shipment carries the destination and the chosen shipping method, if any.
type Shipment struct {
	ShippingMethodID uuid.UUID     `json:"shipping_method_id"`
	ShippingAddress  *OrderAddress `json:"shipping_address,omitempty"`
	// ShippingCost is the cost of the chosen method in major units.
	ShippingCost float64 `json:"shipping_cost"`
}

// OrderAddress is a postal address attached to a shipment or purchase order.
type OrderAddress struct {
	Line1       string `json:"line1,omitempty"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city,omitempty"`
	RegionCode  string `json:"region_code,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// PaymentStatus tags the outcome of a payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentProcessed PaymentStatus = "PROCESSED"
	PaymentDeclined  PaymentStatus = "DECLINED"
	PaymentErrored   PaymentStatus = "ERROR"
)

// PaymentAttempt records one attempt to take payment for the session total.
type PaymentAttempt struct {
	ID         string        `json:"id"`
	MethodName string        `json:"method_name"`
	Amount     float64       `json:"amount"`
	Status     PaymentStatus `json:"status"`
	// CredentialToken is the opaque payment credential supplied by the
	// caller, passed through to the gateway untouched.
	CredentialToken string `json:"credential_token,omitempty"`
	Message         string `json:"message,omitempty"`
}

// NewSessionID returns a fresh session identifier of the form
// "session_" followed by 32 hex characters.
func NewSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to uuid.
		u := uuid.New()
		copy(b, u[:])
	}
	return "session_" + hex.EncodeToString(b)
}

// CartName returns the cart name for a session id.
func CartName(sessionID string) string {
	return CartNamePrefix + sessionID
}

// NewCart builds a cart for a new checkout session in status CREATED.
func NewCart(customerID, sessionID, marketID, currency string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		CustomerID: customerID,
		Name:       CartName(sessionID),
		SessionID:  sessionID,
		MarketID:   marketID,
		Currency:   currency,
		Status:     StatusCreated,
		Lines:      []LineItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetStatus moves the cart to the given status, rejecting disallowed
// transitions.
func (c *Cart) SetStatus(to SessionStatus) error {
	if !c.Status.CanTransition(to) {
		return fmt.Errorf("cannot transition session from %s to %s", c.Status, to)
	}
	c.Status = to
	return nil
}

// Subtotal is the sum of line unit prices times quantities, in major units.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, l := range c.Lines {
		sum += l.PlacedPrice * float64(l.Quantity)
	}
	return sum
}

// HasShippingAddress reports whether a destination has been set.
func (c *Cart) HasShippingAddress() bool {
	return c.Shipment.ShippingAddress != nil
}

// ProcessedPayment returns the first processed payment attempt, if any.
func (c *Cart) ProcessedPayment() (PaymentAttempt, bool) {
	for _, p := range c.Payments {
		if p.Status == PaymentProcessed {
			return p, true
		}
	}
	return PaymentAttempt{}, false
}
