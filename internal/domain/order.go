package domain

import "time"

// PurchaseOrder is the durable record written when a checkout session
// completes. Monetary amounts are snapshotted in minor currency units.
type PurchaseOrder struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	CustomerID string    `json:"customer_id"`
	MarketID   string    `json:"market_id"`
	Currency   string    `json:"currency"`

	Lines []OrderLine `json:"lines"`

	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`

	BuyerEmail      string        `json:"buyer_email,omitempty"`
	ShippingAddress *OrderAddress `json:"shipping_address,omitempty"`

	PaymentMethod string `json:"payment_method,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// OrderLine is one line on a purchase order. UnitPrice is in minor units.
type OrderLine struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}
