package domain

// CheckoutSession is the externally visible view of a session, materialized
// on demand from the underlying cart. Monetary fields are integers in minor
// currency units.
type CheckoutSession struct {
	GlobalID  string        `json:"global_id"`
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Currency  string        `json:"currency,omitempty"`

	LineItems []SessionLineItem `json:"line_items,omitempty"`
	Totals    *SessionTotals    `json:"totals,omitempty"`

	// ShippingOptions is present (possibly empty) once a destination has
	// been set and absent before, hence the pointer to a slice.
	ShippingOptions *[]SessionShippingOption `json:"shipping_options,omitempty"`

	PaymentHandlerConfig *PaymentHandlerConfig `json:"payment_handler_config,omitempty"`

	Messages []Message `json:"messages,omitempty"`

	OrderConfirmation *OrderConfirmation `json:"order_confirmation,omitempty"`
}

// SessionLineItem is one line on the session view.
type SessionLineItem struct {
	ItemID    string `json:"item_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// SessionTotals carries the recomputed cart totals in minor units.
type SessionTotals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// SessionShippingOption is one selectable shipping method with its rate.
type SessionShippingOption struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Amount int64  `json:"amount"`
}

// Message is a structured notice attached to error responses.
type Message struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Content  string `json:"content"`
}

// Message codes and severities used on error responses.
const (
	MessageTypeError = "error"

	SeverityFatal = "fatal"

	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeLineItemNotFound      = "LINE_ITEM_NOT_FOUND"
	CodeInvalidShippingOption = "INVALID_SHIPPING_OPTION"
	CodePaymentFailed         = "PAYMENT_FAILED"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInternalError         = "INTERNAL_ERROR"
)

// OrderConfirmation carries the finalized order identifier after completion.
type OrderConfirmation struct {
	OrderID string `json:"order_id"`
}

// PaymentHandlerConfig is the static merchant payment-handler descriptor
// returned on create/get/update responses.
type PaymentHandlerConfig struct {
	GooglePay GooglePayConfig `json:"google_pay"`
}

// GooglePayConfig describes the merchant's Google Pay acceptance parameters.
type GooglePayConfig struct {
	MerchantInfo        MerchantInfo     `json:"merchant_info"`
	AllowedCardNetworks []string         `json:"allowed_card_networks"`
	AllowedAuthMethods  []string         `json:"allowed_auth_methods"`
	TokenizationSpec    TokenizationSpec `json:"tokenization_specification"`
}

// MerchantInfo identifies the merchant to the payment handler.
type MerchantInfo struct {
	MerchantID   string `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
}

// TokenizationSpec tells the payment handler how to tokenize credentials.
type TokenizationSpec struct {
	Type       string            `json:"type"`
	Parameters map[string]string `json:"parameters"`
}

// ErrorSession builds an error-shaped session view.
func ErrorSession(sessionID, code, content string) *CheckoutSession {
	return &CheckoutSession{
		SessionID: sessionID,
		Status:    StatusError,
		Messages: []Message{{
			Type:     MessageTypeError,
			Code:     code,
			Severity: SeverityFatal,
			Content:  content,
		}},
	}
}
