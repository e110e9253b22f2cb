package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/internal/service"
	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
	"github.com/karolberezicki/ActualFoundation/pkg/httputil"
	"github.com/karolberezicki/ActualFoundation/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout session endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a checkout session HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// ItemRef identifies a catalog item on the wire.
type ItemRef struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title"`
}

// LineItemRequest is one requested line item.
type LineItemRequest struct {
	Item     ItemRef `json:"item" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gte=1"`
}

// CreateSessionRequest is the JSON body of POST /checkout-sessions.
type CreateSessionRequest struct {
	LineItems []LineItemRequest `json:"line_items" validate:"required,min=1,dive"`
	Currency  string            `json:"currency" validate:"omitempty,len=3"`
}

// BuyerRequest carries buyer contact fields.
type BuyerRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// AddressRequest carries a shipping destination.
type AddressRequest struct {
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	City        string `json:"city"`
	RegionCode  string `json:"region_code"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
}

// FulfillmentRequest wraps the shipping destination.
type FulfillmentRequest struct {
	ShippingAddress *AddressRequest `json:"shipping_address" validate:"omitempty"`
}

// CredentialRequest carries a tokenized payment credential.
type CredentialRequest struct {
	GooglePayToken string `json:"google_pay_token"`
}

// PaymentDataRequest wraps the payment credential.
type PaymentDataRequest struct {
	Credential *CredentialRequest `json:"credential"`
}

// UpdateSessionRequest is the JSON body of PUT /checkout-sessions/{id}.
type UpdateSessionRequest struct {
	Buyer                    *BuyerRequest       `json:"buyer" validate:"omitempty"`
	Fulfillment              *FulfillmentRequest `json:"fulfillment" validate:"omitempty"`
	SelectedShippingOptionID string              `json:"selected_shipping_option_id"`
	PaymentData              *PaymentDataRequest `json:"payment_data"`
}

// CompleteSessionRequest is the JSON body of POST /checkout-sessions/{id}/complete.
type CompleteSessionRequest struct {
	PaymentData *PaymentDataRequest `json:"payment_data"`
}

// --- Handlers ---

// CreateSession handles POST /checkout-sessions.
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorShape(w, http.StatusBadRequest, domain.CodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	input := service.CreateSessionInput{Currency: req.Currency}
	for _, li := range req.LineItems {
		input.LineItems = append(input.LineItems, service.LineItemInput{
			ID:       li.Item.ID,
			Title:    li.Item.Title,
			Quantity: li.Quantity,
		})
	}

	view, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /checkout-sessions/{id}.
func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// UpdateSession handles PUT /checkout-sessions/{id}.
func (h *CheckoutHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorShape(w, http.StatusBadRequest, domain.CodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	input := service.UpdateSessionInput{
		SelectedShippingOptionID: req.SelectedShippingOptionID,
	}
	if req.Buyer != nil {
		input.Buyer = &service.BuyerInput{
			Email:     req.Buyer.Email,
			FirstName: req.Buyer.FirstName,
			LastName:  req.Buyer.LastName,
			Phone:     req.Buyer.Phone,
		}
	}
	if req.Fulfillment != nil && req.Fulfillment.ShippingAddress != nil {
		a := req.Fulfillment.ShippingAddress
		input.ShippingAddress = &service.AddressInput{
			Line1:       a.Line1,
			Line2:       a.Line2,
			City:        a.City,
			RegionCode:  a.RegionCode,
			PostalCode:  a.PostalCode,
			CountryCode: a.CountryCode,
		}
	}
	if req.PaymentData != nil && req.PaymentData.Credential != nil {
		input.PaymentData = &service.PaymentDataInput{
			GooglePayToken: req.PaymentData.Credential.GooglePayToken,
		}
	}

	view, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// CompleteSession handles POST /checkout-sessions/{id}/complete.
func (h *CheckoutHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	var paymentData *service.PaymentDataInput
	if r.ContentLength != 0 {
		var req CompleteSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeErrorShape(w, http.StatusBadRequest, domain.CodeInvalidRequest, "invalid request body: "+err.Error())
			return
		}
		if req.PaymentData != nil && req.PaymentData.Credential != nil {
			paymentData = &service.PaymentDataInput{
				GooglePayToken: req.PaymentData.Credential.GooglePayToken,
			}
		}
	}

	view, err := h.service.Complete(r.Context(), chi.URLParam(r, "id"), paymentData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// CancelSession handles POST /checkout-sessions/{id}/cancel.
func (h *CheckoutHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// --- Helpers ---

// writeErrorShape renders the error-shaped session body used on all failure
// paths.
func (h *CheckoutHandler) writeErrorShape(w http.ResponseWriter, status int, code, content string) {
	httputil.WriteJSON(w, status, domain.ErrorSession("", code, content))
}

func (h *CheckoutHandler) writeValidationError(w http.ResponseWriter, err error) {
	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		h.writeErrorShape(w, http.StatusBadRequest, domain.CodeInvalidRequest, ve.Error())
		return
	}
	h.writeErrorShape(w, http.StatusBadRequest, domain.CodeInvalidRequest, err.Error())
}

func (h *CheckoutHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code := appErr.Code
		if code == "NOT_FOUND" {
			code = domain.CodeSessionNotFound
		}
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "checkout request failed",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		h.writeErrorShape(w, status, code, appErr.Message)
		return
	}

	h.logger.ErrorContext(r.Context(), "checkout request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.writeErrorShape(w, http.StatusInternalServerError, domain.CodeInternalError, "an internal error occurred")
}
