package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/karolberezicki/ActualFoundation/internal/calculator"
	"github.com/karolberezicki/ActualFoundation/internal/catalog"
	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/internal/event"
	"github.com/karolberezicki/ActualFoundation/internal/payment"
	"github.com/karolberezicki/ActualFoundation/internal/pricing"
	"github.com/karolberezicki/ActualFoundation/internal/promotion"
	"github.com/karolberezicki/ActualFoundation/internal/repository/memory"
	"github.com/karolberezicki/ActualFoundation/internal/shipping"
	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
	pkgkafka "github.com/karolberezicki/ActualFoundation/pkg/kafka"
)

// --- Mocks ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) SaveAsPurchaseOrder(ctx context.Context, order *domain.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseOrder), args.Error(1)
}

// stubProcessor lets each test script the gateway outcome per submitted
// attempt, which a static mock return value cannot express.
type stubProcessor struct {
	processFn func(attempts []domain.PaymentAttempt) ([]payment.Result, error)
	attempts  []domain.PaymentAttempt
}

func (p *stubProcessor) Name() string { return "GooglePay" }

func (p *stubProcessor) Process(_ context.Context, _ string, attempts []domain.PaymentAttempt) ([]payment.Result, error) {
	p.attempts = attempts
	return p.processFn(attempts)
}

func resultsFor(attempts []domain.PaymentAttempt, status domain.PaymentStatus, message string) []payment.Result {
	results := make([]payment.Result, len(attempts))
	for i, a := range attempts {
		results[i] = payment.Result{
			AttemptID:        a.ID,
			Status:           status,
			GatewayPaymentID: "gpay_test",
			Message:          message,
		}
	}
	return results
}

func succeedAll() func([]domain.PaymentAttempt) ([]payment.Result, error) {
	return func(attempts []domain.PaymentAttempt) ([]payment.Result, error) {
		return resultsFor(attempts, domain.PaymentProcessed, ""), nil
	}
}

func declineAll(message string) func([]domain.PaymentAttempt) ([]payment.Result, error) {
	return func(attempts []domain.PaymentAttempt) ([]payment.Result, error) {
		return resultsFor(attempts, domain.PaymentDeclined, message), nil
	}
}

// --- Fixture ---

var (
	standardMethodID = uuid.MustParse("6f1e9a2c-0b3d-4e5f-8a61-7c2d9e0f1a2b")
	expressMethodID  = uuid.MustParse("9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d")
)

type fixture struct {
	svc    *CheckoutService
	carts  *memory.CartStore
	orders *mockOrderRepository
	proc   *stubProcessor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	carts := memory.NewCartStore()
	orders := new(mockOrderRepository)
	proc := &stubProcessor{processFn: succeedAll()}

	content := catalog.NewStaticCatalog([]catalog.Content{
		{Code: "SKU-CUP", DisplayName: "Espresso Cup"},
		{Code: "SKU-BEANS", DisplayName: "Coffee Beans"},
		{Code: "SKU-UNPRICED", DisplayName: "Mystery Box"},
	})
	prices := pricing.NewStaticPriceService([]pricing.Price{
		{Code: "SKU-CUP", MarketID: "US", Currency: "USD", Amount: 10.00},
		{Code: "SKU-BEANS", MarketID: "US", Currency: "USD", Amount: 5.00},
	})
	promotions := promotion.NewThresholdEngine(0, 0)

	shipSvc := shipping.NewStaticService([]shipping.Method{
		{ID: standardMethodID, Name: "Standard", MarketID: "US", BaseRate: 4.99},
		{ID: expressMethodID, Name: "Express", MarketID: "US", BaseRate: 14.99},
	})
	resolver := shipping.NewResolver(shipSvc, logger)

	calc := calculator.New(0)
	assembler := NewAssembler(calc, resolver, "shop.example.com", domain.PaymentHandlerConfig{
		GooglePay: domain.GooglePayConfig{
			MerchantInfo:        domain.MerchantInfo{MerchantID: "m-1", MerchantName: "Example"},
			AllowedCardNetworks: []string{"VISA"},
			AllowedAuthMethods:  []string{"PAN_ONLY"},
		},
	})

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)

	svc := NewCheckoutService(
		carts, orders, content, prices, promotions, resolver, proc,
		assembler, producer, logger,
		"US", "USD", "ucp-system",
	)

	return &fixture{svc: svc, carts: carts, orders: orders, proc: proc}
}

func createSession(t *testing.T, f *fixture) *domain.CheckoutSession {
	t.Helper()
	view, err := f.svc.Create(context.Background(), CreateSessionInput{
		LineItems: []LineItemInput{
			{ID: "SKU-CUP", Quantity: 1},
			{ID: "SKU-BEANS", Quantity: 2},
		},
	})
	require.NoError(t, err)
	return view
}

// --- Create Tests ---

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), CreateSessionInput{
		LineItems: []LineItemInput{
			{ID: "SKU-CUP", Title: "My Cup", Quantity: 1},
			{ID: "SKU-BEANS", Quantity: 2},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, view.Status)
	require.Len(t, view.LineItems, 2)
	assert.Equal(t, "My Cup", view.LineItems[0].Title)
	assert.Equal(t, "Coffee Beans", view.LineItems[1].Title)
	assert.Equal(t, "USD", view.Currency)
	assert.Contains(t, view.GlobalID, "gid://shop.example.com/Checkout/session_")
	assert.NotNil(t, view.PaymentHandlerConfig)
	assert.Nil(t, view.ShippingOptions)
	assert.Nil(t, view.OrderConfirmation)
}

func TestCreate_SubtotalInMinorUnits(t *testing.T) {
	f := newFixture(t)

	// qty 1 at $10.00 plus qty 2 at $5.00 is a $20.00 subtotal.
	view := createSession(t, f)

	require.NotNil(t, view.Totals)
	assert.Equal(t, int64(2000), view.Totals.Subtotal)
	assert.Equal(t, int64(2000), view.Totals.Total)
	assert.Equal(t, int64(0), view.Totals.Tax)
	assert.Equal(t, int64(0), view.Totals.Shipping)
}

func TestCreate_UnknownLineItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateSessionInput{
		LineItems: []LineItemInput{{ID: "SKU-NOPE", Quantity: 1}},
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.CodeLineItemNotFound, appErr.Code)
}

func TestCreate_MissingPriceIsNotAnError(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), CreateSessionInput{
		LineItems: []LineItemInput{{ID: "SKU-UNPRICED", Quantity: 3}},
	})

	require.NoError(t, err)
	require.Len(t, view.LineItems, 1)
	assert.Equal(t, int64(0), view.LineItems[0].UnitPrice)
	assert.Equal(t, int64(0), view.Totals.Subtotal)
}

func TestCreate_CurrencyFallback(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), CreateSessionInput{
		LineItems: []LineItemInput{{ID: "SKU-CUP", Quantity: 1}},
		Currency:  "eur",
	})

	require.NoError(t, err)
	assert.Equal(t, "EUR", view.Currency)
	// No EUR price book entry, so the line is unpriced.
	assert.Equal(t, int64(0), view.Totals.Subtotal)
}

// --- Get Tests ---

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "session_missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGet_Idempotent(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	first, err := f.svc.Get(context.Background(), created.SessionID)
	require.NoError(t, err)
	second, err := f.svc.Get(context.Background(), created.SessionID)
	require.NoError(t, err)

	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, first.LineItems, second.LineItems)
	assert.Equal(t, first.Status, second.Status)
}

// --- Update Tests ---

func usAddress() *AddressInput {
	return &AddressInput{
		Line1:       "548 Market St",
		City:        "San Francisco",
		RegionCode:  "CA",
		PostalCode:  "94104",
		CountryCode: "US",
	}
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), "session_missing", UpdateSessionInput{})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdate_ShippingAddressRatchetsStatus(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	view, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		ShippingAddress: usAddress(),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusShippingRequired, view.Status)
	require.NotNil(t, view.ShippingOptions)
	assert.Len(t, *view.ShippingOptions, 2)
}

func TestUpdate_ShippingOptionsAbsentBeforeAddress(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	view, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		Buyer: &BuyerInput{Email: "buyer@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, view.Status)
	assert.Nil(t, view.ShippingOptions)
}

func TestUpdate_ShippingOptionsPresentOnSubsequentGets(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	_, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		ShippingAddress: usAddress(),
	})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got.ShippingOptions)
	assert.Len(t, *got.ShippingOptions, 2)
}

func TestUpdate_BuyerContactCopiedOntoAddress(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	_, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		Buyer: &BuyerInput{
			Email:     "buyer@example.com",
			FirstName: "Ada",
			LastName:  "Lovelace",
		},
		ShippingAddress: usAddress(),
	})
	require.NoError(t, err)

	cart, err := f.carts.Load(context.Background(), "ucp-system", domain.CartName(created.SessionID))
	require.NoError(t, err)
	require.NotNil(t, cart.Shipment.ShippingAddress)
	assert.Equal(t, "Ada", cart.Shipment.ShippingAddress.FirstName)
	assert.Equal(t, "buyer@example.com", cart.Shipment.ShippingAddress.Email)
}

func TestUpdate_SelectShippingOption(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	_, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		ShippingAddress: usAddress(),
	})
	require.NoError(t, err)

	view, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		SelectedShippingOptionID: standardMethodID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(499), view.Totals.Shipping)
	assert.Equal(t, int64(2499), view.Totals.Total)
}

func TestUpdate_ShippingOptionNotOffered(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	_, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		ShippingAddress: usAddress(),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		SelectedShippingOptionID: uuid.New().String(),
	})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.CodeInvalidShippingOption, appErr.Code)
}

func TestUpdate_ShippingOptionBeforeAddress(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	_, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		SelectedShippingOptionID: standardMethodID.String(),
	})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.CodeInvalidShippingOption, appErr.Code)
}

func TestUpdate_ShippingOptionMalformedID(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	_, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		SelectedShippingOptionID: "not-a-uuid",
	})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.CodeInvalidShippingOption, appErr.Code)
}

// --- Complete Tests ---

func TestComplete_Success(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	f.orders.On("SaveAsPurchaseOrder", mock.Anything, mock.AnythingOfType("*domain.PurchaseOrder")).Return(nil)

	view, err := f.svc.Complete(context.Background(), created.SessionID, &PaymentDataInput{GooglePayToken: "tok_abc"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, view.Status)
	require.NotNil(t, view.OrderConfirmation)
	assert.NotEmpty(t, view.OrderConfirmation.OrderID)
	assert.Nil(t, view.Totals)
	assert.Nil(t, view.LineItems)
	assert.Nil(t, view.PaymentHandlerConfig)

	// The payment attempt covered the full total.
	require.Len(t, f.proc.attempts, 1)
	assert.InDelta(t, 20.00, f.proc.attempts[0].Amount, 0.0001)
	assert.Equal(t, "tok_abc", f.proc.attempts[0].CredentialToken)

	// The cart is gone; the session no longer resolves.
	_, err = f.svc.Get(context.Background(), created.SessionID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	f.orders.AssertExpectations(t)
}

func TestComplete_OrderSnapshot(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	var saved *domain.PurchaseOrder
	f.orders.On("SaveAsPurchaseOrder", mock.Anything, mock.AnythingOfType("*domain.PurchaseOrder")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*domain.PurchaseOrder)
		}).
		Return(nil)

	_, err := f.svc.Complete(context.Background(), created.SessionID, &PaymentDataInput{GooglePayToken: "tok_abc"})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, created.SessionID, saved.SessionID)
	assert.Equal(t, int64(2000), saved.Subtotal)
	assert.Equal(t, int64(2000), saved.Total)
	assert.Equal(t, "USD", saved.Currency)
	assert.Equal(t, "GooglePay", saved.PaymentMethod)
	require.Len(t, saved.Lines, 2)
	assert.Equal(t, int64(1000), saved.Lines[0].UnitPrice)
	assert.Equal(t, int64(500), saved.Lines[1].UnitPrice)
}

func TestComplete_PaymentFailure(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)
	f.proc.processFn = declineAll("card declined")

	_, err := f.svc.Complete(context.Background(), created.SessionID, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentFailed))
	assert.Contains(t, err.Error(), "card declined")

	// No order was written and the cart survives with the failed attempt.
	f.orders.AssertNotCalled(t, "SaveAsPurchaseOrder", mock.Anything, mock.Anything)
	cart, loadErr := f.carts.Load(context.Background(), "ucp-system", domain.CartName(created.SessionID))
	require.NoError(t, loadErr)
	require.Len(t, cart.Payments, 1)
	assert.Equal(t, domain.PaymentDeclined, cart.Payments[0].Status)
}

func TestComplete_RetryAfterDecline(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)
	f.orders.On("SaveAsPurchaseOrder", mock.Anything, mock.Anything).Return(nil)

	// Decline attempts without a credential, process the rest, the way the
	// real gateway behaves.
	f.proc.processFn = func(attempts []domain.PaymentAttempt) ([]payment.Result, error) {
		results := make([]payment.Result, len(attempts))
		for i, a := range attempts {
			if a.CredentialToken == "" {
				results[i] = payment.Result{AttemptID: a.ID, Status: domain.PaymentDeclined, Message: "missing payment credential"}
			} else {
				results[i] = payment.Result{AttemptID: a.ID, Status: domain.PaymentProcessed}
			}
		}
		return results, nil
	}

	_, err := f.svc.Complete(context.Background(), created.SessionID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentFailed))

	// Retrying with a valid token must succeed. The declined attempt stays
	// recorded on the cart but is not resubmitted to the gateway.
	view, err := f.svc.Complete(context.Background(), created.SessionID, &PaymentDataInput{GooglePayToken: "tok_valid"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, view.Status)
	require.Len(t, f.proc.attempts, 1)
	assert.Equal(t, "tok_valid", f.proc.attempts[0].CredentialToken)
	f.orders.AssertExpectations(t)
}

func TestComplete_GatewayUnreachable(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)
	f.proc.processFn = func([]domain.PaymentAttempt) ([]payment.Result, error) {
		return nil, errors.New("gateway connection refused")
	}

	_, err := f.svc.Complete(context.Background(), created.SessionID, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "process payments")
	f.orders.AssertNotCalled(t, "SaveAsPurchaseOrder", mock.Anything, mock.Anything)
}

func TestComplete_IntegrityCheck(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	// The processor claims success for an attempt id the cart never
	// submitted; no cart attempt reaches processed.
	f.proc.processFn = func([]domain.PaymentAttempt) ([]payment.Result, error) {
		return []payment.Result{{AttemptID: "phantom", Status: domain.PaymentProcessed}}, nil
	}

	_, err := f.svc.Complete(context.Background(), created.SessionID, nil)

	require.Error(t, err)
	assert.Equal(t, 500, apperrors.HTTPStatus(err))
	f.orders.AssertNotCalled(t, "SaveAsPurchaseOrder", mock.Anything, mock.Anything)
}

func TestComplete_SecondCallNotFound(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)
	f.orders.On("SaveAsPurchaseOrder", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Complete(context.Background(), created.SessionID, &PaymentDataInput{GooglePayToken: "tok_abc"})
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), created.SessionID, &PaymentDataInput{GooglePayToken: "tok_abc"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestComplete_UsesStoredCredential(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)
	f.orders.On("SaveAsPurchaseOrder", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Update(context.Background(), created.SessionID, UpdateSessionInput{
		PaymentData: &PaymentDataInput{GooglePayToken: "tok_stored"},
	})
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), created.SessionID, nil)

	require.NoError(t, err)
	require.Len(t, f.proc.attempts, 1)
	assert.Equal(t, "tok_stored", f.proc.attempts[0].CredentialToken)
}

func TestComplete_OrderSaveFailureLeavesCart(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)
	f.orders.On("SaveAsPurchaseOrder", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := f.svc.Complete(context.Background(), created.SessionID, &PaymentDataInput{GooglePayToken: "tok_abc"})

	require.Error(t, err)
	_, loadErr := f.carts.Load(context.Background(), "ucp-system", domain.CartName(created.SessionID))
	assert.NoError(t, loadErr)
}

// --- Cancel Tests ---

func TestCancel_Success(t *testing.T) {
	f := newFixture(t)
	created := createSession(t, f)

	view, err := f.svc.Cancel(context.Background(), created.SessionID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, view.Status)
	assert.Nil(t, view.Totals)
	assert.Nil(t, view.OrderConfirmation)

	_, err = f.svc.Get(context.Background(), created.SessionID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCancel_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), "session_missing")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- GlobalID Tests ---

func TestGlobalID(t *testing.T) {
	assert.Equal(t,
		"gid://shop.example.com/Checkout/session_abc",
		GlobalID("shop.example.com", "session_abc"),
	)
}
