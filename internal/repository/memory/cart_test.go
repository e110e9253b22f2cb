package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
)

func sampleCart() *domain.Cart {
	cart := domain.NewCart("ucp-system", "session_0123456789abcdef0123456789abcdef", "US", "USD")
	cart.Lines = []domain.LineItem{
		{Code: "SKU-1", DisplayName: "Espresso Cup", Quantity: 1, PlacedPrice: 10.00},
	}
	return cart
}

func TestCartStore_CreateAndLoad(t *testing.T) {
	store := NewCartStore()
	cart := sampleCart()

	require.NoError(t, store.Create(context.Background(), cart))

	got, err := store.Load(context.Background(), "ucp-system", cart.Name)
	require.NoError(t, err)
	assert.Equal(t, cart.SessionID, got.SessionID)
	assert.Equal(t, domain.StatusCreated, got.Status)
}

func TestCartStore_Create_Duplicate(t *testing.T) {
	store := NewCartStore()
	cart := sampleCart()

	require.NoError(t, store.Create(context.Background(), cart))
	err := store.Create(context.Background(), cart)

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestCartStore_Load_NotFound(t *testing.T) {
	store := NewCartStore()

	_, err := store.Load(context.Background(), "ucp-system", "UcpCheckout-session_missing")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCartStore_Load_ReturnsCopy(t *testing.T) {
	store := NewCartStore()
	cart := sampleCart()
	require.NoError(t, store.Create(context.Background(), cart))

	first, err := store.Load(context.Background(), "ucp-system", cart.Name)
	require.NoError(t, err)
	first.Lines[0].Quantity = 99

	second, err := store.Load(context.Background(), "ucp-system", cart.Name)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Lines[0].Quantity)
}

func TestCartStore_SaveThenLoad(t *testing.T) {
	store := NewCartStore()
	cart := sampleCart()
	require.NoError(t, store.Create(context.Background(), cart))

	cart.Status = domain.StatusShippingRequired
	require.NoError(t, store.Save(context.Background(), cart))

	got, err := store.Load(context.Background(), "ucp-system", cart.Name)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShippingRequired, got.Status)
}

func TestCartStore_Delete(t *testing.T) {
	store := NewCartStore()
	cart := sampleCart()
	require.NoError(t, store.Create(context.Background(), cart))

	require.NoError(t, store.Delete(context.Background(), "ucp-system", cart.Name))

	_, err := store.Load(context.Background(), "ucp-system", cart.Name)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCartStore_Delete_Absent(t *testing.T) {
	store := NewCartStore()

	assert.NoError(t, store.Delete(context.Background(), "ucp-system", "UcpCheckout-session_missing"))
}
