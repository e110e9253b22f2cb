package repository

import (
	"context"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
)

// CartStore persists session carts. A cart is addressed by the pair
// (customer id, cart name); the name is derived from the session id.
type CartStore interface {
	// Create stores a new cart. It fails if a cart already exists under
	// the same customer id and name.
	Create(ctx context.Context, cart *domain.Cart) error

	// Load retrieves a cart. A missing cart returns an error wrapping
	// ErrNotFound; callers translate that to "session not found".
	Load(ctx context.Context, customerID, name string) (*domain.Cart, error)

	// Save overwrites an existing cart.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes a cart. Deleting an absent cart is not an error.
	Delete(ctx context.Context, customerID, name string) error
}

// OrderRepository persists finalized purchase orders.
type OrderRepository interface {
	// SaveAsPurchaseOrder writes the immutable order record promoted
	// from a completed cart.
	SaveAsPurchaseOrder(ctx context.Context, order *domain.PurchaseOrder) error

	// GetByID retrieves a purchase order.
	GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error)
}
