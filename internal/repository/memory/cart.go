// Package memory provides an in-memory cart store for local development and
// tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
)

// CartStore implements repository.CartStore with a mutex-guarded map. Carts
// are stored as JSON copies so callers never share mutable state with the
// store.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewCartStore creates an empty in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string][]byte)}
}

func key(customerID, name string) string {
	return customerID + ":" + name
}

// Create stores a new cart, failing if one already exists under the same key.
func (s *CartStore) Create(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(cart.CustomerID, cart.Name)
	if _, exists := s.carts[k]; exists {
		return apperrors.Conflict(fmt.Sprintf("cart %s already exists", cart.Name))
	}
	s.carts[k] = data
	return nil
}

// Load retrieves a cart by customer id and name.
func (s *CartStore) Load(ctx context.Context, customerID, name string) (*domain.Cart, error) {
	s.mu.RLock()
	data, ok := s.carts[key(customerID, name)]
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.NotFound("cart", name)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

// Save overwrites an existing cart.
func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	s.mu.Lock()
	s.carts[key(cart.CustomerID, cart.Name)] = data
	s.mu.Unlock()
	return nil
}

// Delete removes a cart. Deleting an absent cart is a no-op.
func (s *CartStore) Delete(ctx context.Context, customerID, name string) error {
	s.mu.Lock()
	delete(s.carts, key(customerID, name))
	s.mu.Unlock()
	return nil
}
