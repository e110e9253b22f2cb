package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
)

const keyPrefix = "checkout:cart:"

// CartStore implements repository.CartStore using Redis. Each cart is stored
// as a JSON blob under a key derived from customer id and cart name, with a
// TTL so abandoned sessions expire on their own.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore creates a Redis-backed cart store.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func key(customerID, name string) string {
	return keyPrefix + customerID + ":" + name
}

// Create stores a new cart, failing if one already exists under the same key.
func (s *CartStore) Create(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	ok, err := s.client.SetNX(ctx, key(cart.CustomerID, cart.Name), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx cart: %w", err)
	}
	if !ok {
		return apperrors.Conflict(fmt.Sprintf("cart %s already exists", cart.Name))
	}
	return nil
}

// Load retrieves a cart by customer id and name.
func (s *CartStore) Load(ctx context.Context, customerID, name string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, key(customerID, name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", name)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

// Save overwrites an existing cart, refreshing its TTL.
func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := s.client.Set(ctx, key(cart.CustomerID, cart.Name), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes a cart. Deleting an absent cart is a no-op.
func (s *CartStore) Delete(ctx context.Context, customerID, name string) error {
	if err := s.client.Del(ctx, key(customerID, name)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
