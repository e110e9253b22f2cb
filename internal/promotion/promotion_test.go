package promotion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
)

func TestApply_BelowThreshold(t *testing.T) {
	e := NewThresholdEngine(100.00, 10)
	cart := &domain.Cart{Lines: []domain.LineItem{{PlacedPrice: 50.00, Quantity: 1}}}

	require.NoError(t, e.Apply(context.Background(), cart))

	assert.Equal(t, 0.0, cart.OrderDiscount)
}

func TestApply_AtThreshold(t *testing.T) {
	e := NewThresholdEngine(100.00, 10)
	cart := &domain.Cart{Lines: []domain.LineItem{{PlacedPrice: 100.00, Quantity: 1}}}

	require.NoError(t, e.Apply(context.Background(), cart))

	assert.InDelta(t, 10.00, cart.OrderDiscount, 0.0001)
}

func TestApply_Disabled(t *testing.T) {
	e := NewThresholdEngine(0, 10)
	cart := &domain.Cart{Lines: []domain.LineItem{{PlacedPrice: 500.00, Quantity: 1}}}

	require.NoError(t, e.Apply(context.Background(), cart))

	assert.Equal(t, 0.0, cart.OrderDiscount)
}

func TestApply_OverwritesStaleDiscount(t *testing.T) {
	e := NewThresholdEngine(100.00, 10)
	cart := &domain.Cart{
		Lines:         []domain.LineItem{{PlacedPrice: 50.00, Quantity: 1}},
		OrderDiscount: 10.00,
	}

	require.NoError(t, e.Apply(context.Background(), cart))

	assert.Equal(t, 0.0, cart.OrderDiscount)
}
