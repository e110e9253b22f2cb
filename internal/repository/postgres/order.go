package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/pkg/database"
	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed purchase order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// SaveAsPurchaseOrder inserts the order and its lines atomically within a
// transaction.
func (r *OrderRepository) SaveAsPurchaseOrder(ctx context.Context, o *domain.PurchaseOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var addressJSON []byte
	if o.ShippingAddress != nil {
		addressJSON, err = json.Marshal(o.ShippingAddress)
		if err != nil {
			return fmt.Errorf("marshal shipping address: %w", err)
		}
	}

	orderQuery := `
		INSERT INTO purchase_orders (id, session_id, customer_id, market_id, currency, subtotal, discount, shipping, tax, total, buyer_email, shipping_address, payment_method, payment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.SessionID,
		o.CustomerID,
		o.MarketID,
		o.Currency,
		o.Subtotal,
		o.Discount,
		o.Shipping,
		o.Tax,
		o.Total,
		o.BuyerEmail,
		addressJSON,
		o.PaymentMethod,
		o.PaymentID,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	lineQuery := `
		INSERT INTO purchase_order_lines (order_id, code, display_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	for _, line := range o.Lines {
		_, err = tx.Exec(ctx, lineQuery,
			o.ID,
			line.Code,
			line.DisplayName,
			line.Quantity,
			line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a purchase order by its id, eagerly loading its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	orderQuery := `
		SELECT
			o.id, o.session_id, o.customer_id, o.market_id, o.currency,
			o.subtotal, o.discount, o.shipping, o.tax, o.total,
			o.buyer_email, o.shipping_address, o.payment_method, o.payment_id, o.created_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'code', l.code,
						'display_name', l.display_name,
						'quantity', l.quantity,
						'unit_price', l.unit_price
					) ORDER BY l.id
				) FILTER (WHERE l.id IS NOT NULL),
				'[]'::jsonb
			) AS lines
		FROM purchase_orders o
		LEFT JOIN purchase_order_lines l ON o.id = l.order_id
		WHERE o.id = $1
		GROUP BY o.id, o.session_id, o.customer_id, o.market_id, o.currency,
			o.subtotal, o.discount, o.shipping, o.tax, o.total,
			o.buyer_email, o.shipping_address, o.payment_method, o.payment_id, o.created_at`

	var (
		o           domain.PurchaseOrder
		addressJSON []byte
		linesJSON   []byte
	)

	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&o.ID,
		&o.SessionID,
		&o.CustomerID,
		&o.MarketID,
		&o.Currency,
		&o.Subtotal,
		&o.Discount,
		&o.Shipping,
		&o.Tax,
		&o.Total,
		&o.BuyerEmail,
		&addressJSON,
		&o.PaymentMethod,
		&o.PaymentID,
		&o.CreatedAt,
		&linesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("purchase order", id)
		}
		return nil, fmt.Errorf("scan purchase order: %w", err)
	}

	if len(addressJSON) > 0 && string(addressJSON) != "null" {
		var addr domain.OrderAddress
		if err := json.Unmarshal(addressJSON, &addr); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
		o.ShippingAddress = &addr
	}

	if len(linesJSON) > 0 && string(linesJSON) != "null" && string(linesJSON) != "[]" {
		if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal purchase order lines: %w", err)
		}
	} else {
		o.Lines = []domain.OrderLine{}
	}

	return &o, nil
}
