package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ ShopRepo = (*PostgresShopRepo)(nil)

// ShopRepo defines the contract for marketplace, cart and order persistence.
type ShopRepo interface {
	ListItems(ctx context.Context, category types.ItemCategory) ([]types.MarketplaceItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*types.MarketplaceItem, error)
	CreateItem(ctx context.Context, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	ListCartItems(ctx context.Context, userID uuid.UUID) ([]types.CartItem, error)
	// AddCartItem upserts the line for (user, item), bumping quantity and
	// keeping the earlier price snapshot.
	AddCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int, priceCents int64) (*types.CartItem, error)
	SetCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error

	CreateOrder(ctx context.Context, order types.Order) (*types.Order, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]types.Order, error)
	// MarkPaidBySessionID flips the order matching the checkout session to
	// paid; already-paid orders are left alone so redelivery is harmless.
	MarkPaidBySessionID(ctx context.Context, sessionID string) (*types.Order, error)
}

type PostgresShopRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresShopRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresShopRepo {
	return &PostgresShopRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const itemColumns = `id, name, description, category, price_cents, image_url, stock, created_at, updated_at`

func scanItem(row pgx.Row) (*types.MarketplaceItem, error) {
	var item types.MarketplaceItem
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.PriceCents,
		&item.ImageURL, &item.Stock, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning marketplace item: %w", err)
	}
	return &item, nil
}

func (r *PostgresShopRepo) ListItems(ctx context.Context, category types.ItemCategory) ([]types.MarketplaceItem, error) {
	query := `SELECT ` + itemColumns + ` FROM marketplace_items`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing marketplace items: %w", err)
	}
	defer rows.Close()

	var items []types.MarketplaceItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *PostgresShopRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*types.MarketplaceItem, error) {
	row := r.pgpool.QueryRow(ctx, `SELECT `+itemColumns+` FROM marketplace_items WHERE id = $1`, itemID)
	return scanItem(row)
}

func (r *PostgresShopRepo) CreateItem(ctx context.Context, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error) {
	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO marketplace_items (name, description, category, price_cents, image_url, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+itemColumns,
		params.Name, params.Description, params.Category, params.PriceCents, params.ImageURL, params.Stock)
	return scanItem(row)
}

func (r *PostgresShopRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error) {
	row := r.pgpool.QueryRow(ctx, `
		UPDATE marketplace_items
		SET name = $2, description = $3, category = $4, price_cents = $5, image_url = $6, stock = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns,
		itemID, params.Name, params.Description, params.Category, params.PriceCents, params.ImageURL, params.Stock)
	return scanItem(row)
}

func (r *PostgresShopRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM marketplace_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("deleting marketplace item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresShopRepo) ListCartItems(ctx context.Context, userID uuid.UUID) ([]types.CartItem, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, user_id, item_id, quantity, price_cents, created_at
		FROM cart_items WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	defer rows.Close()

	var items []types.CartItem
	for rows.Next() {
		var ci types.CartItem
		if err := rows.Scan(&ci.ID, &ci.UserID, &ci.ItemID, &ci.Quantity, &ci.PriceCents, &ci.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}

func (r *PostgresShopRepo) AddCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int, priceCents int64) (*types.CartItem, error) {
	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, item_id, quantity, price_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, item_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, user_id, item_id, quantity, price_cents, created_at`,
		userID, itemID, quantity, priceCents)

	var ci types.CartItem
	if err := row.Scan(&ci.ID, &ci.UserID, &ci.ItemID, &ci.Quantity, &ci.PriceCents, &ci.CreatedAt); err != nil {
		return nil, fmt.Errorf("adding cart item: %w", err)
	}
	return &ci, nil
}

func (r *PostgresShopRepo) SetCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND item_id = $2`,
		userID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresShopRepo) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresShopRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, items, subtotal_cents, shipping_address, payment_status, stripe_session_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*types.Order, error) {
	var o types.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Items, &o.SubtotalCents, &o.ShippingAddress,
		&o.PaymentStatus, &o.StripeSessionID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}
	return &o, nil
}

func (r *PostgresShopRepo) CreateOrder(ctx context.Context, order types.Order) (*types.Order, error) {
	ctx, span := otel.Tracer("ShopRepo").Start(ctx, "CreateOrder", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "orders"),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO orders (user_id, items, subtotal_cents, shipping_address, stripe_session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		order.UserID, order.Items, order.SubtotalCents, order.ShippingAddress, order.StripeSessionID)
	o, err := scanOrder(row)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return o, nil
}

func (r *PostgresShopRepo) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]types.Order, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []types.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *PostgresShopRepo) MarkPaidBySessionID(ctx context.Context, sessionID string) (*types.Order, error) {
	ctx, span := otel.Tracer("ShopRepo").Start(ctx, "MarkPaidBySessionID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "orders"),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx, `
		UPDATE orders SET payment_status = 'paid', updated_at = now()
		WHERE stripe_session_id = $1
		RETURNING `+orderColumns, sessionID)
	o, err := scanOrder(row)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return o, nil
}
