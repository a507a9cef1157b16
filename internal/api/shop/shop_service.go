package shop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ ShopService = (*ShopServiceImpl)(nil)

// ShopService defines the business logic contract for the marketplace, carts
// and orders.
type ShopService interface {
	ListItems(ctx context.Context, category types.ItemCategory) ([]types.MarketplaceItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*types.MarketplaceItem, error)
	CreateItem(ctx context.Context, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	GetCart(ctx context.Context, userID uuid.UUID) (*types.Cart, error)
	// AddToCart snapshots the current item price into the cart line.
	AddToCart(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*types.Cart, error)
	UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*types.Cart, error)
	RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) (*types.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// BuildOrder converts the cart into a pending order bound to a checkout
	// session. The cart is kept until payment confirms.
	BuildOrder(ctx context.Context, userID uuid.UUID, shipping types.ShippingAddress, stripeSessionID string) (*types.Order, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID) ([]types.Order, error)
	// SettleOrderBySessionID marks the order paid and clears the owning
	// user's cart. Idempotent on redelivery.
	SettleOrderBySessionID(ctx context.Context, sessionID string) (*types.Order, error)
}

type ShopServiceImpl struct {
	logger *slog.Logger
	repo   ShopRepo
}

func NewShopService(repo ShopRepo, logger *slog.Logger) *ShopServiceImpl {
	return &ShopServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ShopServiceImpl) ListItems(ctx context.Context, category types.ItemCategory) ([]types.MarketplaceItem, error) {
	return s.repo.ListItems(ctx, category)
}

func (s *ShopServiceImpl) GetItem(ctx context.Context, itemID uuid.UUID) (*types.MarketplaceItem, error) {
	return s.repo.GetItem(ctx, itemID)
}

func (s *ShopServiceImpl) CreateItem(ctx context.Context, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error) {
	if err := validateItemParams(params); err != nil {
		return nil, err
	}
	return s.repo.CreateItem(ctx, params)
}

func (s *ShopServiceImpl) UpdateItem(ctx context.Context, itemID uuid.UUID, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error) {
	if err := validateItemParams(params); err != nil {
		return nil, err
	}
	return s.repo.UpdateItem(ctx, itemID, params)
}

func (s *ShopServiceImpl) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return s.repo.DeleteItem(ctx, itemID)
}

func (s *ShopServiceImpl) GetCart(ctx context.Context, userID uuid.UUID) (*types.Cart, error) {
	items, err := s.repo.ListCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildCart(items), nil
}

func (s *ShopServiceImpl) AddToCart(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*types.Cart, error) {
	l := s.logger.With(slog.String("method", "AddToCart"), slog.String("userID", userID.String()))

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", types.ErrValidation)
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Stock <= 0 {
		return nil, fmt.Errorf("%w: item is out of stock", types.ErrConflict)
	}

	if _, err := s.repo.AddCartItem(ctx, userID, itemID, quantity, item.PriceCents); err != nil {
		return nil, err
	}
	l.InfoContext(ctx, "Item added to cart", slog.String("itemID", itemID.String()), slog.Int("quantity", quantity))
	return s.GetCart(ctx, userID)
}

func (s *ShopServiceImpl) UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*types.Cart, error) {
	if quantity <= 0 {
		// Setting to zero removes the line.
		return s.RemoveFromCart(ctx, userID, itemID)
	}
	if err := s.repo.SetCartItemQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *ShopServiceImpl) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) (*types.Cart, error) {
	if err := s.repo.RemoveCartItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *ShopServiceImpl) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.repo.ClearCart(ctx, userID)
}

func (s *ShopServiceImpl) BuildOrder(ctx context.Context, userID uuid.UUID, shipping types.ShippingAddress, stripeSessionID string) (*types.Order, error) {
	l := s.logger.With(slog.String("method", "BuildOrder"), slog.String("userID", userID.String()))

	if err := validateShipping(shipping); err != nil {
		return nil, err
	}

	cartItems, err := s.repo.ListCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", types.ErrValidation)
	}

	var orderItems []types.OrderItem
	var subtotal int64
	for _, ci := range cartItems {
		item, err := s.repo.GetItem(ctx, ci.ItemID)
		if err != nil {
			return nil, err
		}
		orderItems = append(orderItems, types.OrderItem{
			ItemID:     ci.ItemID,
			Name:       item.Name,
			Quantity:   ci.Quantity,
			PriceCents: ci.PriceCents,
		})
		subtotal += ci.PriceCents * int64(ci.Quantity)
	}

	order, err := s.repo.CreateOrder(ctx, types.Order{
		UserID:          userID,
		Items:           orderItems,
		SubtotalCents:   subtotal,
		ShippingAddress: shipping,
		StripeSessionID: stripeSessionID,
	})
	if err != nil {
		return nil, err
	}
	l.InfoContext(ctx, "Order created", slog.String("orderID", order.ID.String()),
		slog.Int64("subtotal_cents", subtotal))
	return order, nil
}

func (s *ShopServiceImpl) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]types.Order, error) {
	return s.repo.ListOrdersForUser(ctx, userID)
}

func (s *ShopServiceImpl) SettleOrderBySessionID(ctx context.Context, sessionID string) (*types.Order, error) {
	l := s.logger.With(slog.String("method", "SettleOrderBySessionID"), slog.String("session_id", sessionID))

	order, err := s.repo.MarkPaidBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearCart(ctx, order.UserID); err != nil {
		l.WarnContext(ctx, "Order settled but cart not cleared", slog.Any("error", err))
	}
	l.InfoContext(ctx, "Order settled", slog.String("orderID", order.ID.String()))
	return order, nil
}

func buildCart(items []types.CartItem) *types.Cart {
	cart := &types.Cart{Items: items}
	if cart.Items == nil {
		cart.Items = []types.CartItem{}
	}
	for _, ci := range items {
		cart.SubtotalCents += ci.PriceCents * int64(ci.Quantity)
	}
	return cart
}

func validateItemParams(params types.UpsertMarketplaceItemParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return fmt.Errorf("%w: name is required", types.ErrValidation)
	}
	switch params.Category {
	case types.CategorySupplements, types.CategoryEquipment, types.CategoryApparel, types.CategoryAccessories:
	default:
		return fmt.Errorf("%w: invalid category", types.ErrValidation)
	}
	if params.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", types.ErrValidation)
	}
	if params.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", types.ErrValidation)
	}
	return nil
}

func validateShipping(addr types.ShippingAddress) error {
	if strings.TrimSpace(addr.Line1) == "" || strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.PostalCode) == "" || strings.TrimSpace(addr.Country) == "" {
		return fmt.Errorf("%w: shipping address is incomplete", types.ErrValidation)
	}
	return nil
}
