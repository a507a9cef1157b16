package shop

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gritfit/gritfit-api/internal/types"
)

type MockShopRepo struct {
	mock.Mock
}

func (m *MockShopRepo) ListItems(ctx context.Context, category types.ItemCategory) ([]types.MarketplaceItem, error) {
	args := m.Called(ctx, category)
	items, _ := args.Get(0).([]types.MarketplaceItem)
	return items, args.Error(1)
}

func (m *MockShopRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*types.MarketplaceItem, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(*types.MarketplaceItem)
	return item, args.Error(1)
}

func (m *MockShopRepo) CreateItem(ctx context.Context, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error) {
	args := m.Called(ctx, params)
	item, _ := args.Get(0).(*types.MarketplaceItem)
	return item, args.Error(1)
}

func (m *MockShopRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, params types.UpsertMarketplaceItemParams) (*types.MarketplaceItem, error) {
	args := m.Called(ctx, itemID, params)
	item, _ := args.Get(0).(*types.MarketplaceItem)
	return item, args.Error(1)
}

func (m *MockShopRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *MockShopRepo) ListCartItems(ctx context.Context, userID uuid.UUID) ([]types.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]types.CartItem)
	return items, args.Error(1)
}

func (m *MockShopRepo) AddCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int, priceCents int64) (*types.CartItem, error) {
	args := m.Called(ctx, userID, itemID, quantity, priceCents)
	ci, _ := args.Get(0).(*types.CartItem)
	return ci, args.Error(1)
}

func (m *MockShopRepo) SetCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	return m.Called(ctx, userID, itemID, quantity).Error(0)
}

func (m *MockShopRepo) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return m.Called(ctx, userID, itemID).Error(0)
}

func (m *MockShopRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockShopRepo) CreateOrder(ctx context.Context, order types.Order) (*types.Order, error) {
	args := m.Called(ctx, order)
	o, _ := args.Get(0).(*types.Order)
	return o, args.Error(1)
}

func (m *MockShopRepo) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]types.Order, error) {
	args := m.Called(ctx, userID)
	o, _ := args.Get(0).([]types.Order)
	return o, args.Error(1)
}

func (m *MockShopRepo) MarkPaidBySessionID(ctx context.Context, sessionID string) (*types.Order, error) {
	args := m.Called(ctx, sessionID)
	o, _ := args.Get(0).(*types.Order)
	return o, args.Error(1)
}

func newTestService(repo *MockShopRepo) *ShopServiceImpl {
	return NewShopService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetCart_SubtotalSumsSnapshotPrices(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	userID := uuid.New()
	repo.On("ListCartItems", mock.Anything, userID).Return([]types.CartItem{
		{ItemID: uuid.New(), Quantity: 2, PriceCents: 1000},
		{ItemID: uuid.New(), Quantity: 1, PriceCents: 500},
	}, nil)

	cart, err := svc.GetCart(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, int64(2500), cart.SubtotalCents)
}

func TestGetCart_EmptyCartIsZero(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	userID := uuid.New()
	repo.On("ListCartItems", mock.Anything, userID).Return(nil, nil)

	cart, err := svc.GetCart(context.Background(), userID)

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.SubtotalCents)
}

func TestAddToCart_SnapshotsCurrentPrice(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	userID := uuid.New()
	itemID := uuid.New()
	repo.On("GetItem", mock.Anything, itemID).Return(&types.MarketplaceItem{
		ID:         itemID,
		PriceCents: 1999,
		Stock:      5,
	}, nil)
	repo.On("AddCartItem", mock.Anything, userID, itemID, 2, int64(1999)).
		Return(&types.CartItem{ItemID: itemID, Quantity: 2, PriceCents: 1999}, nil)
	repo.On("ListCartItems", mock.Anything, userID).Return([]types.CartItem{
		{ItemID: itemID, Quantity: 2, PriceCents: 1999},
	}, nil)

	cart, err := svc.AddToCart(context.Background(), userID, itemID, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(3998), cart.SubtotalCents)
	repo.AssertExpectations(t)
}

func TestAddToCart_RejectsOutOfStock(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	itemID := uuid.New()
	repo.On("GetItem", mock.Anything, itemID).Return(&types.MarketplaceItem{ID: itemID, Stock: 0}, nil)

	_, err := svc.AddToCart(context.Background(), uuid.New(), itemID, 1)

	assert.ErrorIs(t, err, types.ErrConflict)
	repo.AssertNotCalled(t, "AddCartItem")
}

func TestAddToCart_RejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestService(new(MockShopRepo))

	_, err := svc.AddToCart(context.Background(), uuid.New(), uuid.New(), 0)

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestUpdateCartQuantity_ZeroRemovesLine(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	userID := uuid.New()
	itemID := uuid.New()
	repo.On("RemoveCartItem", mock.Anything, userID, itemID).Return(nil)
	repo.On("ListCartItems", mock.Anything, userID).Return(nil, nil)

	cart, err := svc.UpdateCartQuantity(context.Background(), userID, itemID, 0)

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	repo.AssertNotCalled(t, "SetCartItemQuantity")
}

func TestBuildOrder_ConvertsCartWithSnapshotPrices(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	userID := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	shipping := types.ShippingAddress{Line1: "1 High St", City: "Leeds", PostalCode: "LS1", Country: "GB"}

	repo.On("ListCartItems", mock.Anything, userID).Return([]types.CartItem{
		{ItemID: itemA, Quantity: 2, PriceCents: 1000},
		{ItemID: itemB, Quantity: 1, PriceCents: 500},
	}, nil)
	// Catalog price moved after the snapshot; the order keeps the old price.
	repo.On("GetItem", mock.Anything, itemA).Return(&types.MarketplaceItem{ID: itemA, Name: "Whey Protein", PriceCents: 1500}, nil)
	repo.On("GetItem", mock.Anything, itemB).Return(&types.MarketplaceItem{ID: itemB, Name: "Shaker", PriceCents: 500}, nil)
	repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o types.Order) bool {
		return o.SubtotalCents == 2500 && len(o.Items) == 2 && o.StripeSessionID == "cs_test_abc"
	})).Return(&types.Order{ID: uuid.New(), SubtotalCents: 2500, PaymentStatus: types.PaymentPending}, nil)

	order, err := svc.BuildOrder(context.Background(), userID, shipping, "cs_test_abc")

	require.NoError(t, err)
	assert.Equal(t, int64(2500), order.SubtotalCents)
	repo.AssertExpectations(t)
}

func TestBuildOrder_RejectsEmptyCart(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	userID := uuid.New()
	repo.On("ListCartItems", mock.Anything, userID).Return(nil, nil)

	_, err := svc.BuildOrder(context.Background(), userID,
		types.ShippingAddress{Line1: "1 High St", City: "Leeds", PostalCode: "LS1", Country: "GB"}, "cs_x")

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestBuildOrder_RejectsIncompleteShipping(t *testing.T) {
	svc := newTestService(new(MockShopRepo))

	_, err := svc.BuildOrder(context.Background(), uuid.New(), types.ShippingAddress{Line1: "1 High St"}, "cs_x")

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSettleOrder_MarksPaidAndClearsCart(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	userID := uuid.New()
	repo.On("MarkPaidBySessionID", mock.Anything, "cs_test_abc").Return(&types.Order{
		ID:            uuid.New(),
		UserID:        userID,
		PaymentStatus: types.PaymentPaid,
	}, nil)
	repo.On("ClearCart", mock.Anything, userID).Return(nil)

	order, err := svc.SettleOrderBySessionID(context.Background(), "cs_test_abc")

	require.NoError(t, err)
	assert.Equal(t, types.PaymentPaid, order.PaymentStatus)
	repo.AssertExpectations(t)
}

func TestSettleOrder_UnknownSession(t *testing.T) {
	repo := new(MockShopRepo)
	svc := newTestService(repo)

	repo.On("MarkPaidBySessionID", mock.Anything, "cs_unknown").Return(nil, types.ErrNotFound)

	_, err := svc.SettleOrderBySessionID(context.Background(), "cs_unknown")

	assert.ErrorIs(t, err, types.ErrNotFound)
	repo.AssertNotCalled(t, "ClearCart")
}
