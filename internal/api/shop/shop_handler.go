package shop

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api"
	"github.com/gritfit/gritfit-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListItems(w http.ResponseWriter, r *http.Request)
	GetItem(w http.ResponseWriter, r *http.Request)
	CreateItem(w http.ResponseWriter, r *http.Request)
	UpdateItem(w http.ResponseWriter, r *http.Request)
	DeleteItem(w http.ResponseWriter, r *http.Request)
	GetCart(w http.ResponseWriter, r *http.Request)
	AddToCart(w http.ResponseWriter, r *http.Request)
	UpdateCartQuantity(w http.ResponseWriter, r *http.Request)
	RemoveFromCart(w http.ResponseWriter, r *http.Request)
	ClearCart(w http.ResponseWriter, r *http.Request)
	ListMyOrders(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	shopService ShopService
	logger      *slog.Logger
}

func NewHandlerImpl(shopService ShopService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		shopService: shopService,
		logger:      logger,
	}
}

// ListItems godoc
// @Summary      List Marketplace Items
// @Tags         Marketplace
// @Produce      json
// @Param        category query string false "Filter by category"
// @Success      200 {array} types.MarketplaceItem "Items"
// @Router       /marketplace/items [get]
func (h *HandlerImpl) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListItems"))

	items, err := h.shopService.ListItems(ctx, types.ItemCategory(r.URL.Query().Get("category")))
	if err != nil {
		l.ErrorContext(ctx, "Failed to list items", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list items")
		return
	}
	if items == nil {
		items = []types.MarketplaceItem{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, items)
}

// GetItem godoc
// @Summary      Get Marketplace Item
// @Tags         Marketplace
// @Produce      json
// @Param        itemID path string true "Item ID"
// @Success      200 {object} types.MarketplaceItem "Item"
// @Failure      404 {object} types.Response "Not found"
// @Router       /marketplace/items/{itemID} [get]
func (h *HandlerImpl) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetItem"))

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.shopService.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Item not found")
			return
		}
		l.ErrorContext(ctx, "Failed to get item", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve item")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, item)
}

// CreateItem godoc
// @Summary      Create Marketplace Item
// @Tags         Marketplace
// @Accept       json
// @Produce      json
// @Param        body body types.UpsertMarketplaceItemParams true "Item"
// @Success      201 {object} types.MarketplaceItem "Created"
// @Security     BearerAuth
// @Router       /marketplace/items [post]
func (h *HandlerImpl) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateItem"))

	var params types.UpsertMarketplaceItemParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.shopService.CreateItem(ctx, params)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to create item", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create item")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, item)
}

// UpdateItem godoc
// @Summary      Update Marketplace Item
// @Tags         Marketplace
// @Accept       json
// @Produce      json
// @Param        itemID path string true "Item ID"
// @Param        body body types.UpsertMarketplaceItemParams true "Item"
// @Success      200 {object} types.MarketplaceItem "Updated"
// @Security     BearerAuth
// @Router       /marketplace/items/{itemID} [put]
func (h *HandlerImpl) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateItem"))

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var params types.UpsertMarketplaceItemParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.shopService.UpdateItem(ctx, itemID, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Item not found")
		default:
			l.ErrorContext(ctx, "Failed to update item", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update item")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, item)
}

// DeleteItem godoc
// @Summary      Delete Marketplace Item
// @Tags         Marketplace
// @Produce      json
// @Param        itemID path string true "Item ID"
// @Success      200 {object} types.Response "Deleted"
// @Security     BearerAuth
// @Router       /marketplace/items/{itemID} [delete]
func (h *HandlerImpl) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeleteItem"))

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.shopService.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Item not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete item", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Item deleted"})
}

// GetCart godoc
// @Summary      Get My Cart
// @Tags         Cart
// @Produce      json
// @Success      200 {object} types.Cart "Cart"
// @Security     BearerAuth
// @Router       /cart [get]
func (h *HandlerImpl) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetCart"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	cart, err := h.shopService.GetCart(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get cart", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve cart")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, cart)
}

// AddToCart godoc
// @Summary      Add Item to Cart
// @Description  Adds quantity at the item's current price. The price is
// @Description  snapshotted, so later catalog changes do not move the cart.
// @Tags         Cart
// @Accept       json
// @Produce      json
// @Param        body body types.AddToCartParams true "Item and quantity"
// @Success      200 {object} types.Cart "Updated cart"
// @Failure      409 {object} types.Response "Out of stock"
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *HandlerImpl) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "AddToCart"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.AddToCartParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := h.shopService.AddToCart(ctx, userID, params.ItemID, params.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Item not found")
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to add to cart", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to add to cart")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, cart)
}

// UpdateCartQuantity godoc
// @Summary      Update Cart Quantity
// @Description  Sets the quantity for one cart line. Zero removes the line.
// @Tags         Cart
// @Accept       json
// @Produce      json
// @Param        itemID path string true "Item ID"
// @Param        body body types.UpdateCartQuantityParams true "Quantity"
// @Success      200 {object} types.Cart "Updated cart"
// @Security     BearerAuth
// @Router       /cart/items/{itemID} [put]
func (h *HandlerImpl) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateCartQuantity"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var params types.UpdateCartQuantityParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := h.shopService.UpdateCartQuantity(ctx, userID, itemID, params.Quantity)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Cart item not found")
			return
		}
		l.ErrorContext(ctx, "Failed to update cart", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, cart)
}

// RemoveFromCart godoc
// @Summary      Remove Item from Cart
// @Tags         Cart
// @Produce      json
// @Param        itemID path string true "Item ID"
// @Success      200 {object} types.Cart "Updated cart"
// @Security     BearerAuth
// @Router       /cart/items/{itemID} [delete]
func (h *HandlerImpl) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "RemoveFromCart"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	cart, err := h.shopService.RemoveFromCart(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Cart item not found")
			return
		}
		l.ErrorContext(ctx, "Failed to remove from cart", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to remove from cart")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, cart)
}

// ClearCart godoc
// @Summary      Clear My Cart
// @Tags         Cart
// @Produce      json
// @Success      200 {object} types.Response "Cleared"
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *HandlerImpl) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ClearCart"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.shopService.ClearCart(ctx, userID); err != nil {
		l.ErrorContext(ctx, "Failed to clear cart", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to clear cart")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Cart cleared"})
}

// ListMyOrders godoc
// @Summary      List My Orders
// @Tags         Orders
// @Produce      json
// @Success      200 {array} types.Order "Orders"
// @Security     BearerAuth
// @Router       /orders [get]
func (h *HandlerImpl) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListMyOrders"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	orders, err := h.shopService.ListMyOrders(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list orders", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	if orders == nil {
		orders = []types.Order{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, orders)
}

func requesterID(r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
