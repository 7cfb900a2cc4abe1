package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"doorstep-cart/internal/cart"
	"doorstep-cart/internal/catalog"
	"doorstep-cart/internal/model"

	"github.com/rs/zerolog"
)

// CartHandler exposes the authenticated cart engine over HTTP. It is a
// thin adapter: item lookups go to the catalogue, every mutation goes
// straight to the engine.
type CartHandler struct {
	engine  cart.Engine
	catalog catalog.Catalog
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(engine cart.Engine, cat catalog.Catalog, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		engine:  engine,
		catalog: cat,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// addItemRequest is the payload for adding an item to the cart.
type addItemRequest struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

// List handles GET /api/cart requests.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": h.engine.Orders(),
	})
}

// AddItem handles POST /api/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.MenuItemID == "" {
		writeError(w, http.StatusBadRequest, "menuItemId is required", h.logger)
		return
	}

	item, err := h.catalog.MenuItem(r.Context(), req.MenuItemID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to look up menu item", h.logger)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "menu item not found", h.logger)
		return
	}

	order, err := h.engine.AddOrUpdateItem(r.Context(), *item, req.Quantity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// IncreaseItem handles POST /api/cart/orders/{orderID}/items/{itemID}/increase.
func (h *CartHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	orderID := model.DraftID(r.PathValue("orderID"))
	itemID := r.PathValue("itemID")

	if err := h.engine.IncreaseOrderItemQuantity(r.Context(), orderID, itemID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DecreaseItem handles POST /api/cart/orders/{orderID}/items/{itemID}/decrease.
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	orderID := model.DraftID(r.PathValue("orderID"))
	itemID := r.PathValue("itemID")

	if err := h.engine.DecreaseOrderItemQuantity(r.Context(), orderID, itemID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem handles DELETE /api/cart/orders/{orderID}/items/{itemID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	orderID := model.DraftID(r.PathValue("orderID"))
	itemID := r.PathValue("itemID")

	if err := h.engine.RemoveOrderItem(r.Context(), orderID, itemID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateStatusRequest is the payload for a status transition.
type updateStatusRequest struct {
	Status model.Status `json:"status"`
}

// UpdateStatus handles PATCH /api/cart/orders/{orderID}/status. It relays
// server-pushed lifecycle updates into the local collection.
func (h *CartHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := model.DraftID(r.PathValue("orderID"))

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if err := h.engine.UpdateOrderStatus(r.Context(), orderID, req.Status); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			writeDomainError(w, err, h.logger)
			return
		}
		writeError(w, http.StatusConflict, err.Error(), h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveOrder handles DELETE /api/cart/orders/{orderID} requests.
func (h *CartHandler) RemoveOrder(w http.ResponseWriter, r *http.Request) {
	orderID := model.DraftID(r.PathValue("orderID"))

	if err := h.engine.RemoveUnsubmittedOrder(r.Context(), orderID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/cart requests, used on logout.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearUserOrders(r.Context()); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
