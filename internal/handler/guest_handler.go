package handler

import (
	"encoding/json"
	"net/http"

	"doorstep-cart/internal/cart"
	"doorstep-cart/internal/catalog"
	"doorstep-cart/internal/model"

	"github.com/rs/zerolog"
)

// GuestHandler exposes the guest cart engine over HTTP.
type GuestHandler struct {
	guest   cart.GuestEngine
	engine  cart.Engine
	catalog catalog.Catalog
	logger  zerolog.Logger
}

// NewGuestHandler creates a new guest cart handler.
func NewGuestHandler(guest cart.GuestEngine, engine cart.Engine, cat catalog.Catalog, logger zerolog.Logger) *GuestHandler {
	return &GuestHandler{
		guest:   guest,
		engine:  engine,
		catalog: cat,
		logger:  logger.With().Str("handler", "guest-cart").Logger(),
	}
}

// Get handles GET /api/guest-cart requests.
func (h *GuestHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.guest.Cart())
}

// AddItem handles POST /api/guest-cart/items requests. A cross-restaurant
// add yields 409 so the UI can ask the guest to clear their cart first.
func (h *GuestHandler) AddItem(w http.ResponseWriter, r *http.Request) {
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

	ok, err := h.guest.AddItem(r.Context(), *item, req.Quantity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if !ok {
		writeDomainError(w, model.ErrRestaurantConflict, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.guest.Cart())
}

// IncreaseItem handles POST /api/guest-cart/items/{itemID}/increase.
func (h *GuestHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	if err := h.guest.IncreaseItemQuantity(r.Context(), r.PathValue("itemID")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DecreaseItem handles POST /api/guest-cart/items/{itemID}/decrease.
func (h *GuestHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	if err := h.guest.DecreaseItemQuantity(r.Context(), r.PathValue("itemID")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem handles DELETE /api/guest-cart/items/{itemID}.
func (h *GuestHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.guest.RemoveItem(r.Context(), r.PathValue("itemID")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/guest-cart requests.
func (h *GuestHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.guest.Clear(r.Context()); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Promote handles POST /api/guest-cart/promote requests: after login the
// guest cart is merged into the authenticated engine and then cleared so
// it is not duplicated.
func (h *GuestHandler) Promote(w http.ResponseWriter, r *http.Request) {
	guestCart := h.guest.Cart()
	if guestCart.IsEmpty() {
		writeError(w, http.StatusBadRequest, "guest cart is empty", h.logger)
		return
	}

	order, err := h.engine.PromoteGuestCart(r.Context(), guestCart)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := h.guest.Clear(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("failed to clear guest cart after promotion")
	}

	writeJSON(w, http.StatusOK, order)
}
