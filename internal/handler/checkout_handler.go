package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"doorstep-cart/internal/checkout"
	"doorstep-cart/internal/store"

	"github.com/rs/zerolog"
)

// Placer is the slice of the checkout orchestrator the handler consumes.
type Placer interface {
	PlaceOrder(ctx context.Context, req checkout.PlaceRequest) (*checkout.Placement, error)
}

// CheckoutHandler exposes order placement and delivery-address selection.
type CheckoutHandler struct {
	placer    Placer
	snapshots *store.SnapshotStore
	logger    zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(placer Placer, snapshots *store.SnapshotStore, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		placer:    placer,
		snapshots: snapshots,
		logger:    logger.With().Str("handler", "checkout").Logger(),
	}
}

// Place handles POST /api/checkout requests. When the request carries no
// address, the previously selected address is used.
func (h *CheckoutHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req checkout.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required", h.logger)
		return
	}

	if req.DeliveryAddressID == "" {
		selected, err := h.snapshots.LoadSelectedAddress(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("failed to load selected address")
		}
		req.DeliveryAddressID = selected
	}

	placement, err := h.placer.PlaceOrder(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, placement)
}

// selectAddressRequest is the payload for choosing a delivery address.
type selectAddressRequest struct {
	AddressID string `json:"addressId"`
}

// SelectAddress handles PUT /api/checkout/address requests.
func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	var req selectAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.AddressID == "" {
		writeError(w, http.StatusBadRequest, "addressId is required", h.logger)
		return
	}

	if err := h.snapshots.SaveSelectedAddress(r.Context(), req.AddressID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save selected address", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectedAddress handles GET /api/checkout/address requests.
func (h *CheckoutHandler) SelectedAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := h.snapshots.LoadSelectedAddress(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load selected address", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, selectAddressRequest{AddressID: addressID})
}
