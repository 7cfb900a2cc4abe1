package handler

import (
	"net/http"

	"doorstep-cart/internal/catalog"
	"doorstep-cart/internal/delivery"

	"github.com/rs/zerolog"
)

// DeliveryHandler quotes delivery fees for a restaurant/address pair.
type DeliveryHandler struct {
	catalog catalog.Catalog
	fees    delivery.FeePolicy
	logger  zerolog.Logger
}

// NewDeliveryHandler creates a new delivery quote handler.
func NewDeliveryHandler(cat catalog.Catalog, fees delivery.FeePolicy, logger zerolog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		catalog: cat,
		fees:    fees,
		logger:  logger.With().Str("handler", "delivery").Logger(),
	}
}

// Quote handles GET /api/delivery/quote?restaurantId=...&addressId=...
// requests.
func (h *DeliveryHandler) Quote(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.URL.Query().Get("restaurantId")
	addressID := r.URL.Query().Get("addressId")
	if restaurantID == "" || addressID == "" {
		writeError(w, http.StatusBadRequest, "restaurantId and addressId are required", h.logger)
		return
	}

	restaurant, err := h.catalog.Restaurant(r.Context(), restaurantID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to look up restaurant", h.logger)
		return
	}
	if restaurant == nil {
		writeError(w, http.StatusNotFound, "restaurant not found", h.logger)
		return
	}

	address, err := h.catalog.Address(r.Context(), addressID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to look up address", h.logger)
		return
	}
	if address == nil {
		writeError(w, http.StatusNotFound, "address not found", h.logger)
		return
	}

	quote := h.fees.QuoteBetween(
		delivery.Point{Latitude: restaurant.Latitude, Longitude: restaurant.Longitude},
		delivery.Point{Latitude: address.Latitude, Longitude: address.Longitude},
	)

	writeJSON(w, http.StatusOK, quote)
}
