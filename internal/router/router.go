package router

import (
	"net/http"

	"doorstep-cart/internal/handler"
	"doorstep-cart/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	cartHandler *handler.CartHandler,
	guestHandler *handler.GuestHandler,
	checkoutHandler *handler.CheckoutHandler,
	deliveryHandler *handler.DeliveryHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Authenticated cart
	mux.HandleFunc("GET /api/cart", cartHandler.List)
	mux.HandleFunc("DELETE /api/cart", cartHandler.Clear)
	mux.HandleFunc("POST /api/cart/items", cartHandler.AddItem)
	mux.HandleFunc("POST /api/cart/orders/{orderID}/items/{itemID}/increase", cartHandler.IncreaseItem)
	mux.HandleFunc("POST /api/cart/orders/{orderID}/items/{itemID}/decrease", cartHandler.DecreaseItem)
	mux.HandleFunc("DELETE /api/cart/orders/{orderID}/items/{itemID}", cartHandler.RemoveItem)
	mux.HandleFunc("PATCH /api/cart/orders/{orderID}/status", cartHandler.UpdateStatus)
	mux.HandleFunc("DELETE /api/cart/orders/{orderID}", cartHandler.RemoveOrder)

	// Guest cart
	mux.HandleFunc("GET /api/guest-cart", guestHandler.Get)
	mux.HandleFunc("DELETE /api/guest-cart", guestHandler.Clear)
	mux.HandleFunc("POST /api/guest-cart/items", guestHandler.AddItem)
	mux.HandleFunc("POST /api/guest-cart/items/{itemID}/increase", guestHandler.IncreaseItem)
	mux.HandleFunc("POST /api/guest-cart/items/{itemID}/decrease", guestHandler.DecreaseItem)
	mux.HandleFunc("DELETE /api/guest-cart/items/{itemID}", guestHandler.RemoveItem)
	mux.HandleFunc("POST /api/guest-cart/promote", guestHandler.Promote)

	// Checkout
	mux.HandleFunc("POST /api/checkout", checkoutHandler.Place)
	mux.HandleFunc("PUT /api/checkout/address", checkoutHandler.SelectAddress)
	mux.HandleFunc("GET /api/checkout/address", checkoutHandler.SelectedAddress)

	// Delivery quotes
	mux.HandleFunc("GET /api/delivery/quote", deliveryHandler.Quote)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
