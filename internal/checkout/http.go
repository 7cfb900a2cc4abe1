package checkout

import (
	"context"
	"fmt"

	"doorstep-cart/internal/httpclient"
	"doorstep-cart/internal/model"

	"github.com/rs/zerolog"
)

// httpOrderAPI implements OrderAPI against the backend's REST order
// endpoint.
type httpOrderAPI struct {
	client  *httpclient.Client
	baseURL string
	logger  zerolog.Logger
}

// NewHTTPOrderAPI creates a REST-backed order API client.
func NewHTTPOrderAPI(client *httpclient.Client, baseURL string, logger zerolog.Logger) OrderAPI {
	return &httpOrderAPI{
		client:  client,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "order-api").Logger(),
	}
}

// Create submits the order and returns the server's order id.
func (a *httpOrderAPI) Create(ctx context.Context, req CreateOrderRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}

	if err := a.client.PostJSON(ctx, a.baseURL+"/api/orders", req, &resp); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("order API returned no order id")
	}
	return resp.ID, nil
}

// httpGateway implements PaymentGateway against the backend's payment
// charge endpoint, which fronts the actual provider.
type httpGateway struct {
	client  *httpclient.Client
	baseURL string
	logger  zerolog.Logger
}

// NewHTTPGateway creates a REST-backed payment gateway client.
func NewHTTPGateway(client *httpclient.Client, baseURL string, logger zerolog.Logger) PaymentGateway {
	return &httpGateway{
		client:  client,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "payment-gateway").Logger(),
	}
}

// Charge collects the amount and returns the payment reference.
func (g *httpGateway) Charge(ctx context.Context, orderID model.DraftID, amountMinor int64) (string, error) {
	payload := struct {
		OrderID string `json:"order_id"`
		Amount  string `json:"amount"`
	}{
		OrderID: string(orderID),
		Amount:  model.FormatPrice(amountMinor),
	}

	var resp struct {
		Reference string `json:"reference"`
	}

	if err := g.client.PostJSON(ctx, g.baseURL+"/api/payments/charge", payload, &resp); err != nil {
		return "", fmt.Errorf("charge failed: %w", err)
	}
	if resp.Reference == "" {
		return "", fmt.Errorf("payment gateway returned no reference")
	}
	return resp.Reference, nil
}
