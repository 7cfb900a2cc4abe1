package checkout

import (
	"context"

	"doorstep-cart/internal/model"
)

// PaymentGateway charges the customer for an order. Implementations talk
// to the payment provider; the orchestrator only consumes the resulting
// payment reference.
type PaymentGateway interface {
	// Charge collects amountMinor (in kobo) and returns the provider's
	// payment reference.
	Charge(ctx context.Context, orderID model.DraftID, amountMinor int64) (string, error)
}

// OrderItemPayload is a line item in the server-side order creation call.
type OrderItemPayload struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// CreateOrderRequest is the payload the backend expects when a paid order
// is submitted.
type CreateOrderRequest struct {
	RestaurantID      string             `json:"restaurant_id"`
	DeliveryAddressID *string            `json:"delivery_address_id,omitempty"`
	Items             []OrderItemPayload `json:"items"`
	PaymentReference  string             `json:"payment_reference"`
	DeliveryFee       string             `json:"delivery_fee"`
	OrderType         model.OrderType    `json:"order_type"`
}

// OrderAPI creates the server-side order record after payment succeeds.
type OrderAPI interface {
	// Create persists the order server-side and returns the server's order
	// id (distinct from the local draft id).
	Create(ctx context.Context, req CreateOrderRequest) (string, error)
}

// Placement reports a successfully placed order.
type Placement struct {
	LocalID          model.DraftID `json:"localId"`
	ServerOrderID    string        `json:"orderId"`
	PaymentReference string        `json:"paymentReference"`
	Subtotal         string        `json:"subtotal"`
	DeliveryFee      string        `json:"deliveryFee"`
	AmountCharged    string        `json:"amountCharged"`
}

// PlaceRequest is the input to Orchestrator.PlaceOrder.
type PlaceRequest struct {
	OrderID           model.DraftID   `json:"orderId"`
	DeliveryAddressID string          `json:"deliveryAddressId,omitempty"`
	OrderType         model.OrderType `json:"orderType"`

	// AcceptTooFar confirms the customer chose to proceed despite the fee
	// ceiling being exceeded.
	AcceptTooFar bool `json:"acceptTooFar,omitempty"`
}
