package checkout

import (
	"context"
	"fmt"

	"doorstep-cart/internal/cart"
	"doorstep-cart/internal/catalog"
	"doorstep-cart/internal/delivery"
	"doorstep-cart/internal/model"

	"github.com/rs/zerolog"
)

// Orchestrator drives a draft order through payment and submission: quote
// the delivery fee, charge the gateway, create the order server-side, then
// move the local draft to Order Placed so the engine stops mutating it and
// drops it from persistence.
type Orchestrator struct {
	engine  cart.Engine
	gateway PaymentGateway
	orders  OrderAPI
	catalog catalog.Catalog
	fees    delivery.FeePolicy
	logger  zerolog.Logger
}

// NewOrchestrator creates a checkout orchestrator.
func NewOrchestrator(
	engine cart.Engine,
	gateway PaymentGateway,
	orders OrderAPI,
	cat catalog.Catalog,
	fees delivery.FeePolicy,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		engine:  engine,
		gateway: gateway,
		orders:  orders,
		catalog: cat,
		fees:    fees,
		logger:  logger.With().Str("component", "checkout").Logger(),
	}
}

// PlaceOrder finalises an unsubmitted draft.
func (o *Orchestrator) PlaceOrder(ctx context.Context, req PlaceRequest) (*Placement, error) {
	order, ok := o.engine.Order(req.OrderID)
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	if order.Status != model.StatusUnsubmitted {
		return nil, model.ErrOrderNotMutable
	}

	subtotal, err := model.ParsePrice(order.Total)
	if err != nil {
		return nil, fmt.Errorf("order %s has invalid total: %w", order.ID, err)
	}

	fee, addressID, err := o.deliveryFee(ctx, &order, req)
	if err != nil {
		return nil, err
	}

	amount := subtotal + fee
	reference, err := o.gateway.Charge(ctx, order.ID, amount)
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("order_id", string(order.ID)).
			Int64("amount_minor", amount).
			Msg("payment failed")
		return nil, model.ErrPaymentFailed
	}

	items := make([]OrderItemPayload, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemPayload{MenuItemID: item.ID, Quantity: item.Quantity}
	}

	createReq := CreateOrderRequest{
		RestaurantID:     order.RestaurantID,
		Items:            items,
		PaymentReference: reference,
		DeliveryFee:      model.FormatPrice(fee),
		OrderType:        req.OrderType,
	}
	if addressID != "" {
		createReq.DeliveryAddressID = &addressID
	}

	serverID, err := o.orders.Create(ctx, createReq)
	if err != nil {
		// Payment has been taken but the order record failed; surface the
		// reference so support can reconcile.
		o.logger.Error().
			Err(err).
			Str("order_id", string(order.ID)).
			Str("payment_reference", reference).
			Msg("order creation failed after successful charge")
		return nil, fmt.Errorf("failed to create order after payment %s: %w", reference, err)
	}

	if err := o.engine.UpdateOrderStatus(ctx, order.ID, model.StatusPlaced); err != nil {
		// The server owns the order now regardless; log and carry on.
		o.logger.Error().
			Err(err).
			Str("order_id", string(order.ID)).
			Msg("failed to mark local draft as placed")
	}

	o.logger.Info().
		Str("order_id", string(order.ID)).
		Str("server_order_id", serverID).
		Str("payment_reference", reference).
		Msg("order placed")

	return &Placement{
		LocalID:          order.ID,
		ServerOrderID:    serverID,
		PaymentReference: reference,
		Subtotal:         model.FormatPrice(subtotal),
		DeliveryFee:      model.FormatPrice(fee),
		AmountCharged:    model.FormatPrice(amount),
	}, nil
}

// deliveryFee quotes the fee for delivery orders; pickup orders carry none.
func (o *Orchestrator) deliveryFee(ctx context.Context, order *model.Order, req PlaceRequest) (int64, string, error) {
	if req.OrderType == model.OrderTypePickup {
		return 0, "", nil
	}

	if req.DeliveryAddressID == "" {
		return 0, "", fmt.Errorf("delivery address is required for delivery orders")
	}

	address, err := o.catalog.Address(ctx, req.DeliveryAddressID)
	if err != nil {
		return 0, "", err
	}
	if address == nil {
		return 0, "", fmt.Errorf("delivery address %s not found", req.DeliveryAddressID)
	}

	restaurant, err := o.catalog.Restaurant(ctx, order.RestaurantID)
	if err != nil {
		return 0, "", err
	}
	if restaurant == nil {
		return 0, "", fmt.Errorf("restaurant %s not found", order.RestaurantID)
	}

	quote := o.fees.QuoteBetween(
		delivery.Point{Latitude: restaurant.Latitude, Longitude: restaurant.Longitude},
		delivery.Point{Latitude: address.Latitude, Longitude: address.Longitude},
	)

	if quote.TooFar && !req.AcceptTooFar {
		o.logger.Info().
			Str("order_id", string(order.ID)).
			Float64("distance_km", quote.DistanceKm).
			Str("fee", quote.Fee).
			Msg("delivery fee exceeds ceiling, confirmation required")
		return 0, "", model.ErrDeliveryTooFar
	}

	return quote.FeeMinor, address.ID, nil
}
