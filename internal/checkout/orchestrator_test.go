package checkout

import (
	"context"
	"errors"
	"testing"

	"doorstep-cart/internal/cart"
	"doorstep-cart/internal/delivery"
	"doorstep-cart/internal/model"
	"doorstep-cart/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, orderID model.DraftID, amountMinor int64) (string, error) {
	args := m.Called(ctx, orderID, amountMinor)
	return args.String(0), args.Error(1)
}

type MockOrderAPI struct {
	mock.Mock
}

func (m *MockOrderAPI) Create(ctx context.Context, req CreateOrderRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) MenuItem(ctx context.Context, id string) (*model.MenuItem, error) {
	args := m.Called(ctx, id)
	if item := args.Get(0); item != nil {
		return item.(*model.MenuItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) Restaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	args := m.Called(ctx, id)
	if restaurant := args.Get(0); restaurant != nil {
		return restaurant.(*model.Restaurant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) Address(ctx context.Context, id string) (*model.Address, error) {
	args := m.Called(ctx, id)
	if address := args.Get(0); address != nil {
		return address.(*model.Address), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixture struct {
	engine    cart.Engine
	snapshots *store.SnapshotStore
	gateway   *MockGateway
	orders    *MockOrderAPI
	catalog   *MockCatalog
	orch      *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	kv := store.NewMemory()
	snapshots := store.NewSnapshotStore(kv, zerolog.Nop())
	engine := cart.New(context.Background(), snapshots, cart.Config{}, zerolog.Nop())

	gateway := &MockGateway{}
	orders := &MockOrderAPI{}
	cat := &MockCatalog{}

	return &fixture{
		engine:    engine,
		snapshots: snapshots,
		gateway:   gateway,
		orders:    orders,
		catalog:   cat,
		orch:      NewOrchestrator(engine, gateway, orders, cat, delivery.DefaultFeePolicy(), zerolog.Nop()),
	}
}

// addDraft seeds the engine with an unsubmitted 2x ₦10.00 draft.
func (f *fixture) addDraft(t *testing.T) model.Order {
	t.Helper()
	order, err := f.engine.AddOrUpdateItem(context.Background(), model.MenuItem{
		ID:           "m1",
		RestaurantID: "r1",
		Name:         "Jollof Rice",
		Price:        "10.00",
		IsAvailable:  true,
	}, 2)
	require.NoError(t, err)
	return order
}

// nearbyGeo stubs a restaurant/address pair about a kilometre apart, inside
// the base fee tier.
func (f *fixture) nearbyGeo() {
	f.catalog.On("Address", mock.Anything, "addr-1").Return(&model.Address{
		ID:        "addr-1",
		Label:     "Home",
		Latitude:  6.5334,
		Longitude: 3.3792,
	}, nil)
	f.catalog.On("Restaurant", mock.Anything, "r1").Return(&model.Restaurant{
		ID:        "r1",
		Name:      "Mama Put",
		Latitude:  6.5244,
		Longitude: 3.3792,
	}, nil)
}

func TestOrchestrator_PlaceOrder_Delivery(t *testing.T) {
	f := newFixture(t)
	order := f.addDraft(t)
	f.nearbyGeo()

	// Subtotal 20.00 plus the 500.00 base delivery fee.
	f.gateway.On("Charge", mock.Anything, order.ID, int64(52000)).Return("pay-ref-1", nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(req CreateOrderRequest) bool {
		return req.RestaurantID == "r1" &&
			req.PaymentReference == "pay-ref-1" &&
			req.DeliveryFee == "500.00" &&
			req.OrderType == model.OrderTypeDelivery &&
			req.DeliveryAddressID != nil && *req.DeliveryAddressID == "addr-1" &&
			len(req.Items) == 1 && req.Items[0].MenuItemID == "m1" && req.Items[0].Quantity == 2
	})).Return("srv-42", nil)

	placement, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:           order.ID,
		DeliveryAddressID: "addr-1",
		OrderType:         model.OrderTypeDelivery,
	})
	require.NoError(t, err)

	assert.Equal(t, order.ID, placement.LocalID)
	assert.Equal(t, "srv-42", placement.ServerOrderID)
	assert.Equal(t, "pay-ref-1", placement.PaymentReference)
	assert.Equal(t, "20.00", placement.Subtotal)
	assert.Equal(t, "500.00", placement.DeliveryFee)
	assert.Equal(t, "520.00", placement.AmountCharged)

	// The local draft is now placed and pruned from persistence.
	placed, ok := f.engine.Order(order.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusPlaced, placed.Status)

	snap, err := f.snapshots.LoadOrders(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Orders)

	f.gateway.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestOrchestrator_PlaceOrder_PickupSkipsDeliveryFee(t *testing.T) {
	f := newFixture(t)
	order := f.addDraft(t)

	// No catalogue lookups for pickup, and only the subtotal is charged.
	f.gateway.On("Charge", mock.Anything, order.ID, int64(2000)).Return("pay-ref-2", nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(req CreateOrderRequest) bool {
		return req.OrderType == model.OrderTypePickup &&
			req.DeliveryAddressID == nil &&
			req.DeliveryFee == "0.00"
	})).Return("srv-43", nil)

	placement, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:   order.ID,
		OrderType: model.OrderTypePickup,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", placement.DeliveryFee)
	assert.Equal(t, "20.00", placement.AmountCharged)

	f.catalog.AssertNotCalled(t, "Address", mock.Anything, mock.Anything)
	f.gateway.AssertExpectations(t)
}

func TestOrchestrator_PlaceOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:   "missing",
		OrderType: model.OrderTypePickup,
	})
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestOrchestrator_PlaceOrder_AlreadyPlaced(t *testing.T) {
	f := newFixture(t)
	order := f.addDraft(t)
	require.NoError(t, f.engine.UpdateOrderStatus(context.Background(), order.ID, model.StatusPlaced))

	_, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:   order.ID,
		OrderType: model.OrderTypePickup,
	})
	assert.ErrorIs(t, err, model.ErrOrderNotMutable)
}

func TestOrchestrator_PlaceOrder_MissingDeliveryAddress(t *testing.T) {
	f := newFixture(t)
	order := f.addDraft(t)

	_, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:   order.ID,
		OrderType: model.OrderTypeDelivery,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery address is required")
}

func TestOrchestrator_PlaceOrder_TooFarRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	order := f.addDraft(t)

	// Lagos to Abuja: way past the fee ceiling.
	f.catalog.On("Address", mock.Anything, "addr-far").Return(&model.Address{
		ID:        "addr-far",
		Latitude:  9.0765,
		Longitude: 7.3986,
	}, nil)
	f.catalog.On("Restaurant", mock.Anything, "r1").Return(&model.Restaurant{
		ID:        "r1",
		Latitude:  6.5244,
		Longitude: 3.3792,
	}, nil)

	_, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:           order.ID,
		DeliveryAddressID: "addr-far",
		OrderType:         model.OrderTypeDelivery,
	})
	assert.ErrorIs(t, err, model.ErrDeliveryTooFar)
	f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)

	// The same request with explicit confirmation goes through, fee uncapped.
	f.gateway.On("Charge", mock.Anything, order.ID, mock.AnythingOfType("int64")).Return("pay-ref-3", nil)
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("checkout.CreateOrderRequest")).Return("srv-44", nil)

	placement, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:           order.ID,
		DeliveryAddressID: "addr-far",
		OrderType:         model.OrderTypeDelivery,
		AcceptTooFar:      true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "0.00", placement.DeliveryFee)
}

func TestOrchestrator_PlaceOrder_PaymentFailure(t *testing.T) {
	f := newFixture(t)
	order := f.addDraft(t)

	f.gateway.On("Charge", mock.Anything, order.ID, int64(2000)).
		Return("", errors.New("card declined"))

	_, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:   order.ID,
		OrderType: model.OrderTypePickup,
	})
	assert.ErrorIs(t, err, model.ErrPaymentFailed)

	// The draft stays mutable after a failed charge.
	current, ok := f.engine.Order(order.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusUnsubmitted, current.Status)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrchestrator_PlaceOrder_OrderCreationFailureSurfacesReference(t *testing.T) {
	f := newFixture(t)
	order := f.addDraft(t)

	f.gateway.On("Charge", mock.Anything, order.ID, int64(2000)).Return("pay-ref-9", nil)
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("checkout.CreateOrderRequest")).
		Return("", errors.New("backend unavailable"))

	_, err := f.orch.PlaceOrder(context.Background(), PlaceRequest{
		OrderID:   order.ID,
		OrderType: model.OrderTypePickup,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pay-ref-9")

	// The draft must not be marked placed when the server never saw it.
	current, ok := f.engine.Order(order.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusUnsubmitted, current.Status)
}
