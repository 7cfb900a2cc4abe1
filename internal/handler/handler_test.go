package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"doorstep-cart/internal/cart"
	"doorstep-cart/internal/checkout"
	"doorstep-cart/internal/delivery"
	"doorstep-cart/internal/handler"
	"doorstep-cart/internal/model"
	"doorstep-cart/internal/router"
	"doorstep-cart/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

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

type MockPlacer struct {
	mock.Mock
}

func (m *MockPlacer) PlaceOrder(ctx context.Context, req checkout.PlaceRequest) (*checkout.Placement, error) {
	args := m.Called(ctx, req)
	if placement := args.Get(0); placement != nil {
		return placement.(*checkout.Placement), args.Error(1)
	}
	return nil, args.Error(1)
}

// api is the full HTTP surface wired over in-memory state and mocked
// external dependencies.
type api struct {
	handler   http.Handler
	engine    cart.Engine
	guest     cart.GuestEngine
	snapshots *store.SnapshotStore
	catalog   *MockCatalog
	placer    *MockPlacer
}

func newAPI(t *testing.T) *api {
	t.Helper()

	logger := zerolog.Nop()
	snapshots := store.NewSnapshotStore(store.NewMemory(), logger)
	engine := cart.New(context.Background(), snapshots, cart.Config{}, logger)
	guest := cart.NewGuest(context.Background(), snapshots, cart.Config{}, logger)

	cat := &MockCatalog{}
	placer := &MockPlacer{}

	h := router.New(
		handler.NewCartHandler(engine, cat, logger),
		handler.NewGuestHandler(guest, engine, cat, logger),
		handler.NewCheckoutHandler(placer, snapshots, logger),
		handler.NewDeliveryHandler(cat, delivery.DefaultFeePolicy(), logger),
		testAPIKey,
		logger,
	)

	return &api{
		handler:   h,
		engine:    engine,
		guest:     guest,
		snapshots: snapshots,
		catalog:   cat,
		placer:    placer,
	}
}

// do performs an authenticated request against the router.
func (a *api) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// newUnauthenticatedGet builds a GET request carrying no API key.
func newUnauthenticatedGet(t *testing.T, path string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder()
}

// decode unmarshals a recorded JSON response body.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// stubMenuItem registers a catalogue menu item the mock will serve.
func (a *api) stubMenuItem(id, restaurantID, price string) {
	a.catalog.On("MenuItem", mock.Anything, id).Return(&model.MenuItem{
		ID:           id,
		RestaurantID: restaurantID,
		Name:         "Item " + id,
		Price:        price,
		IsAvailable:  true,
	}, nil)
}
