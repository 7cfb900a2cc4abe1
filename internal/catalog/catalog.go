package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"doorstep-cart/internal/httpclient"
	"doorstep-cart/internal/model"

	"github.com/rs/zerolog"
)

// Catalog supplies menu items, restaurants and saved addresses from the
// backend catalogue. It is read-only from the cart layer's perspective.
type Catalog interface {
	// MenuItem retrieves a single menu item, or nil when it does not exist.
	MenuItem(ctx context.Context, id string) (*model.MenuItem, error)

	// Restaurant retrieves a restaurant, or nil when it does not exist.
	Restaurant(ctx context.Context, id string) (*model.Restaurant, error)

	// Address retrieves a saved delivery address, or nil when it does not
	// exist.
	Address(ctx context.Context, id string) (*model.Address, error)
}

// httpCatalog implements Catalog against the REST catalogue API.
type httpCatalog struct {
	client  *httpclient.Client
	baseURL string
	logger  zerolog.Logger
}

// NewHTTP creates a REST-backed catalog client.
func NewHTTP(client *httpclient.Client, baseURL string, logger zerolog.Logger) Catalog {
	return &httpCatalog{
		client:  client,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "catalog-client").Logger(),
	}
}

// MenuItem retrieves a single menu item.
func (c *httpCatalog) MenuItem(ctx context.Context, id string) (*model.MenuItem, error) {
	var item model.MenuItem
	ok, err := c.get(ctx, "/api/menu-items/"+url.PathEscape(id), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu item %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// Restaurant retrieves a restaurant.
func (c *httpCatalog) Restaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	ok, err := c.get(ctx, "/api/restaurants/"+url.PathEscape(id), &restaurant)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch restaurant %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &restaurant, nil
}

// Address retrieves a saved delivery address.
func (c *httpCatalog) Address(ctx context.Context, id string) (*model.Address, error) {
	var address model.Address
	ok, err := c.get(ctx, "/api/addresses/"+url.PathEscape(id), &address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch address %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &address, nil
}

// get fetches a resource, reporting absence (404) via the boolean rather
// than an error.
func (c *httpCatalog) get(ctx context.Context, path string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("catalogue request failed")
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}
