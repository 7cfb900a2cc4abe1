package model

// MenuItem represents a menu item from the restaurant catalogue.
// Prices arrive as decimal strings (e.g. "1500.00") and are parsed into
// minor units only for arithmetic.
type MenuItem struct {
	ID           string  `json:"id"`
	RestaurantID string  `json:"restaurantId"`
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	ImageURL     *string `json:"imageUrl,omitempty"`
	IsAvailable  bool    `json:"isAvailable"`
}

// Restaurant holds the catalogue fields the cart layer consumes: identity
// and the coordinates used for delivery-fee quoting.
type Restaurant struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
