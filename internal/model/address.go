package model

// Address is a saved delivery address. The cart layer only consumes its
// identifier and coordinates; everything else stays with the address
// service.
type Address struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
