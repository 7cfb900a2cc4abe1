package delivery

import (
	"math"

	"doorstep-cart/internal/model"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HaversineKm computes the great-circle distance between two points in
// kilometres.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// FeePolicy is the distance-tiered delivery fee table, in minor units
// (kobo). It is configuration, not code: product adjusts the tiers without
// touching the calculator.
type FeePolicy struct {
	// BaseFeeMinor is the flat fee charged within BaseDistanceKm.
	BaseFeeMinor int64

	// BaseDistanceKm is the distance covered by the flat fee.
	BaseDistanceKm float64

	// PerKmFeeMinor is charged per kilometre beyond BaseDistanceKm.
	PerKmFeeMinor int64

	// CeilingFeeMinor marks the "too far" threshold. Quotes above it are
	// flagged so the caller can offer a closer branch instead.
	CeilingFeeMinor int64
}

// DefaultFeePolicy returns the standard tiers: ₦500 within 2 km, ₦300 per
// extra kilometre, flagged beyond ₦2500.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		BaseFeeMinor:    50000,
		BaseDistanceKm:  2,
		PerKmFeeMinor:   30000,
		CeilingFeeMinor: 250000,
	}
}

// Quote is a delivery fee quote for a restaurant/address pair.
type Quote struct {
	DistanceKm float64 `json:"distanceKm"`
	Fee        string  `json:"fee"`
	FeeMinor   int64   `json:"feeMinor"`

	// TooFar is set when the fee exceeds the policy ceiling. Whether to
	// proceed anyway is a product decision made by the caller, so the fee
	// is still reported uncapped.
	TooFar bool `json:"tooFar"`
}

// QuoteFor computes the fee for the given distance.
func (p FeePolicy) QuoteFor(distanceKm float64) Quote {
	fee := p.BaseFeeMinor
	if distanceKm > p.BaseDistanceKm {
		fee += int64(math.Round((distanceKm - p.BaseDistanceKm) * float64(p.PerKmFeeMinor)))
	}

	return Quote{
		DistanceKm: distanceKm,
		Fee:        model.FormatPrice(fee),
		FeeMinor:   fee,
		TooFar:     fee > p.CeilingFeeMinor,
	}
}

// QuoteBetween computes the fee for the great-circle distance between two
// points.
func (p FeePolicy) QuoteBetween(from, to Point) Quote {
	return p.QuoteFor(HaversineKm(from, to))
}
