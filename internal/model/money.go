package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Prices travel through the system as decimal strings and are converted to
// integer minor units (kobo) for arithmetic, so totals stay exact no matter
// how many times they are recomputed.

// ParsePrice converts a decimal price string ("1500", "1500.5", "1500.50")
// into minor units. Negative prices and more than two decimal places are
// rejected.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative price %q", s)
	}

	// Both parts must be bare digit runs; ParseInt alone would let a sign
	// inside the fraction ("10.-5") or on the whole part ("+10") through.
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(whole) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}

	var cents int64
	if hasFrac {
		if len(frac) > 2 {
			return 0, fmt.Errorf("invalid price %q: expected at most 2 decimal places", s)
		}
		if !isDigits(frac) {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q: %w", s, err)
		}
		if len(frac) == 1 {
			cents *= 10
		}
	}

	return units*100 + cents, nil
}

// isDigits reports whether s is non-empty and consists only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatPrice renders minor units back into a two-decimal price string.
func FormatPrice(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// ItemsTotal computes Σ(price × quantity) over the given items and returns
// it as a decimal string.
func ItemsTotal(items []OrderItem) (string, error) {
	var total int64
	for _, item := range items {
		price, err := ParsePrice(item.Price)
		if err != nil {
			return "", fmt.Errorf("item %s: %w", item.ID, err)
		}
		total += price * int64(item.Quantity)
	}
	return FormatPrice(total), nil
}
