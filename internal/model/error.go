package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeRestaurantConflict = "RESTAURANT_CONFLICT"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeItemUnavailable    = "ITEM_UNAVAILABLE"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeOrderNotMutable    = "ORDER_NOT_MUTABLE"
	ErrCodeInvalidPrice       = "INVALID_PRICE"
	ErrCodePaymentFailed      = "PAYMENT_FAILED"
	ErrCodeDeliveryTooFar     = "DELIVERY_TOO_FAR"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a business-rule violation that callers are expected to
// handle as a recoverable branch rather than a programming error.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrRestaurantConflict signals the cross-restaurant add conflict: an
	// unsubmitted draft for another restaurant already exists and the caller
	// must clear it before ordering from a new restaurant.
	ErrRestaurantConflict = NewDomainError(ErrCodeRestaurantConflict, "Cart already holds items from another restaurant")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be at least 1")
	ErrItemUnavailable    = NewDomainError(ErrCodeItemUnavailable, "Menu item is not available")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOrderNotMutable    = NewDomainError(ErrCodeOrderNotMutable, "Order has been submitted and can no longer be edited")
	ErrPaymentFailed      = NewDomainError(ErrCodePaymentFailed, "Payment could not be completed")
	// ErrDeliveryTooFar is returned when the quoted fee exceeds the policy
	// ceiling and the caller has not confirmed proceeding anyway.
	ErrDeliveryTooFar = NewDomainError(ErrCodeDeliveryTooFar, "Delivery address is too far; confirm to proceed or pick a closer branch")
)
