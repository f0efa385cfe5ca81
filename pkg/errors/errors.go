package errors

import "fmt"

// ErrNotFound indicates a resource doesn't exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates malformed or out-of-range input
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

// ErrUnauthorized indicates a failed authentication check
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrInsufficientStock indicates the requested quantity exceeds live stock.
// MaxAllowed is the largest additional quantity the client may retry with.
type ErrInsufficientStock struct {
	ProductID  string
	MaxAllowed int
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for product %s, maximum additional quantity allowed: %d", e.ProductID, e.MaxAllowed)
}

// ErrProductUnavailable indicates the product exists but is not active
type ErrProductUnavailable struct {
	ProductID string
}

func (e *ErrProductUnavailable) Error() string {
	return fmt.Sprintf("product %s is not available", e.ProductID)
}

// ErrCouponInvalid indicates an expired, inactive, not-yet-started or
// usage-exhausted coupon
type ErrCouponInvalid struct {
	Code   string
	Reason string
}

func (e *ErrCouponInvalid) Error() string {
	return fmt.Sprintf("coupon %s is invalid: %s", e.Code, e.Reason)
}

// ErrCouponNotApplicable indicates a valid coupon with no overlap with the
// cart contents, or a computed discount of zero
type ErrCouponNotApplicable struct {
	Code   string
	Reason string
}

func (e *ErrCouponNotApplicable) Error() string {
	return fmt.Sprintf("coupon %s is not applicable: %s", e.Code, e.Reason)
}

// ErrEmptyCart indicates a coupon apply was attempted on an empty cart
type ErrEmptyCart struct{}

func (e *ErrEmptyCart) Error() string {
	return "cart is empty"
}
