package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiscountTypePercentage is the only discount type currently supported
const DiscountTypePercentage = "percentage"

// Coupon is an admin-defined, product-scoped, time-bounded percentage
// discount rule. Codes are stored uppercase and matched case-insensitively.
type Coupon struct {
	ID                 uuid.UUID
	Code               string
	DiscountType       string
	DiscountValue      float64
	ApplicableProducts []string
	StartDate          time.Time
	EndDate            time.Time
	IsActive           bool
	MaxUsage           *int
	UsageCount         int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DiscountResult is the outcome of a discount computation over cart items
type DiscountResult struct {
	DiscountAmount     float64
	ApplicableSubtotal float64
	ApplicableItems    []string
}

// NormalizeCouponCode canonicalizes a coupon code for storage and lookup
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether the coupon can be applied at the given time:
// active, inside the half-open [StartDate, EndDate) window, and under its
// usage cap (nil cap = unlimited).
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.StartDate) || !now.Before(c.EndDate) {
		return false
	}
	if c.MaxUsage != nil && c.UsageCount >= *c.MaxUsage {
		return false
	}
	return true
}

// AppliesTo reports whether at least one of the given product ids is in the
// coupon's applicable set. At-least-one-match semantics, not all-match.
func (c *Coupon) AppliesTo(productIDs []string) bool {
	applicable := make(map[string]struct{}, len(c.ApplicableProducts))
	for _, id := range c.ApplicableProducts {
		applicable[id] = struct{}{}
	}
	for _, id := range productIDs {
		if _, ok := applicable[id]; ok {
			return true
		}
	}
	return false
}

// CalculateDiscount sums priceAtAdd × quantity over the cart items covered by
// the coupon and derives the discount from that applicable subtotal. Amounts
// are rounded to the nearest whole rupee. An invalid coupon or an empty
// applicable subtotal yields a zero discount, not an error; the caller
// decides whether zero means "reject".
func (c *Coupon) CalculateDiscount(items []CartItem, now time.Time) DiscountResult {
	if !c.IsValid(now) {
		return DiscountResult{}
	}

	applicable := make(map[string]struct{}, len(c.ApplicableProducts))
	for _, id := range c.ApplicableProducts {
		applicable[id] = struct{}{}
	}

	result := DiscountResult{}
	for i := range items {
		if _, ok := applicable[items[i].ProductID]; ok {
			result.ApplicableSubtotal += items[i].PriceAtAdd * float64(items[i].Quantity)
			result.ApplicableItems = append(result.ApplicableItems, items[i].ProductID)
		}
	}

	if result.ApplicableSubtotal == 0 {
		return result
	}

	if c.DiscountType == DiscountTypePercentage {
		result.DiscountAmount = math.Round(result.ApplicableSubtotal * c.DiscountValue / 100)
	}
	return result
}
