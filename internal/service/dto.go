package service

import "time"

// CouponInput is the admin payload for creating or updating a coupon
type CouponInput struct {
	Code               string    `json:"code" binding:"required"`
	DiscountType       string    `json:"discountType" binding:"required"`
	DiscountValue      float64   `json:"discountValue" binding:"required"`
	ApplicableProducts []string  `json:"applicableProducts" binding:"required,min=1"`
	StartDate          time.Time `json:"startDate" binding:"required"`
	EndDate            time.Time `json:"endDate" binding:"required"`
	IsActive           *bool     `json:"isActive"`
	MaxUsage           *int      `json:"maxUsage"`
}

// Adjustment reports an automatic cart correction made during revalidation
// (dropped items, clamped quantities, auto-removed coupons)
type Adjustment struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Adjustment reasons surfaced to the client
const (
	ReasonOutOfStock        = "out of stock"
	ReasonUnavailable       = "no longer available"
	ReasonQuantityReduced   = "quantity reduced"
	ReasonCouponInvalid     = "coupon expired or inactive"
	ReasonCouponNoProducts  = "no applicable products"
	ReasonCouponAutoRemoved = "coupon removed"
)
