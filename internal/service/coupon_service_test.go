package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/internal/repository"
	"github.com/jafarshop/cartapi/pkg/errors"
)

func validInput() CouponInput {
	now := time.Now()
	return CouponInput{
		Code:               "save20",
		DiscountType:       domain.DiscountTypePercentage,
		DiscountValue:      20,
		ApplicableProducts: []string{"p1"},
		StartDate:          now,
		EndDate:            now.AddDate(0, 1, 0),
	}
}

func newCouponTestService(coupons ...*domain.Coupon) *couponService {
	repos := &repository.Repositories{
		Cart:    newMockCartRepo(),
		Coupon:  newMockCouponRepo(coupons...),
		Product: newMockProductRepo(),
	}
	return NewCouponService(repos, zap.NewNop())
}

func TestCreateCouponNormalizesCode(t *testing.T) {
	svc := newCouponTestService()

	coupon, err := svc.CreateCoupon(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "SAVE20", coupon.Code)
	assert.True(t, coupon.IsActive, "active by default")
	assert.Nil(t, coupon.MaxUsage)
}

func TestCreateCouponValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CouponInput)
	}{
		{"blank code", func(in *CouponInput) { in.Code = "  " }},
		{"unsupported type", func(in *CouponInput) { in.DiscountType = "flat" }},
		{"value below range", func(in *CouponInput) { in.DiscountValue = 0.5 }},
		{"value above range", func(in *CouponInput) { in.DiscountValue = 101 }},
		{"no products", func(in *CouponInput) { in.ApplicableProducts = nil }},
		{"window inverted", func(in *CouponInput) { in.EndDate = in.StartDate.Add(-time.Hour) }},
		{"zero max usage", func(in *CouponInput) {
			zero := 0
			in.MaxUsage = &zero
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newCouponTestService()
			input := validInput()
			tt.mutate(&input)

			_, err := svc.CreateCoupon(context.Background(), input)
			assert.IsType(t, &errors.ErrValidation{}, err)
		})
	}
}

func TestUpdateCouponPreservesUsageCount(t *testing.T) {
	existing := percentCoupon("SAVE20", 20, "p1")
	existing.UsageCount = 7
	svc := newCouponTestService(existing)

	input := validInput()
	input.DiscountValue = 15

	coupon, err := svc.UpdateCoupon(context.Background(), "SAVE20", input)
	require.NoError(t, err)

	assert.Equal(t, 15.0, coupon.DiscountValue)
	assert.Equal(t, 7, coupon.UsageCount, "usage is consumed by orders, not admin edits")
}

func TestUpdateUnknownCoupon(t *testing.T) {
	svc := newCouponTestService()

	_, err := svc.UpdateCoupon(context.Background(), "MISSING", validInput())
	assert.IsType(t, &errors.ErrNotFound{}, err)
}
