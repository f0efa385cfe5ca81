package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/internal/repository"
	"github.com/jafarshop/cartapi/pkg/errors"
)

type couponService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewCouponService creates a new coupon service for admin operations
func NewCouponService(repos *repository.Repositories, logger *zap.Logger) *couponService {
	return &couponService{
		repos:  repos,
		logger: logger,
	}
}

// validateInput enforces the coupon constraints: percentage type only, value
// in [1,100], non-empty product set, start before end, cap nil or positive
func validateInput(input CouponInput) error {
	if domain.NormalizeCouponCode(input.Code) == "" {
		return &errors.ErrValidation{Message: "coupon code is required"}
	}
	if input.DiscountType != domain.DiscountTypePercentage {
		return &errors.ErrValidation{Message: "discount type must be \"percentage\""}
	}
	if input.DiscountValue < 1 || input.DiscountValue > 100 {
		return &errors.ErrValidation{Message: "discount value must be between 1 and 100"}
	}
	if len(input.ApplicableProducts) == 0 {
		return &errors.ErrValidation{Message: "at least one applicable product is required"}
	}
	if !input.StartDate.Before(input.EndDate) {
		return &errors.ErrValidation{Message: "start date must be before end date"}
	}
	if input.MaxUsage != nil && *input.MaxUsage < 1 {
		return &errors.ErrValidation{Message: "max usage must be at least 1 when set"}
	}
	return nil
}

func fromInput(input CouponInput) *domain.Coupon {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	return &domain.Coupon{
		Code:               domain.NormalizeCouponCode(input.Code),
		DiscountType:       input.DiscountType,
		DiscountValue:      input.DiscountValue,
		ApplicableProducts: input.ApplicableProducts,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		IsActive:           isActive,
		MaxUsage:           input.MaxUsage,
	}
}

// CreateCoupon validates and stores a new coupon
func (s *couponService) CreateCoupon(ctx context.Context, input CouponInput) (*domain.Coupon, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	coupon := fromInput(input)
	if err := s.repos.Coupon.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code))
	return coupon, nil
}

// UpdateCoupon validates and overwrites an existing coupon's rule. The usage
// counter is not touched here; only a confirmed order consumes usage.
func (s *couponService) UpdateCoupon(ctx context.Context, code string, input CouponInput) (*domain.Coupon, error) {
	input.Code = code
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repos.Coupon.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	coupon := fromInput(input)
	coupon.ID = existing.ID
	coupon.UsageCount = existing.UsageCount
	coupon.CreatedAt = existing.CreatedAt

	if err := s.repos.Coupon.Update(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.Info("Coupon updated", zap.String("code", coupon.Code))
	return coupon, nil
}

// DeleteCoupon removes a coupon from the directory. Already-applied snapshots
// in carts survive until the next revalidation removes them.
func (s *couponService) DeleteCoupon(ctx context.Context, code string) error {
	if err := s.repos.Coupon.Delete(ctx, code); err != nil {
		return err
	}
	s.logger.Info("Coupon deleted", zap.String("code", domain.NormalizeCouponCode(code)))
	return nil
}

// GetCoupon fetches a coupon by code
func (s *couponService) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	return s.repos.Coupon.GetByCode(ctx, code)
}

// ListCoupons pages through the directory, newest first
func (s *couponService) ListCoupons(ctx context.Context, limit, offset int) ([]*domain.Coupon, error) {
	return s.repos.Coupon.List(ctx, limit, offset)
}
