package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/internal/repository"
	"github.com/jafarshop/cartapi/internal/service"
	"github.com/jafarshop/cartapi/pkg/errors"
)

func couponJSON(coupon *domain.Coupon) gin.H {
	return gin.H{
		"id":                 coupon.ID.String(),
		"code":               coupon.Code,
		"discountType":       coupon.DiscountType,
		"discountValue":      coupon.DiscountValue,
		"applicableProducts": coupon.ApplicableProducts,
		"startDate":          coupon.StartDate.Format(time.RFC3339),
		"endDate":            coupon.EndDate.Format(time.RFC3339),
		"isActive":           coupon.IsActive,
		"maxUsage":           coupon.MaxUsage,
		"usageCount":         coupon.UsageCount,
	}
}

// HandleCreateCoupon handles POST /admin/coupons
func HandleCreateCoupon(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input service.CouponInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		couponService := service.NewCouponService(repos, logger)
		coupon, err := couponService.CreateCoupon(c.Request.Context(), input)
		if err != nil {
			if e, ok := err.(*errors.ErrValidation); ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": e.Message})
				return
			}
			logger.Error("Failed to create coupon", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create coupon"})
			return
		}

		c.JSON(http.StatusCreated, couponJSON(coupon))
	}
}

// HandleUpdateCoupon handles PUT /admin/coupons/:code
func HandleUpdateCoupon(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input service.CouponInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		couponService := service.NewCouponService(repos, logger)
		coupon, err := couponService.UpdateCoupon(c.Request.Context(), c.Param("code"), input)
		if err != nil {
			switch e := err.(type) {
			case *errors.ErrValidation:
				c.JSON(http.StatusBadRequest, gin.H{"error": e.Message})
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
			default:
				logger.Error("Failed to update coupon", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update coupon"})
			}
			return
		}

		c.JSON(http.StatusOK, couponJSON(coupon))
	}
}

// HandleDeleteCoupon handles DELETE /admin/coupons/:code
func HandleDeleteCoupon(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		couponService := service.NewCouponService(repos, logger)
		if err := couponService.DeleteCoupon(c.Request.Context(), c.Param("code")); err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
				return
			}
			logger.Error("Failed to delete coupon", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete coupon"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// HandleGetCoupon handles GET /admin/coupons/:code
func HandleGetCoupon(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		couponService := service.NewCouponService(repos, logger)
		coupon, err := couponService.GetCoupon(c.Request.Context(), c.Param("code"))
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
				return
			}
			logger.Error("Failed to get coupon", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, couponJSON(coupon))
	}
}

// HandleListCoupons handles GET /admin/coupons
func HandleListCoupons(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit < 1 || limit > 100 {
			limit = 50
		}

		offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil || offset < 0 {
			offset = 0
		}

		couponService := service.NewCouponService(repos, logger)
		coupons, err := couponService.ListCoupons(c.Request.Context(), limit, offset)
		if err != nil {
			logger.Error("Failed to list coupons", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		couponResponses := make([]gin.H, len(coupons))
		for i, coupon := range coupons {
			couponResponses[i] = couponJSON(coupon)
		}

		c.JSON(http.StatusOK, gin.H{
			"coupons": couponResponses,
			"limit":   limit,
			"offset":  offset,
		})
	}
}
