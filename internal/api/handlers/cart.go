package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/api/middleware"
	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/internal/service"
	"github.com/jafarshop/cartapi/pkg/errors"
)

// AddToCartRequest is the add-item payload
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest is the quantity-update payload; zero behaves as delete
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// MergeRequest names the guest session to fold into the user's cart
type MergeRequest struct {
	GuestSessionID string `json:"guestSessionId" binding:"required"`
}

// ApplyCouponRequest is the coupon-apply payload
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// cartResponse shapes the cart plus optional automatic adjustments
func cartResponse(cart *domain.Cart, adjustments []service.Adjustment) gin.H {
	resp := gin.H{"cart": cart}
	if len(adjustments) > 0 {
		resp["removedItems"] = adjustments
	}
	return resp
}

// HandleGetCart handles GET /cart
func HandleGetCart(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session required"})
			return
		}

		cart, adjustments, err := svc.GetCart(c.Request.Context(), identity)
		if err != nil {
			logger.Error("Failed to get cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart, adjustments))
	}
}

// HandleAddToCart handles POST /cart/add
func HandleAddToCart(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session required"})
			return
		}

		var req AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := svc.AddToCart(c.Request.Context(), identity, req.ProductID, req.Quantity)
		if err != nil {
			switch e := err.(type) {
			case *errors.ErrValidation:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": e.Message})
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": e.Error()})
			case *errors.ErrProductUnavailable:
				c.JSON(http.StatusConflict, gin.H{"success": false, "message": e.Error()})
			case *errors.ErrInsufficientStock:
				c.JSON(http.StatusConflict, gin.H{
					"success":    false,
					"message":    e.Error(),
					"maxAllowed": e.MaxAllowed,
				})
			default:
				logger.Error("Failed to add to cart", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
	}
}

// HandleUpdateItem handles PUT /cart/item/:itemId
func HandleUpdateItem(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session required"})
			return
		}

		var req UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := svc.UpdateItem(c.Request.Context(), identity, c.Param("itemId"), *req.Quantity)
		if err != nil {
			switch e := err.(type) {
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": e.Error()})
			case *errors.ErrProductUnavailable:
				c.JSON(http.StatusConflict, gin.H{"success": false, "message": e.Error()})
			case *errors.ErrInsufficientStock:
				c.JSON(http.StatusConflict, gin.H{
					"success":    false,
					"message":    e.Error(),
					"maxAllowed": e.MaxAllowed,
				})
			default:
				logger.Error("Failed to update cart item", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
	}
}

// HandleRemoveItem handles DELETE /cart/item/:itemId
func HandleRemoveItem(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session required"})
			return
		}

		cart, adjustments, err := svc.RemoveItem(c.Request.Context(), identity, c.Param("itemId"))
		if err != nil {
			logger.Error("Failed to remove cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart, adjustments))
	}
}

// HandleClearCart handles POST /cart/clear
func HandleClearCart(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session required"})
			return
		}

		cart, err := svc.Clear(c.Request.Context(), identity)
		if err != nil {
			logger.Error("Failed to clear cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
	}
}

// HandleMergeCarts handles POST /cart/merge
func HandleMergeCarts(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok || !identity.IsUser() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req MergeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := svc.MergeGuestIntoUser(c.Request.Context(), identity, req.GuestSessionID)
		if err != nil {
			if _, ok := err.(*errors.ErrUnauthorized); ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			logger.Error("Failed to merge carts", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
	}
}

// HandleApplyCoupon handles POST /cart/apply-coupon
func HandleApplyCoupon(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session required"})
			return
		}

		var req ApplyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, discount, err := svc.ApplyCoupon(c.Request.Context(), identity, req.Code)
		if err != nil {
			switch e := err.(type) {
			case *errors.ErrEmptyCart:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": e.Error()})
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": e.Error()})
			case *errors.ErrCouponInvalid:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": e.Error()})
			case *errors.ErrCouponNotApplicable:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": e.Error()})
			default:
				logger.Error("Failed to apply coupon", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"cart":    cart,
			"discount": gin.H{
				"code":            cart.Coupon.Code,
				"discountAmount":  discount.DiscountAmount,
				"applicableItems": discount.ApplicableItems,
			},
		})
	}
}

// HandleRemoveCoupon handles POST /cart/remove-coupon
func HandleRemoveCoupon(svc *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session required"})
			return
		}

		cart, err := svc.RemoveCoupon(c.Request.Context(), identity)
		if err != nil {
			logger.Error("Failed to remove coupon", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
	}
}
