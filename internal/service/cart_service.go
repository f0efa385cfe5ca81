package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jafarshop/cartapi/internal/cache"
	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/internal/repository"
	"github.com/jafarshop/cartapi/pkg/errors"
)

// CartService binds the cart engine to identity resolution, the catalog and
// the cart store. All business-rule checks happen here, before the engine
// mutates anything; the engine itself never fails on business rules.
type CartService struct {
	repos  *repository.Repositories
	cache  cache.CartCache
	sfg    singleflight.Group // prevents cache stampede on reads
	logger *zap.Logger
	now    func() time.Time
}

// NewCartService creates a new cart service
func NewCartService(repos *repository.Repositories, cartCache cache.CartCache, logger *zap.Logger) *CartService {
	return &CartService{
		repos:  repos,
		cache:  cartCache,
		logger: logger,
		now:    time.Now,
	}
}

// loadOrNew fetches the identity's cart from the store, or returns a fresh
// unpersisted cart. Carts are created lazily on first operation.
func (s *CartService) loadOrNew(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	cart, err := s.repos.Cart.GetByIdentity(ctx, identity)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return domain.NewCart(identity), nil
		}
		return nil, err
	}
	return cart, nil
}

// loadCached is the read path: cache first, store on miss, singleflight so
// concurrent misses for the same identity hit the store once.
func (s *CartService) loadCached(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(string(identity.Kind)+":"+identity.ID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, identity)
		if err == nil {
			return cart, nil
		}
		if err != cache.ErrCacheMiss {
			s.logger.Warn("Cart cache read failed", zap.Error(err))
		}

		cart, err = s.loadOrNew(ctx, identity)
		if err != nil {
			return nil, err
		}

		if setErr := s.cache.Set(ctx, identity, cart); setErr != nil {
			s.logger.Warn("Cart cache write failed", zap.Error(setErr))
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight hands every waiter the same result; each caller gets a
	// detached copy so later mutation never touches a shared cart
	return v.(*domain.Cart).Clone(), nil
}

func (s *CartService) invalidate(ctx context.Context, identity domain.Identity) {
	if err := s.cache.Delete(ctx, identity); err != nil {
		s.logger.Warn("Cart cache invalidation failed", zap.Error(err))
	}
}

// persist saves the cart and drops the stale cache entry
func (s *CartService) persist(ctx context.Context, cart *domain.Cart) error {
	if err := s.repos.Cart.Save(ctx, cart); err != nil {
		return err
	}
	s.invalidate(ctx, cart.Owner())
	return nil
}

// GetCart returns the identity's cart for display, revalidated against live
// stock and coupon state. Items whose product vanished or went inactive are
// dropped, over-stock quantities are clamped (or dropped at zero stock), and
// the applied coupon is re-checked and recomputed. Every automatic correction
// is reported back as an adjustment.
func (s *CartService) GetCart(ctx context.Context, identity domain.Identity) (*domain.Cart, []Adjustment, error) {
	cart, err := s.loadCached(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	adjustments, dirty, err := s.revalidate(ctx, cart)
	if err != nil {
		return nil, nil, err
	}

	if dirty {
		if err := s.persist(ctx, cart); err != nil {
			return nil, nil, err
		}
	}

	return cart, adjustments, nil
}

// revalidate prunes cart items against the live catalog and re-checks the
// applied coupon. Mutates the cart in place; returns the adjustments made and
// whether the cart changed. A coupon recompute can change the cart without
// producing an adjustment.
func (s *CartService) revalidate(ctx context.Context, cart *domain.Cart) ([]Adjustment, bool, error) {
	var adjustments []Adjustment

	var couponCode string
	if cart.Coupon != nil {
		couponCode = cart.Coupon.Code
	}

	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)

	for _, item := range items {
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				cart.RemoveItem(item.ID)
				adjustments = append(adjustments, Adjustment{Title: item.Title, Reason: ReasonUnavailable})
				continue
			}
			return nil, false, err
		}

		switch {
		case !product.IsActive:
			cart.RemoveItem(item.ID)
			adjustments = append(adjustments, Adjustment{Title: item.Title, Reason: ReasonUnavailable})
		case product.Stock == 0:
			cart.RemoveItem(item.ID)
			adjustments = append(adjustments, Adjustment{Title: item.Title, Reason: ReasonOutOfStock})
		case item.Quantity > product.Stock:
			cart.UpdateItemQuantity(item.ID, product.Stock)
			adjustments = append(adjustments, Adjustment{Title: item.Title, Reason: ReasonQuantityReduced})
		}
	}

	// item pruning can clear the coupon through the engine's overlap check
	if couponCode != "" && cart.Coupon == nil {
		adjustments = append(adjustments, Adjustment{Title: couponCode, Reason: ReasonCouponNoProducts})
	}

	couponAdjustments, couponChanged, err := s.revalidateCoupon(ctx, cart)
	if err != nil {
		return nil, false, err
	}
	adjustments = append(adjustments, couponAdjustments...)
	return adjustments, len(adjustments) > 0 || couponChanged, nil
}

// revalidateCoupon re-checks an applied coupon against the live directory and
// the pruned item list. Invalid coupons are removed, valid ones recomputed; a
// recomputed discount of zero also removes the coupon. The bool reports
// whether the snapshot was rewritten, so a silent recompute (admin edited the
// coupon) still gets persisted.
func (s *CartService) revalidateCoupon(ctx context.Context, cart *domain.Cart) ([]Adjustment, bool, error) {
	if cart.Coupon == nil {
		return nil, false, nil
	}
	code := cart.Coupon.Code

	coupon, err := s.repos.Coupon.GetByCode(ctx, code)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			cart.RemoveCoupon()
			return []Adjustment{{Title: code, Reason: ReasonCouponInvalid}}, true, nil
		}
		return nil, false, err
	}

	now := s.now()
	if !coupon.IsValid(now) {
		cart.RemoveCoupon()
		return []Adjustment{{Title: code, Reason: ReasonCouponInvalid}}, true, nil
	}

	result := coupon.CalculateDiscount(cart.Items, now)
	if result.DiscountAmount == 0 {
		cart.RemoveCoupon()
		return []Adjustment{{Title: code, Reason: ReasonCouponNoProducts}}, true, nil
	}

	if !couponSnapshotChanged(cart.Coupon, coupon, result) {
		return nil, false, nil
	}
	cart.ApplyCoupon(coupon, result)
	return nil, true, nil
}

// couponSnapshotChanged reports whether refreshing the applied snapshot from
// the live coupon would alter the stored cart.
func couponSnapshotChanged(applied *domain.AppliedCoupon, coupon *domain.Coupon, result domain.DiscountResult) bool {
	if applied.DiscountValue != coupon.DiscountValue || applied.DiscountAmount != result.DiscountAmount {
		return true
	}
	if len(applied.ApplicableProducts) != len(coupon.ApplicableProducts) {
		return true
	}
	for i := range applied.ApplicableProducts {
		if applied.ApplicableProducts[i] != coupon.ApplicableProducts[i] {
			return true
		}
	}
	return false
}

// AddToCart adds quantity units of a product after validating it is active
// and that existing + requested quantity fits the live stock.
func (s *CartService) AddToCart(ctx context.Context, identity domain.Identity, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &errors.ErrValidation{Message: "quantity must be at least 1"}
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, &errors.ErrProductUnavailable{ProductID: productID}
	}

	cart, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, err
	}

	existing := cart.QuantityOf(productID)
	if existing+quantity > product.Stock {
		maxAllowed := product.Stock - existing
		if maxAllowed < 0 {
			maxAllowed = 0
		}
		return nil, &errors.ErrInsufficientStock{ProductID: productID, MaxAllowed: maxAllowed}
	}

	cart.AddItem(product, quantity, product.Price)

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets an item's quantity. Zero or negative behaves as removal.
// An unknown item id is surfaced as not-found rather than silently ignored.
func (s *CartService) UpdateItem(ctx context.Context, identity domain.Identity, itemID string, quantity int) (*domain.Cart, error) {
	cart, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, err
	}

	item := cart.FindItem(itemID)
	if item == nil {
		return nil, &errors.ErrNotFound{Resource: "cart item", ID: itemID}
	}

	if quantity > 0 {
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, &errors.ErrProductUnavailable{ProductID: item.ProductID}
		}
		if quantity > product.Stock {
			return nil, &errors.ErrInsufficientStock{ProductID: item.ProductID, MaxAllowed: product.Stock}
		}
	}

	cart.UpdateItemQuantity(itemID, quantity)

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem removes an item by id. Removing an unknown or already-removed
// item leaves the cart untouched. A coupon auto-cleared by the removal is
// reported as an adjustment.
func (s *CartService) RemoveItem(ctx context.Context, identity domain.Identity, itemID string) (*domain.Cart, []Adjustment, error) {
	cart, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	var couponCode string
	if cart.Coupon != nil {
		couponCode = cart.Coupon.Code
	}

	removed, couponCleared := cart.RemoveItem(itemID)
	if !removed {
		return cart, nil, nil
	}

	var adjustments []Adjustment
	if couponCleared {
		adjustments = append(adjustments, Adjustment{Title: couponCode, Reason: ReasonCouponAutoRemoved})
	}

	if err := s.persist(ctx, cart); err != nil {
		return nil, nil, err
	}
	return cart, adjustments, nil
}

// Clear empties the identity's cart
func (s *CartService) Clear(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	cart, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, err
	}

	cart.Clear()

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ApplyCoupon applies a coupon code to the cart. Preconditions are checked in
// order and short-circuit: cart non-empty, code exists, coupon valid, coupon
// overlaps the cart, computed discount non-zero.
func (s *CartService) ApplyCoupon(ctx context.Context, identity domain.Identity, code string) (*domain.Cart, *domain.DiscountResult, error) {
	cart, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	if cart.IsEmpty() {
		return nil, nil, &errors.ErrEmptyCart{}
	}

	coupon, err := s.repos.Coupon.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	if !coupon.IsValid(now) {
		return nil, nil, &errors.ErrCouponInvalid{Code: coupon.Code, Reason: couponInvalidReason(coupon, now)}
	}

	if !coupon.AppliesTo(cart.ProductIDs()) {
		return nil, nil, &errors.ErrCouponNotApplicable{Code: coupon.Code, Reason: "no applicable products in cart"}
	}

	result := coupon.CalculateDiscount(cart.Items, now)
	if result.DiscountAmount == 0 {
		return nil, nil, &errors.ErrCouponNotApplicable{Code: coupon.Code, Reason: "discount would be zero"}
	}

	cart.ApplyCoupon(coupon, result)

	if err := s.persist(ctx, cart); err != nil {
		return nil, nil, err
	}
	return cart, &result, nil
}

// RemoveCoupon drops the applied coupon from the cart
func (s *CartService) RemoveCoupon(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	cart, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, err
	}

	cart.RemoveCoupon()

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// MergeGuestIntoUser folds a guest session's cart into the authenticated
// user's cart. An absent or empty guest cart is a no-op. Guest items are
// pruned to live stock before the merge, quantities capped to stock after,
// and the guest cart record deleted once the merged cart is persisted.
func (s *CartService) MergeGuestIntoUser(ctx context.Context, user domain.Identity, guestSessionID string) (*domain.Cart, error) {
	if !user.IsUser() {
		return nil, &errors.ErrUnauthorized{Message: "merge requires an authenticated user"}
	}
	guest := domain.GuestIdentity(guestSessionID)

	guestCart, err := s.repos.Cart.GetByIdentity(ctx, guest)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return s.loadOrNew(ctx, user)
		}
		return nil, err
	}
	if guestCart.IsEmpty() {
		return s.loadOrNew(ctx, user)
	}

	userCart, err := s.loadOrNew(ctx, user)
	if err != nil {
		return nil, err
	}

	// prune guest items to live stock before merging
	for _, item := range append([]domain.CartItem(nil), guestCart.Items...) {
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				guestCart.RemoveItem(item.ID)
				continue
			}
			return nil, err
		}
		switch {
		case !product.IsActive, product.Stock == 0:
			guestCart.RemoveItem(item.ID)
		case item.Quantity > product.Stock:
			guestCart.UpdateItemQuantity(item.ID, product.Stock)
		}
	}

	userCart.MergeFrom(guestCart)

	// summed quantities can still exceed stock; final cap pass
	for _, item := range append([]domain.CartItem(nil), userCart.Items...) {
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				userCart.RemoveItem(item.ID)
				continue
			}
			return nil, err
		}
		if item.Quantity > product.Stock {
			userCart.UpdateItemQuantity(item.ID, product.Stock)
		}
	}

	if err := s.persist(ctx, userCart); err != nil {
		return nil, err
	}

	if err := s.repos.Cart.Delete(ctx, guest); err != nil {
		s.logger.Warn("Failed to delete guest cart after merge", zap.String("session_id", guestSessionID), zap.Error(err))
	}
	s.invalidate(ctx, guest)

	return userCart, nil
}

// couponInvalidReason names the first validity rule the coupon fails
func couponInvalidReason(coupon *domain.Coupon, now time.Time) string {
	switch {
	case !coupon.IsActive:
		return "coupon is inactive"
	case now.Before(coupon.StartDate):
		return "coupon is not yet active"
	case !now.Before(coupon.EndDate):
		return "coupon has expired"
	case coupon.MaxUsage != nil && coupon.UsageCount >= *coupon.MaxUsage:
		return "coupon usage limit reached"
	default:
		return "coupon is invalid"
	}
}
