package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is the only currency this storefront trades in
const DefaultCurrency = "INR"

// CartItem is one line in a cart. Title, SKU, image, attributes and the unit
// price are snapshotted at add time and never refreshed, so historical cart
// display stays stable even if the product changes.
type CartItem struct {
	ID         string            `bson:"item_id" json:"itemId"`
	ProductID  string            `bson:"product_id" json:"productId"`
	Title      string            `bson:"title" json:"title"`
	SKU        string            `bson:"sku" json:"sku"`
	Image      string            `bson:"image,omitempty" json:"image,omitempty"`
	Attributes map[string]string `bson:"attributes,omitempty" json:"attributes,omitempty"`
	Quantity   int               `bson:"quantity" json:"quantity"`
	PriceAtAdd float64           `bson:"price_at_add" json:"priceAtAdd"`
	Currency   string            `bson:"currency" json:"currency"`
	AddedAt    time.Time         `bson:"added_at" json:"addedAt"`
}

// AppliedCoupon freezes a coupon's discount computation at apply time. It is
// a snapshot, not a reference: later admin edits to the coupon do not change
// an already-applied discount until the cart is revalidated.
type AppliedCoupon struct {
	Code               string    `bson:"code" json:"code"`
	DiscountType       string    `bson:"discount_type" json:"discountType"`
	DiscountValue      float64   `bson:"discount_value" json:"discountValue"`
	DiscountAmount     float64   `bson:"discount_amount" json:"discountAmount"`
	ApplicableProducts []string  `bson:"applicable_products" json:"applicableProducts"`
	AppliedAt          time.Time `bson:"applied_at" json:"appliedAt"`
}

// Cart is the per-identity mutable collection of line items plus at most one
// applied discount and derived totals. Subtotal, TotalDiscount and FinalTotal
// are never set directly; they are recomputed after every mutation.
type Cart struct {
	ID            string         `bson:"_id,omitempty" json:"-"`
	UserID        string         `bson:"user_id,omitempty" json:"userId,omitempty"`
	SessionID     string         `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	Items         []CartItem     `bson:"items" json:"items"`
	Coupon        *AppliedCoupon `bson:"coupon,omitempty" json:"coupon"`
	Subtotal      float64        `bson:"subtotal" json:"subtotal"`
	TotalDiscount float64        `bson:"total_discount" json:"totalDiscount"`
	FinalTotal    float64        `bson:"final_total" json:"finalTotal"`
	Currency      string         `bson:"currency" json:"currency"`
	CreatedAt     time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updatedAt"`
}

// NewCart creates an empty cart owned by the given identity
func NewCart(identity Identity) *Cart {
	now := time.Now()
	cart := &Cart{
		Items:     []CartItem{},
		Currency:  DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if identity.IsUser() {
		cart.UserID = identity.ID
	} else {
		cart.SessionID = identity.ID
	}
	return cart
}

// Owner returns the identity the cart belongs to
func (c *Cart) Owner() Identity {
	if c.UserID != "" {
		return UserIdentity(c.UserID)
	}
	return GuestIdentity(c.SessionID)
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the item with the given id, or nil
func (c *Cart) FindItem(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// QuantityOf returns the quantity of the given product already in the cart
func (c *Cart) QuantityOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return c.Items[i].Quantity
		}
	}
	return 0
}

// ProductIDs returns the product ids of all items in insertion order
func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for i := range c.Items {
		ids = append(ids, c.Items[i].ProductID)
	}
	return ids
}

// AddItem adds quantity units of the product at the given unit price. If the
// product is already in the cart its quantity is incremented and the locked
// price kept; otherwise a fresh snapshot line is appended. The caller is
// responsible for stock and active checks.
func (c *Cart) AddItem(product *Product, quantity int, unitPrice float64) {
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID {
			c.Items[i].Quantity += quantity
			c.recalculate()
			return
		}
	}

	currency := product.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	c.Items = append(c.Items, CartItem{
		ID:         uuid.New().String(),
		ProductID:  product.ID,
		Title:      product.Title,
		SKU:        product.SKU,
		Image:      product.Image,
		Attributes: product.Attributes,
		Quantity:   quantity,
		PriceAtAdd: unitPrice,
		Currency:   currency,
		AddedAt:    time.Now(),
	})
	c.recalculate()
}

// UpdateItemQuantity sets the item's quantity. A quantity of zero or less
// behaves as removal. Returns whether the item was found and whether the
// applied coupon was cleared as a consequence. An unknown item id leaves the
// cart unchanged.
func (c *Cart) UpdateItemQuantity(itemID string, quantity int) (found, couponCleared bool) {
	if quantity <= 0 {
		return c.RemoveItem(itemID)
	}
	item := c.FindItem(itemID)
	if item == nil {
		return false, false
	}
	item.Quantity = quantity
	c.recalculate()
	return true, false
}

// RemoveItem removes the item by id and re-checks the applied coupon: an
// empty cart or no remaining overlap with the coupon's frozen product set
// clears the coupon. Removing an already-removed item is a no-op.
func (c *Cart) RemoveItem(itemID string) (removed, couponCleared bool) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		return false, false
	}

	couponCleared = c.revalidateCouponOverlap()
	c.recalculate()
	return true, couponCleared
}

// revalidateCouponOverlap clears the coupon when it no longer intersects the
// cart contents. Returns whether the coupon was cleared.
func (c *Cart) revalidateCouponOverlap() bool {
	if c.Coupon == nil {
		return false
	}
	if c.IsEmpty() {
		c.Coupon = nil
		return true
	}
	applicable := make(map[string]struct{}, len(c.Coupon.ApplicableProducts))
	for _, id := range c.Coupon.ApplicableProducts {
		applicable[id] = struct{}{}
	}
	for i := range c.Items {
		if _, ok := applicable[c.Items[i].ProductID]; ok {
			return false
		}
	}
	c.Coupon = nil
	return true
}

// Clone returns a deep copy of the cart. The copy shares no mutable state
// with the original, so either side can be mutated independently.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	for i := range out.Items {
		if c.Items[i].Attributes != nil {
			attrs := make(map[string]string, len(c.Items[i].Attributes))
			for k, v := range c.Items[i].Attributes {
				attrs[k] = v
			}
			out.Items[i].Attributes = attrs
		}
	}
	if c.Coupon != nil {
		coupon := *c.Coupon
		coupon.ApplicableProducts = append([]string(nil), c.Coupon.ApplicableProducts...)
		out.Coupon = &coupon
	}
	return &out
}

// Clear empties the cart and drops any applied coupon
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Coupon = nil
	c.recalculate()
}

// ApplyCoupon stores a coupon snapshot with its computed discount. Validity
// and applicability checks are the caller's responsibility; the engine does
// not re-validate.
func (c *Cart) ApplyCoupon(coupon *Coupon, result DiscountResult) {
	products := make([]string, len(coupon.ApplicableProducts))
	copy(products, coupon.ApplicableProducts)
	c.Coupon = &AppliedCoupon{
		Code:               coupon.Code,
		DiscountType:       coupon.DiscountType,
		DiscountValue:      coupon.DiscountValue,
		DiscountAmount:     result.DiscountAmount,
		ApplicableProducts: products,
		AppliedAt:          time.Now(),
	}
	c.recalculate()
}

// RemoveCoupon clears the coupon snapshot
func (c *Cart) RemoveCoupon() {
	c.Coupon = nil
	c.recalculate()
}

// MergeFrom merges another cart's items into this one. On a productId match
// quantities are summed and the other cart's unit price wins; unmatched items
// are appended as-is. Any coupon applied to this cart is cleared: discount
// validity cannot be assumed to survive a merge. Stock capping is the
// caller's responsibility.
func (c *Cart) MergeFrom(other *Cart) {
	for _, incoming := range other.Items {
		merged := false
		for i := range c.Items {
			if c.Items[i].ProductID == incoming.ProductID {
				c.Items[i].Quantity += incoming.Quantity
				c.Items[i].PriceAtAdd = incoming.PriceAtAdd
				merged = true
				break
			}
		}
		if !merged {
			c.Items = append(c.Items, incoming)
		}
	}
	c.Coupon = nil
	c.recalculate()
}

// recalculate applies the derived-totals rule after every mutation:
// subtotal = Σ(priceAtAdd × quantity), totalDiscount = coupon amount or 0,
// finalTotal = max(0, subtotal − totalDiscount).
func (c *Cart) recalculate() {
	subtotal := 0.0
	for i := range c.Items {
		subtotal += c.Items[i].PriceAtAdd * float64(c.Items[i].Quantity)
	}
	c.Subtotal = subtotal
	if c.Coupon != nil {
		c.TotalDiscount = c.Coupon.DiscountAmount
	} else {
		c.TotalDiscount = 0
	}
	c.FinalTotal = math.Max(0, c.Subtotal-c.TotalDiscount)
	c.UpdatedAt = time.Now()
}
