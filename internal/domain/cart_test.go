package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id string, price float64, stock int) *Product {
	return &Product{
		ID:       id,
		Title:    "Product " + id,
		SKU:      "SKU-" + id,
		Price:    price,
		Currency: DefaultCurrency,
		Stock:    stock,
		IsActive: true,
	}
}

func testCoupon(code string, percent float64, products ...string) *Coupon {
	now := time.Now()
	return &Coupon{
		Code:               code,
		DiscountType:       DiscountTypePercentage,
		DiscountValue:      percent,
		ApplicableProducts: products,
		StartDate:          now.Add(-time.Hour),
		EndDate:            now.Add(time.Hour),
		IsActive:           true,
	}
}

func assertTotalsConsistent(t *testing.T, cart *Cart) {
	t.Helper()
	subtotal := 0.0
	for _, item := range cart.Items {
		assert.GreaterOrEqual(t, item.Quantity, 1, "no item may persist with quantity below 1")
		subtotal += item.PriceAtAdd * float64(item.Quantity)
	}
	assert.Equal(t, subtotal, cart.Subtotal)
	expected := cart.Subtotal - cart.TotalDiscount
	if expected < 0 {
		expected = 0
	}
	assert.Equal(t, expected, cart.FinalTotal)
	assert.GreaterOrEqual(t, cart.FinalTotal, 0.0)
}

func TestAddItemToEmptyCart(t *testing.T) {
	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(testProduct("p1", 299, 5), 2, 299)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 299.0, cart.Items[0].PriceAtAdd)
	assert.Equal(t, 598.0, cart.Subtotal)
	assert.Equal(t, 0.0, cart.TotalDiscount)
	assert.Equal(t, 598.0, cart.FinalTotal)
	assertTotalsConsistent(t, cart)
}

func TestAddSameProductIncrementsQuantity(t *testing.T) {
	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(testProduct("p1", 299, 5), 2, 299)

	// current catalog price changed; the locked price must not refresh
	cart.AddItem(testProduct("p1", 350, 5), 1, 350)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 299.0, cart.Items[0].PriceAtAdd)
	assert.Equal(t, 897.0, cart.Subtotal)
	assertTotalsConsistent(t, cart)
}

func TestApplyCouponComputesTotals(t *testing.T) {
	cart := NewCart(UserIdentity("u1"))
	cart.AddItem(testProduct("p1", 299, 5), 3, 299)

	coupon := testCoupon("SAVE20", 20, "p1")
	result := coupon.CalculateDiscount(cart.Items, time.Now())
	cart.ApplyCoupon(coupon, result)

	require.NotNil(t, cart.Coupon)
	assert.Equal(t, 179.0, cart.Coupon.DiscountAmount)
	assert.Equal(t, 897.0, cart.Subtotal)
	assert.Equal(t, 179.0, cart.TotalDiscount)
	assert.Equal(t, 718.0, cart.FinalTotal)
	assertTotalsConsistent(t, cart)
}

func TestApplyThenRemoveCouponRestoresTotals(t *testing.T) {
	cart := NewCart(UserIdentity("u1"))
	cart.AddItem(testProduct("p1", 299, 5), 3, 299)

	coupon := testCoupon("SAVE20", 20, "p1")
	cart.ApplyCoupon(coupon, coupon.CalculateDiscount(cart.Items, time.Now()))
	cart.RemoveCoupon()

	assert.Nil(t, cart.Coupon)
	assert.Equal(t, 0.0, cart.TotalDiscount)
	assert.Equal(t, cart.Subtotal, cart.FinalTotal)
	assertTotalsConsistent(t, cart)
}

func TestRemoveOnlyItemClearsCoupon(t *testing.T) {
	cart := NewCart(UserIdentity("u1"))
	cart.AddItem(testProduct("p1", 299, 5), 3, 299)

	coupon := testCoupon("SAVE20", 20, "p1")
	cart.ApplyCoupon(coupon, coupon.CalculateDiscount(cart.Items, time.Now()))

	removed, couponCleared := cart.RemoveItem(cart.Items[0].ID)
	assert.True(t, removed)
	assert.True(t, couponCleared)
	assert.Empty(t, cart.Items)
	assert.Nil(t, cart.Coupon)
	assert.Equal(t, 0.0, cart.Subtotal)
	assert.Equal(t, 0.0, cart.TotalDiscount)
	assert.Equal(t, 0.0, cart.FinalTotal)
}

func TestRemoveItemKeepsCouponWhileOverlapRemains(t *testing.T) {
	cart := NewCart(UserIdentity("u1"))
	cart.AddItem(testProduct("p1", 299, 5), 1, 299)
	cart.AddItem(testProduct("p2", 500, 5), 1, 500)

	coupon := testCoupon("SAVE20", 20, "p1")
	cart.ApplyCoupon(coupon, coupon.CalculateDiscount(cart.Items, time.Now()))

	// removing the non-covered item must keep the coupon
	var otherID string
	for _, item := range cart.Items {
		if item.ProductID == "p2" {
			otherID = item.ID
		}
	}
	_, couponCleared := cart.RemoveItem(otherID)
	assert.False(t, couponCleared)
	assert.NotNil(t, cart.Coupon)
}

func TestRemoveItemClearsCouponWithoutOverlap(t *testing.T) {
	cart := NewCart(UserIdentity("u1"))
	cart.AddItem(testProduct("p1", 299, 5), 1, 299)
	cart.AddItem(testProduct("p2", 500, 5), 1, 500)

	coupon := testCoupon("SAVE20", 20, "p1")
	cart.ApplyCoupon(coupon, coupon.CalculateDiscount(cart.Items, time.Now()))

	var coveredID string
	for _, item := range cart.Items {
		if item.ProductID == "p1" {
			coveredID = item.ID
		}
	}
	_, couponCleared := cart.RemoveItem(coveredID)
	assert.True(t, couponCleared)
	assert.Nil(t, cart.Coupon)
	require.Len(t, cart.Items, 1)
	assertTotalsConsistent(t, cart)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(testProduct("p1", 299, 5), 2, 299)
	cart.AddItem(testProduct("p2", 100, 5), 1, 100)

	itemID := cart.Items[0].ID
	removed, _ := cart.RemoveItem(itemID)
	require.True(t, removed)
	before := cart.FinalTotal

	removed, couponCleared := cart.RemoveItem(itemID)
	assert.False(t, removed)
	assert.False(t, couponCleared)
	assert.Equal(t, before, cart.FinalTotal)
}

func TestUpdateItemQuantity(t *testing.T) {
	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(testProduct("p1", 299, 5), 2, 299)
	itemID := cart.Items[0].ID

	found, _ := cart.UpdateItemQuantity(itemID, 4)
	assert.True(t, found)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 1196.0, cart.Subtotal)
	assertTotalsConsistent(t, cart)
}

func TestUpdateItemQuantityZeroRemoves(t *testing.T) {
	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(testProduct("p1", 299, 5), 2, 299)
	itemID := cart.Items[0].ID

	found, _ := cart.UpdateItemQuantity(itemID, 0)
	assert.True(t, found)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Subtotal)
}

func TestUpdateUnknownItemIsNoOp(t *testing.T) {
	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(testProduct("p1", 299, 5), 2, 299)

	found, _ := cart.UpdateItemQuantity("missing", 7)
	assert.False(t, found)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 598.0, cart.Subtotal)
}

func TestClearCart(t *testing.T) {
	cart := NewCart(UserIdentity("u1"))
	cart.AddItem(testProduct("p1", 299, 5), 2, 299)
	coupon := testCoupon("SAVE20", 20, "p1")
	cart.ApplyCoupon(coupon, coupon.CalculateDiscount(cart.Items, time.Now()))

	cart.Clear()

	assert.Empty(t, cart.Items)
	assert.Nil(t, cart.Coupon)
	assert.Equal(t, 0.0, cart.Subtotal)
	assert.Equal(t, 0.0, cart.TotalDiscount)
	assert.Equal(t, 0.0, cart.FinalTotal)
}

func TestMergeFromGuestCart(t *testing.T) {
	userCart := NewCart(UserIdentity("u1"))
	userCart.AddItem(testProduct("q1", 500, 5), 1, 500)
	coupon := testCoupon("SAVE20", 20, "q1")
	userCart.ApplyCoupon(coupon, coupon.CalculateDiscount(userCart.Items, time.Now()))

	guestCart := NewCart(GuestIdentity("sess-1"))
	guestCart.AddItem(testProduct("p1", 299, 5), 2, 299)

	userCart.MergeFrom(guestCart)

	require.Len(t, userCart.Items, 2)
	assert.Equal(t, 2, userCart.QuantityOf("p1"))
	assert.Equal(t, 1, userCart.QuantityOf("q1"))
	assert.Nil(t, userCart.Coupon, "merge must clear any applied coupon")
	assert.Equal(t, 1098.0, userCart.Subtotal)
	assertTotalsConsistent(t, userCart)
}

func TestMergeSumsQuantitiesAndTakesIncomingPrice(t *testing.T) {
	userCart := NewCart(UserIdentity("u1"))
	userCart.AddItem(testProduct("p1", 299, 10), 2, 299)

	guestCart := NewCart(GuestIdentity("sess-1"))
	guestCart.AddItem(testProduct("p1", 249, 10), 3, 249)

	userCart.MergeFrom(guestCart)

	require.Len(t, userCart.Items, 1)
	assert.Equal(t, 5, userCart.Items[0].Quantity)
	assert.Equal(t, 249.0, userCart.Items[0].PriceAtAdd, "the merged-in cart's price wins")
	assert.Equal(t, 1245.0, userCart.Subtotal)
}

func TestItemSnapshotCapturedAtAddTime(t *testing.T) {
	product := testProduct("p1", 299, 5)
	product.Image = "p1.jpg"
	product.Attributes = map[string]string{"color": "red"}

	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(product, 1, product.Price)

	item := cart.Items[0]
	assert.Equal(t, product.Title, item.Title)
	assert.Equal(t, product.SKU, item.SKU)
	assert.Equal(t, "p1.jpg", item.Image)
	assert.Equal(t, "red", item.Attributes["color"])
	assert.NotEmpty(t, item.ID)
}

func TestFinalTotalNeverNegative(t *testing.T) {
	cart := NewCart(UserIdentity("u1"))
	cart.AddItem(testProduct("p1", 100, 5), 1, 100)

	// a stale snapshot can exceed the remaining subtotal
	cart.Coupon = &AppliedCoupon{
		Code:               "BIG",
		DiscountType:       DiscountTypePercentage,
		DiscountValue:      100,
		DiscountAmount:     250,
		ApplicableProducts: []string{"p1"},
	}
	cart.recalculate()

	assert.Equal(t, 0.0, cart.FinalTotal)
}

func TestCloneIsDetached(t *testing.T) {
	product := testProduct("p1", 299, 10)
	product.Attributes = map[string]string{"color": "red"}

	cart := NewCart(GuestIdentity("sess-1"))
	cart.AddItem(product, 2, 299)
	coupon := testCoupon("SAVE20", 20, "p1")
	cart.ApplyCoupon(coupon, coupon.CalculateDiscount(cart.Items, time.Now()))

	clone := cart.Clone()
	require.NotSame(t, cart, clone)
	assert.Equal(t, cart.Subtotal, clone.Subtotal)
	assert.Equal(t, cart.FinalTotal, clone.FinalTotal)

	clone.UpdateItemQuantity(clone.Items[0].ID, 5)
	clone.Items[0].Attributes["color"] = "blue"
	clone.Coupon.ApplicableProducts[0] = "p9"

	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "red", cart.Items[0].Attributes["color"])
	assert.Equal(t, []string{"p1"}, cart.Coupon.ApplicableProducts)
	assert.Equal(t, 598.0, cart.Subtotal)
}
