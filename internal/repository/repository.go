package repository

import (
	"context"

	"github.com/jafarshop/cartapi/internal/domain"
)

// CartRepository is the cart store contract: one document per identity with
// single-document atomicity, last successful write wins. No multi-document
// transactions are assumed.
type CartRepository interface {
	GetByIdentity(ctx context.Context, identity domain.Identity) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, identity domain.Identity) error
}

// CouponRepository is the coupon directory: read-mostly, admin-mutated
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Create(ctx context.Context, coupon *domain.Coupon) error
	Update(ctx context.Context, coupon *domain.Coupon) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context, limit, offset int) ([]*domain.Coupon, error)
}

// ProductRepository is the product catalog lookup consumed by this core.
// Stock is read, never written.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Repositories bundles all repositories for injection
type Repositories struct {
	Cart    CartRepository
	Coupon  CouponRepository
	Product ProductRepository
}
