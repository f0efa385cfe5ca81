package cache

import (
	"context"
	"errors"

	"github.com/jafarshop/cartapi/internal/domain"
)

// CartCache is a read cache in front of the cart store, keyed by identity
type CartCache interface {
	Get(ctx context.Context, identity domain.Identity) (*domain.Cart, error)
	Set(ctx context.Context, identity domain.Identity, cart *domain.Cart) error
	Delete(ctx context.Context, identity domain.Identity) error
}

var ErrCacheMiss = errors.New("cache miss")
