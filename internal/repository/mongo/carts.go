package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/pkg/errors"
)

// CartCollection is the mongo collection holding cart documents
const CartCollection = "carts"

type cartRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewCartRepository creates a cart repository over the given database.
// One document per identity; updates are single-document atomic, the last
// successful write wins.
func NewCartRepository(db *mongo.Database, logger *zap.Logger) *cartRepository {
	return &cartRepository{
		collection: db.Collection(CartCollection),
		logger:     logger,
	}
}

// ownerFilter keys the document by user id for registered users and by
// session id for guests
func ownerFilter(identity domain.Identity) bson.M {
	if identity.IsUser() {
		return bson.M{"user_id": identity.ID}
	}
	return bson.M{"session_id": identity.ID}
}

func (r *cartRepository) GetByIdentity(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	var cart domain.Cart

	err := r.collection.FindOne(ctx, ownerFilter(identity)).Decode(&cart)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &errors.ErrNotFound{Resource: "cart", ID: identity.ID}
		}
		r.logger.Error("Failed to get cart", zap.Error(err))
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	update := bson.M{"$set": bson.M{
		"user_id":        cart.UserID,
		"session_id":     cart.SessionID,
		"items":          cart.Items,
		"coupon":         cart.Coupon,
		"subtotal":       cart.Subtotal,
		"total_discount": cart.TotalDiscount,
		"final_total":    cart.FinalTotal,
		"currency":       cart.Currency,
		"updated_at":     cart.UpdatedAt,
	}, "$setOnInsert": bson.M{
		"created_at": cart.CreatedAt,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, ownerFilter(cart.Owner()), update, opts)
	if err != nil {
		r.logger.Error("Failed to save cart", zap.Error(err))
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

func (r *cartRepository) Delete(ctx context.Context, identity domain.Identity) error {
	_, err := r.collection.DeleteOne(ctx, ownerFilter(identity))
	if err != nil {
		r.logger.Error("Failed to delete cart", zap.Error(err))
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return nil
}
