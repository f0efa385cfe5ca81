package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, title, sku, image, attributes, price, currency, stock, is_active,
		       created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	var image sql.NullString
	var attributes []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Title,
		&product.SKU,
		&image,
		&attributes,
		&product.Price,
		&product.Currency,
		&product.Stock,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err))
		return nil, err
	}

	if image.Valid {
		product.Image = image.String
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &product.Attributes); err != nil {
			r.logger.Warn("Failed to decode product attributes", zap.String("product_id", id), zap.Error(err))
		}
	}

	return &product, nil
}
