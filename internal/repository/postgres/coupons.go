package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/domain"
	"github.com/jafarshop/cartapi/pkg/errors"
)

type couponRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *sql.DB, logger *zap.Logger) *couponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, applicable_products,
		       start_date, end_date, is_active, max_usage, usage_count,
		       created_at, updated_at
		FROM coupons
		WHERE code = $1
	`

	code = domain.NormalizeCouponCode(code)

	var coupon domain.Coupon
	var maxUsage sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		pq.Array(&coupon.ApplicableProducts),
		&coupon.StartDate,
		&coupon.EndDate,
		&coupon.IsActive,
		&maxUsage,
		&coupon.UsageCount,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: code}
	}
	if err != nil {
		r.logger.Error("Failed to get coupon by code", zap.Error(err))
		return nil, err
	}

	if maxUsage.Valid {
		m := int(maxUsage.Int64)
		coupon.MaxUsage = &m
	}

	return &coupon, nil
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, discount_type, discount_value, applicable_products,
		                     start_date, end_date, is_active, max_usage, usage_count,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = now
	}
	if coupon.UpdatedAt.IsZero() {
		coupon.UpdatedAt = now
	}
	coupon.Code = domain.NormalizeCouponCode(coupon.Code)

	var maxUsage sql.NullInt64
	if coupon.MaxUsage != nil {
		maxUsage = sql.NullInt64{Int64: int64(*coupon.MaxUsage), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.DiscountType,
		coupon.DiscountValue,
		pq.Array(coupon.ApplicableProducts),
		coupon.StartDate,
		coupon.EndDate,
		coupon.IsActive,
		maxUsage,
		coupon.UsageCount,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create coupon", zap.Error(err))
		return err
	}

	return nil
}

func (r *couponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		UPDATE coupons
		SET discount_type = $2, discount_value = $3, applicable_products = $4,
		    start_date = $5, end_date = $6, is_active = $7, max_usage = $8,
		    updated_at = $9
		WHERE code = $1
	`

	coupon.Code = domain.NormalizeCouponCode(coupon.Code)
	coupon.UpdatedAt = time.Now()

	var maxUsage sql.NullInt64
	if coupon.MaxUsage != nil {
		maxUsage = sql.NullInt64{Int64: int64(*coupon.MaxUsage), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query,
		coupon.Code,
		coupon.DiscountType,
		coupon.DiscountValue,
		pq.Array(coupon.ApplicableProducts),
		coupon.StartDate,
		coupon.EndDate,
		coupon.IsActive,
		maxUsage,
		coupon.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update coupon", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return &errors.ErrNotFound{Resource: "coupon", ID: coupon.Code}
	}

	return nil
}

func (r *couponRepository) Delete(ctx context.Context, code string) error {
	code = domain.NormalizeCouponCode(code)

	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	if err != nil {
		r.logger.Error("Failed to delete coupon", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return &errors.ErrNotFound{Resource: "coupon", ID: code}
	}

	return nil
}

func (r *couponRepository) List(ctx context.Context, limit, offset int) ([]*domain.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, applicable_products,
		       start_date, end_date, is_active, max_usage, usage_count,
		       created_at, updated_at
		FROM coupons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var coupons []*domain.Coupon
	for rows.Next() {
		var coupon domain.Coupon
		var maxUsage sql.NullInt64

		err := rows.Scan(
			&coupon.ID,
			&coupon.Code,
			&coupon.DiscountType,
			&coupon.DiscountValue,
			pq.Array(&coupon.ApplicableProducts),
			&coupon.StartDate,
			&coupon.EndDate,
			&coupon.IsActive,
			&maxUsage,
			&coupon.UsageCount,
			&coupon.CreatedAt,
			&coupon.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan coupon row", zap.Error(err))
			continue
		}

		if maxUsage.Valid {
			m := int(maxUsage.Int64)
			coupon.MaxUsage = &m
		}

		coupons = append(coupons, &coupon)
	}

	return coupons, rows.Err()
}
