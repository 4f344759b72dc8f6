package ratings

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// Repository defines rating persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, userID, productID uuid.UUID) (*models.Rating, error)
	Upsert(ctx context.Context, rating *models.Rating) error
	Aggregate(ctx context.Context, productID uuid.UUID) (mean decimal.Decimal, count int, err error)
	UpdateProductAggregate(ctx context.Context, productID uuid.UUID, rating decimal.Decimal, reviewCount int) error
}

type repo struct {
	db *gorm.DB
}

// NewRepository constructs a ratings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repo{db: tx}
}

func (r *repo) Find(ctx context.Context, userID, productID uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		First(&rating, "user_id = ? AND product_id = ?", userID, productID).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Upsert writes the rating, replacing any prior value from the same user.
func (r *repo) Upsert(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO ratings (user_id, product_id, value)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, rating.UserID, rating.ProductID, rating.Value).Error
}

func (r *repo) Aggregate(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int, error) {
	var row struct {
		Mean  sql.NullString `gorm:"column:mean"`
		Count int64          `gorm:"column:count"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("AVG(value) AS mean, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !row.Mean.Valid || row.Count == 0 {
		return decimal.Zero, 0, nil
	}
	mean, err := decimal.NewFromString(row.Mean.String)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return mean, int(row.Count), nil
}

func (r *repo) UpdateProductAggregate(ctx context.Context, productID uuid.UUID, rating decimal.Decimal, reviewCount int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]any{
			"rating":       rating,
			"review_count": reviewCount,
		}).Error
}
