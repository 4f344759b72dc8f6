package recent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// Repository defines viewing-history persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Touch(ctx context.Context, userID, productID uuid.UUID, viewedAt time.Time) error
	Trim(ctx context.Context, userID uuid.UUID, keep int) error
	ListByUser(ctx context.Context, userID, exclude uuid.UUID, limit int) ([]models.RecentlyViewed, error)
}

type repo struct {
	db *gorm.DB
}

// NewRepository constructs a viewing-history repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repo{db: tx}
}

// Touch inserts the view or, if the user already viewed this product,
// refreshes its timestamp so the row moves back to the front of the history.
func (r *repo) Touch(ctx context.Context, userID, productID uuid.UUID, viewedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO recently_viewed (user_id, product_id, viewed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET viewed_at = EXCLUDED.viewed_at`,
		userID, productID, viewedAt,
	).Error
}

// Trim deletes every row of the user's history beyond the keep newest ones.
// Ordering matches ListByUser so the surviving rows are exactly the listed
// ones.
func (r *repo) Trim(ctx context.Context, userID uuid.UUID, keep int) error {
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM recently_viewed
		WHERE user_id = ?
		  AND id NOT IN (
			SELECT id FROM recently_viewed
			WHERE user_id = ?
			ORDER BY viewed_at DESC, id DESC
			LIMIT ?
		  )`,
		userID, userID, keep,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, userID, exclude uuid.UUID, limit int) ([]models.RecentlyViewed, error) {
	q := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID)
	if exclude != uuid.Nil {
		q = q.Where("product_id <> ?", exclude)
	}
	var rows []models.RecentlyViewed
	err := q.
		Order("viewed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
