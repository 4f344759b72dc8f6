package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one user's score for one product, upserted on re-rate. The ratings
// table is the source of truth for Product.Rating and Product.ReviewCount.
type Rating struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ratings_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:ratings_product_id_idx;uniqueIndex:ratings_user_product_key"`
	Value     int       `gorm:"column:value;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
