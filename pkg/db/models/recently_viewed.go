package models

import (
	"time"

	"github.com/google/uuid"
)

// RecentlyViewed records the last time a user looked at a product. At most the
// ten most recent rows survive per user; older ones are evicted on each track.
type RecentlyViewed struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:recently_viewed_user_id_idx;uniqueIndex:recently_viewed_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:recently_viewed_user_product_key"`
	ViewedAt  time.Time `gorm:"column:viewed_at;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
}
