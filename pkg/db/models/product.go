package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Rating and ReviewCount are a materialized cache
// of the ratings table and are rewritten synchronously on every rate call.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string          `gorm:"column:title;not null"`
	Description string          `gorm:"column:description;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Image       string          `gorm:"column:image;not null"`
	Category    string          `gorm:"column:category;not null;index"`
	Rating      decimal.Decimal `gorm:"column:rating;type:numeric(2,1);not null;default:0"`
	ReviewCount int             `gorm:"column:review_count;not null;default:0"`
	InStock     bool            `gorm:"column:in_stock;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
