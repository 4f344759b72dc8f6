package ratings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// RatingDTO is one user's rating of a product.
type RatingDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductRatingDTO is the aggregate over all ratings of a product.
type ProductRatingDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"review_count"`
}

// RateResult returns the stored rating plus the fresh aggregate.
type RateResult struct {
	Rating  RatingDTO        `json:"rating"`
	Product ProductRatingDTO `json:"product"`
}

func fromModel(r *models.Rating) *RatingDTO {
	if r == nil {
		return nil
	}
	return &RatingDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		Value:     r.Value,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
