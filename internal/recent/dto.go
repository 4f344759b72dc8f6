package recent

import (
	"time"

	"github.com/rpalomino/storefront-backend/internal/catalog"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// ItemDTO is one entry of a user's viewing history, newest first.
type ItemDTO struct {
	Product  *catalog.ProductDTO `json:"product,omitempty"`
	ViewedAt time.Time           `json:"viewed_at"`
}

func itemFromModel(rv *models.RecentlyViewed) *ItemDTO {
	if rv == nil {
		return nil
	}
	return &ItemDTO{
		Product:  catalog.FromModel(rv.Product),
		ViewedAt: rv.ViewedAt,
	}
}

func itemsFromModels(rows []models.RecentlyViewed) []ItemDTO {
	items := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *itemFromModel(&rows[i]))
	}
	return items
}
