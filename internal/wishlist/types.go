package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/rpalomino/storefront-backend/internal/catalog"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// ItemDTO is one wishlist entry joined to its product.
type ItemDTO struct {
	ID        uuid.UUID           `json:"id"`
	ProductID uuid.UUID           `json:"product_id"`
	Product   *catalog.ProductDTO `json:"product,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ToggleResult reports whether a toggle added or removed the product.
type ToggleResult struct {
	Added bool `json:"added"`
}

func itemFromModel(item *models.WishlistItem) *ItemDTO {
	if item == nil {
		return nil
	}
	return &ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Product:   catalog.FromModel(item.Product),
		CreatedAt: item.CreatedAt,
	}
}

func itemsFromModels(items []models.WishlistItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *itemFromModel(&items[i]))
	}
	return out
}
