package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rpalomino/storefront-backend/internal/catalog"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// CartItemDTO is one cart line joined to its product.
type CartItemDTO struct {
	ID        uuid.UUID           `json:"id"`
	ProductID uuid.UUID           `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	Product   *catalog.ProductDTO `json:"product,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CartDTO is the whole cart with derived totals.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	Items      []CartItemDTO   `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"total_items"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func itemFromModel(item *models.CartItem) *CartItemDTO {
	if item == nil {
		return nil
	}
	return &CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Product:   catalog.FromModel(item.Product),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func cartFromModel(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(cart.Items))
	subtotal := decimal.Zero
	totalItems := 0
	for i := range cart.Items {
		item := &cart.Items[i]
		items = append(items, *itemFromModel(item))
		totalItems += item.Quantity
		if item.Product != nil {
			subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return &CartDTO{
		ID:         cart.ID,
		Items:      items,
		Subtotal:   subtotal,
		TotalItems: totalItems,
		UpdatedAt:  cart.UpdatedAt,
	}
}
