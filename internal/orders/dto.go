package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rpalomino/storefront-backend/internal/catalog"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// OrderItemDTO is one line of a placed order. Price is the unit price frozen
// at checkout time, not the product's current price.
type OrderItemDTO struct {
	ID       uuid.UUID           `json:"id"`
	Product  *catalog.ProductDTO `json:"product,omitempty"`
	Quantity int                 `json:"quantity"`
	Price    decimal.Decimal     `json:"price"`
}

// OrderDTO is an order as returned to the owning user.
type OrderDTO struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	Items     []OrderItemDTO  `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

func orderFromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, OrderItemDTO{
			ID:       item.ID,
			Product:  catalog.FromModel(item.Product),
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return &OrderDTO{
		ID:        o.ID,
		Status:    o.Status,
		Items:     items,
		Subtotal:  o.Subtotal,
		Tax:       o.Tax,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
	}
}

func ordersFromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *orderFromModel(&rows[i]))
	}
	return out
}
