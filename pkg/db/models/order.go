package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatusCompleted is the only status checkout produces today; the column
// exists so future fulfillment states slot in without a migration of meaning.
const OrderStatusCompleted = "completed"

// Order is an immutable snapshot of a cart at checkout. Monetary columns are
// recomputed server side from persisted cart contents, never taken from the
// caller.
type Order struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax       decimal.Decimal `gorm:"column:tax;type:numeric(10,2);not null"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	Status    string          `gorm:"column:status;not null;default:completed"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}
