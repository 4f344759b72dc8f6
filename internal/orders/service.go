package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/internal/cart"
	"github.com/rpalomino/storefront-backend/pkg/config"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rpalomino/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service places and serves orders. Checkout converts the user's persisted
// cart into an immutable order in one transaction: totals are computed here
// from stored prices, client-supplied amounts are never trusted, and the cart
// is emptied only if the order insert succeeds.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*OrderDTO, error)
	GetAll(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo  Repository
	carts cart.Repository
	tx    txRunner
	cfg   config.CheckoutConfig
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, carts cart.Repository, tx txRunner, cfg config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative, got %s", cfg.TaxRate)
	}
	return &service{repo: repo, carts: carts, tx: tx, cfg: cfg}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		cartRepo := s.carts.WithTx(tx)

		userCart, err := cartRepo.FindCartWithItems(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		order, err := buildOrder(userID, userCart.Items, s.cfg.TaxRate)
		if err != nil {
			return err
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := cartRepo.DeleteItemsByCart(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orderFromModel(placed), nil
}

// buildOrder snapshots cart lines into order lines with the unit price frozen
// at its current catalog value, then derives subtotal, tax and total.
func buildOrder(userID uuid.UUID, items []models.CartItem, taxRate decimal.Decimal) (*models.Order, error) {
	subtotal := decimal.Zero
	lines := make([]models.OrderItem, 0, len(items))
	for i := range items {
		item := &items[i]
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart item missing product")
		}
		subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lines = append(lines, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
			Product:   item.Product,
		})
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	return &models.Order{
		UserID:   userID,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		Status:   models.OrderStatusCompleted,
		Items:    lines,
	}, nil
}

func (s *service) GetAll(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return ordersFromModels(rows), nil
}

// GetByID scopes the lookup to the requesting user, so an order id belonging
// to someone else is indistinguishable from a missing one.
func (s *service) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByUserAndID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return orderFromModel(order), nil
}

func (s *service) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	return count, nil
}
