package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/internal/cart"
	"github.com/rpalomino/storefront-backend/pkg/config"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rpalomino/storefront-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// stubCartStore embeds cart.Repository so only the methods checkout touches
// need real implementations.
type stubCartStore struct {
	cart.Repository
	cart *models.Cart
}

func (s *stubCartStore) WithTx(tx *gorm.DB) cart.Repository { return s }

func (s *stubCartStore) FindCartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.cart == nil || s.cart.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartStore) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	if s.cart != nil && s.cart.ID == cartID {
		s.cart.Items = nil
	}
	return nil
}

type stubOrderRepo struct {
	orders []models.Order
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now().UTC()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	s.orders = append(s.orders, *order)
	return nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

func (s *stubOrderRepo) FindByUserAndID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	for i := range s.orders {
		if s.orders[i].UserID == userID && s.orders[i].ID == orderID {
			return &s.orders[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for i := range s.orders {
		if s.orders[i].UserID == userID {
			count++
		}
	}
	return count, nil
}

func product(price string) *models.Product {
	return &models.Product{
		ID:    uuid.New(),
		Title: "Product",
		Price: decimal.RequireFromString(price),
	}
}

func cartWith(userID uuid.UUID, lines ...models.CartItem) *models.Cart {
	c := &models.Cart{ID: uuid.New(), UserID: userID, Items: lines}
	for i := range c.Items {
		c.Items[i].ID = uuid.New()
		c.Items[i].CartID = c.ID
	}
	return c
}

func buildOrderService(t *testing.T, userCart *models.Cart) (Service, *stubOrderRepo, *stubCartStore) {
	t.Helper()
	repo := &stubOrderRepo{}
	carts := &stubCartStore{cart: userCart}
	svc, err := NewService(repo, carts, stubTxRunner{}, config.CheckoutConfig{
		TaxRate: decimal.RequireFromString("0.08"),
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc, repo, carts
}

func TestCheckoutComputesTotalsServerSide(t *testing.T) {
	userID := uuid.New()
	desk := product("10.00")
	lamp := product("5.00")
	userCart := cartWith(userID,
		models.CartItem{ProductID: desk.ID, Quantity: 2, Product: desk},
		models.CartItem{ProductID: lamp.ID, Quantity: 1, Product: lamp},
	)
	svc, repo, _ := buildOrderService(t, userCart)

	order, err := svc.Checkout(context.Background(), userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if !order.Subtotal.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("expected subtotal 25.00, got %s", order.Subtotal)
	}
	if !order.Tax.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected tax 2.00, got %s", order.Tax)
	}
	if !order.Total.Equal(decimal.RequireFromString("27.00")) {
		t.Fatalf("expected total 27.00, got %s", order.Total)
	}
	if order.Status != models.OrderStatusCompleted {
		t.Fatalf("expected status %q, got %q", models.OrderStatusCompleted, order.Status)
	}
	if len(repo.orders) != 1 {
		t.Fatalf("expected one persisted order, got %d", len(repo.orders))
	}
}

func TestCheckoutEmptiesCartAtomically(t *testing.T) {
	userID := uuid.New()
	desk := product("10.00")
	userCart := cartWith(userID, models.CartItem{ProductID: desk.ID, Quantity: 1, Product: desk})
	svc, _, carts := buildOrderService(t, userCart)

	if _, err := svc.Checkout(context.Background(), userID); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(carts.cart.Items) != 0 {
		t.Fatalf("expected cart emptied, got %d items", len(carts.cart.Items))
	}

	// A second checkout against the now-empty cart must fail.
	_, err := svc.Checkout(context.Background(), userID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on empty cart, got %v", err)
	}
}

func TestCheckoutWithoutCartIsRejected(t *testing.T) {
	svc, _, _ := buildOrderService(t, nil)

	_, err := svc.Checkout(context.Background(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderPricesAreFrozen(t *testing.T) {
	userID := uuid.New()
	desk := product("10.00")
	userCart := cartWith(userID, models.CartItem{ProductID: desk.ID, Quantity: 1, Product: desk})
	svc, _, _ := buildOrderService(t, userCart)

	placed, err := svc.Checkout(context.Background(), userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// A later catalog price change must not leak into the stored order.
	desk.Price = decimal.RequireFromString("99.99")

	reloaded, err := svc.GetByID(context.Background(), userID, placed.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !reloaded.Items[0].Price.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected frozen price 10.00, got %s", reloaded.Items[0].Price)
	}
	if !reloaded.Total.Equal(decimal.RequireFromString("10.80")) {
		t.Fatalf("expected total 10.80, got %s", reloaded.Total)
	}
}

func TestGetByIDIsOwnerScoped(t *testing.T) {
	userID := uuid.New()
	desk := product("10.00")
	userCart := cartWith(userID, models.CartItem{ProductID: desk.ID, Quantity: 1, Product: desk})
	svc, _, _ := buildOrderService(t, userCart)

	placed, err := svc.Checkout(context.Background(), userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	_, err = svc.GetByID(context.Background(), uuid.New(), placed.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestGetAllAndCount(t *testing.T) {
	userID := uuid.New()
	desk := product("10.00")
	svc, _, carts := buildOrderService(t, cartWith(userID,
		models.CartItem{ProductID: desk.ID, Quantity: 1, Product: desk},
	))

	if _, err := svc.Checkout(context.Background(), userID); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	// Refill and check out again.
	carts.cart = cartWith(userID, models.CartItem{ProductID: desk.ID, Quantity: 2, Product: desk})
	if _, err := svc.Checkout(context.Background(), userID); err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	all, err := svc.GetAll(context.Background(), userID)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
	// Newest first.
	if !all[0].Subtotal.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected newest order first, got subtotal %s", all[0].Subtotal)
	}

	count, err := svc.Count(context.Background(), userID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}
