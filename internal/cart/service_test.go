package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rpalomino/storefront-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProductFinder struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProductFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubCartRepo struct {
	carts    map[uuid.UUID]*models.Cart // by user id
	items    map[uuid.UUID]*models.CartItem
	products map[uuid.UUID]*models.Product
}

func newStubCartRepo(products map[uuid.UUID]*models.Product) *stubCartRepo {
	return &stubCartRepo{
		carts:    map[uuid.UUID]*models.Cart{},
		items:    map[uuid.UUID]*models.CartItem{},
		products: products,
	}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if cart, ok := s.carts[userID]; ok {
		return cart, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindCartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, ok := s.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	loaded := *cart
	loaded.Items = nil
	for _, item := range s.items {
		if item.CartID != cart.ID {
			continue
		}
		withProduct := *item
		if p, ok := s.products[item.ProductID]; ok {
			withProduct.Product = p
		}
		loaded.Items = append(loaded.Items, withProduct)
	}
	return &loaded, nil
}

func (s *stubCartRepo) CreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{ID: uuid.New(), UserID: userID, UpdatedAt: time.Now()}
	s.carts[userID] = cart
	return cart, nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	if item, ok := s.items[itemID]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindItemByCartProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	for _, item := range s.items {
		if item.CartID == cartID && item.ProductID == productID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindItemWithProduct(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	withProduct := *item
	if p, ok := s.products[item.ProductID]; ok {
		withProduct.Product = p
	}
	return &withProduct, nil
}

func (s *stubCartRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	stored := *item
	s.items[item.ID] = &stored
	return nil
}

func (s *stubCartRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if item, ok := s.items[itemID]; ok {
		item.Quantity = quantity
	}
	return nil
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubCartRepo) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range s.items {
		if item.CartID == cartID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *stubCartRepo) SumQuantities(ctx context.Context, cartID uuid.UUID) (int, error) {
	total := 0
	for _, item := range s.items {
		if item.CartID == cartID {
			total += item.Quantity
		}
	}
	return total, nil
}

func buildCartService(t *testing.T, products map[uuid.UUID]*models.Product) (Service, *stubCartRepo) {
	t.Helper()
	repo := newStubCartRepo(products)
	svc, err := NewService(repo, &stubProductFinder{products: products}, stubTxRunner{})
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	return svc, repo
}

func sampleProducts() (map[uuid.UUID]*models.Product, uuid.UUID, uuid.UUID) {
	deskID := uuid.New()
	lampID := uuid.New()
	products := map[uuid.UUID]*models.Product{
		deskID: {ID: deskID, Title: "Walnut Desk", Price: decimal.RequireFromString("10.00")},
		lampID: {ID: lampID, Title: "Brass Lamp", Price: decimal.RequireFromString("2.50")},
	}
	return products, deskID, lampID
}

func TestGetLazilyCreatesCart(t *testing.T) {
	products, _, _ := sampleProducts()
	svc, repo := buildCartService(t, products)
	userID := uuid.New()

	cart, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(cart.Items) != 0 || cart.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
	if !cart.Subtotal.IsZero() {
		t.Fatalf("expected zero subtotal, got %s", cart.Subtotal)
	}
	if _, ok := repo.carts[userID]; !ok {
		t.Fatalf("expected cart row to be created")
	}
}

func TestAddMergesDuplicateProduct(t *testing.T) {
	products, deskID, _ := sampleProducts()
	svc, repo := buildCartService(t, products)
	userID := uuid.New()

	first, err := svc.Add(context.Background(), userID, deskID, 2)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := svc.Add(context.Background(), userID, deskID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected merge into one row, got %s and %s", first.ID, second.ID)
	}
	if second.Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", second.Quantity)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected a single cart item row, got %d", len(repo.items))
	}
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	products, deskID, _ := sampleProducts()
	svc, _ := buildCartService(t, products)

	item, err := svc.Add(context.Background(), uuid.New(), deskID, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", item.Quantity)
	}
}

func TestAddUnknownProductIsNotFound(t *testing.T) {
	products, _, _ := sampleProducts()
	svc, _ := buildCartService(t, products)

	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), 1)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubtotalSumsPriceTimesQuantity(t *testing.T) {
	products, deskID, lampID := sampleProducts()
	svc, _ := buildCartService(t, products)
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, deskID, 2); err != nil {
		t.Fatalf("add desk: %v", err)
	}
	if _, err := svc.Add(context.Background(), userID, lampID, 2); err != nil {
		t.Fatalf("add lamp: %v", err)
	}

	cart, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	want := decimal.RequireFromString("25.00")
	if !cart.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, cart.Subtotal)
	}
	if cart.TotalItems != 4 {
		t.Fatalf("expected 4 total items, got %d", cart.TotalItems)
	}
}

func TestUpdateQuantityRejectsBelowOne(t *testing.T) {
	products, deskID, _ := sampleProducts()
	svc, repo := buildCartService(t, products)
	userID := uuid.New()

	item, err := svc.Add(context.Background(), userID, deskID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = svc.UpdateQuantity(context.Background(), userID, item.ID, 0)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.items[item.ID].Quantity != 2 {
		t.Fatalf("quantity must be untouched after rejected update")
	}
}

func TestUpdateQuantityOverwrites(t *testing.T) {
	products, deskID, _ := sampleProducts()
	svc, _ := buildCartService(t, products)
	userID := uuid.New()

	item, err := svc.Add(context.Background(), userID, deskID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	updated, err := svc.UpdateQuantity(context.Background(), userID, item.ID, 7)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if updated.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", updated.Quantity)
	}
}

func TestRemoveRejectsForeignItem(t *testing.T) {
	products, deskID, _ := sampleProducts()
	svc, _ := buildCartService(t, products)
	owner := uuid.New()
	intruder := uuid.New()

	item, err := svc.Add(context.Background(), owner, deskID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// the intruder needs a cart of their own for the ownership check to run
	if _, err := svc.Get(context.Background(), intruder); err != nil {
		t.Fatalf("get intruder cart: %v", err)
	}

	err = svc.Remove(context.Background(), intruder, item.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign item, got %v", err)
	}

	if err := svc.Remove(context.Background(), owner, item.ID); err != nil {
		t.Fatalf("owner remove: %v", err)
	}
}

func TestClearAndCount(t *testing.T) {
	products, deskID, lampID := sampleProducts()
	svc, _ := buildCartService(t, products)
	userID := uuid.New()

	// count without a cart never creates one
	count, err := svc.Count(context.Background(), userID)
	if err != nil || count != 0 {
		t.Fatalf("expected zero count, got %d err=%v", count, err)
	}

	if _, err := svc.Add(context.Background(), userID, deskID, 3); err != nil {
		t.Fatalf("add desk: %v", err)
	}
	if _, err := svc.Add(context.Background(), userID, lampID, 1); err != nil {
		t.Fatalf("add lamp: %v", err)
	}

	count, err = svc.Count(context.Background(), userID)
	if err != nil || count != 4 {
		t.Fatalf("expected count 4, got %d err=%v", count, err)
	}

	if err := svc.Clear(context.Background(), userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	count, err = svc.Count(context.Background(), userID)
	if err != nil || count != 0 {
		t.Fatalf("expected count 0 after clear, got %d err=%v", count, err)
	}

	// clearing with no cart is a no-op
	if err := svc.Clear(context.Background(), uuid.New()); err != nil {
		t.Fatalf("clear without cart: %v", err)
	}
}
