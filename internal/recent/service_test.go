package recent

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/config"
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

type stubRecentRepo struct {
	finder *stubProductFinder
	rows   []models.RecentlyViewed
}

func (s *stubRecentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRecentRepo) Touch(ctx context.Context, userID, productID uuid.UUID, viewedAt time.Time) error {
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].ProductID == productID {
			s.rows[i].ViewedAt = viewedAt
			return nil
		}
	}
	s.rows = append(s.rows, models.RecentlyViewed{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		ViewedAt:  viewedAt,
	})
	return nil
}

func (s *stubRecentRepo) Trim(ctx context.Context, userID uuid.UUID, keep int) error {
	ordered := s.ordering(userID, uuid.Nil)
	if len(ordered) <= keep {
		return nil
	}
	evicted := map[uuid.UUID]bool{}
	for _, row := range ordered[keep:] {
		evicted[row.ID] = true
	}
	kept := s.rows[:0]
	for _, row := range s.rows {
		if !evicted[row.ID] {
			kept = append(kept, row)
		}
	}
	s.rows = kept
	return nil
}

func (s *stubRecentRepo) ListByUser(ctx context.Context, userID, exclude uuid.UUID, limit int) ([]models.RecentlyViewed, error) {
	ordered := s.ordering(userID, exclude)
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	for i := range ordered {
		if p, ok := s.finder.products[ordered[i].ProductID]; ok {
			ordered[i].Product = p
		}
	}
	return ordered, nil
}

func (s *stubRecentRepo) ordering(userID, exclude uuid.UUID) []models.RecentlyViewed {
	var out []models.RecentlyViewed
	for _, row := range s.rows {
		if row.UserID != userID || row.ProductID == exclude {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ViewedAt.Equal(out[j].ViewedAt) {
			return out[i].ViewedAt.After(out[j].ViewedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

type recentFixture struct {
	svc      *service
	repo     *stubRecentRepo
	products []uuid.UUID
}

func buildRecentFixture(t *testing.T, productCount int, cfg config.RecentConfig) *recentFixture {
	t.Helper()
	finder := &stubProductFinder{products: map[uuid.UUID]*models.Product{}}
	ids := make([]uuid.UUID, 0, productCount)
	for i := 0; i < productCount; i++ {
		id := uuid.New()
		finder.products[id] = &models.Product{ID: id, Title: "Product"}
		ids = append(ids, id)
	}
	repo := &stubRecentRepo{finder: finder}
	svc, err := NewService(repo, finder, stubTxRunner{}, cfg)
	if err != nil {
		t.Fatalf("new recent service: %v", err)
	}

	impl := svc.(*service)
	clock := time.Date(2026, 7, 5, 12, 0, 0, 0, time.UTC)
	impl.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return &recentFixture{svc: impl, repo: repo, products: ids}
}

func defaultRecentConfig() config.RecentConfig {
	return config.RecentConfig{HistoryLimit: 10, DefaultLimit: 5, MaxLimit: 20}
}

func TestTrackUnknownProductIsNotFound(t *testing.T) {
	f := buildRecentFixture(t, 0, defaultRecentConfig())

	err := f.svc.Track(context.Background(), uuid.New(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTrackMovesRepeatViewToFront(t *testing.T) {
	f := buildRecentFixture(t, 3, defaultRecentConfig())
	userID := uuid.New()

	for _, productID := range f.products {
		if err := f.svc.Track(context.Background(), userID, productID); err != nil {
			t.Fatalf("track: %v", err)
		}
	}
	// Viewing the first product again should not create a second row, just
	// promote it.
	if err := f.svc.Track(context.Background(), userID, f.products[0]); err != nil {
		t.Fatalf("re-track: %v", err)
	}

	items, err := f.svc.GetRecent(context.Background(), userID, uuid.Nil, 0)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Product.ID != f.products[0] {
		t.Fatalf("expected re-viewed product first, got %s", items[0].Product.ID)
	}
}

func TestTrackEvictsBeyondHistoryLimit(t *testing.T) {
	cfg := defaultRecentConfig()
	f := buildRecentFixture(t, cfg.HistoryLimit+3, cfg)
	userID := uuid.New()

	for _, productID := range f.products {
		if err := f.svc.Track(context.Background(), userID, productID); err != nil {
			t.Fatalf("track: %v", err)
		}
	}

	if got := len(f.repo.rows); got != cfg.HistoryLimit {
		t.Fatalf("expected %d stored rows, got %d", cfg.HistoryLimit, got)
	}

	items, err := f.svc.GetRecent(context.Background(), userID, uuid.Nil, cfg.MaxLimit)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(items) != cfg.HistoryLimit {
		t.Fatalf("expected %d items, got %d", cfg.HistoryLimit, len(items))
	}
	// The three oldest views must be gone; the latest view comes first.
	if items[0].Product.ID != f.products[len(f.products)-1] {
		t.Fatalf("expected newest view first, got %s", items[0].Product.ID)
	}
	evicted := map[uuid.UUID]bool{f.products[0]: true, f.products[1]: true, f.products[2]: true}
	for _, item := range items {
		if evicted[item.Product.ID] {
			t.Fatalf("product %s should have been evicted", item.Product.ID)
		}
	}
}

func TestGetRecentLimitDefaultsAndCaps(t *testing.T) {
	cfg := config.RecentConfig{HistoryLimit: 10, DefaultLimit: 3, MaxLimit: 6}
	f := buildRecentFixture(t, 10, cfg)
	userID := uuid.New()

	for _, productID := range f.products {
		if err := f.svc.Track(context.Background(), userID, productID); err != nil {
			t.Fatalf("track: %v", err)
		}
	}

	items, err := f.svc.GetRecent(context.Background(), userID, uuid.Nil, 0)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(items) != cfg.DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", cfg.DefaultLimit, len(items))
	}

	items, err = f.svc.GetRecent(context.Background(), userID, uuid.Nil, 50)
	if err != nil {
		t.Fatalf("get recent capped: %v", err)
	}
	if len(items) != cfg.MaxLimit {
		t.Fatalf("expected cap %d, got %d", cfg.MaxLimit, len(items))
	}
}

func TestGetRecentExcludesProduct(t *testing.T) {
	f := buildRecentFixture(t, 4, defaultRecentConfig())
	userID := uuid.New()

	for _, productID := range f.products {
		if err := f.svc.Track(context.Background(), userID, productID); err != nil {
			t.Fatalf("track: %v", err)
		}
	}

	excluded := f.products[2]
	items, err := f.svc.GetRecent(context.Background(), userID, excluded, 10)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for _, item := range items {
		if item.Product.ID == excluded {
			t.Fatalf("excluded product %s still listed", excluded)
		}
	}
}
