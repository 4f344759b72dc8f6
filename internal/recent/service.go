package recent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/config"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rpalomino/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service tracks product views and serves the per-user history. The history
// is bounded: each track evicts rows beyond the configured limit, so the
// table never grows past HistoryLimit rows per user.
type Service interface {
	Track(ctx context.Context, userID, productID uuid.UUID) error
	GetRecent(ctx context.Context, userID, exclude uuid.UUID, limit int) ([]ItemDTO, error)
}

type service struct {
	repo     Repository
	products productFinder
	tx       txRunner
	cfg      config.RecentConfig
	now      func() time.Time
}

// NewService builds a viewing-history service with the required dependencies.
func NewService(repo Repository, products productFinder, tx txRunner, cfg config.RecentConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recently-viewed repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.HistoryLimit < 1 {
		return nil, fmt.Errorf("history limit must be positive, got %d", cfg.HistoryLimit)
	}
	if cfg.DefaultLimit < 1 || cfg.MaxLimit < cfg.DefaultLimit {
		return nil, fmt.Errorf("invalid listing limits: default %d, max %d", cfg.DefaultLimit, cfg.MaxLimit)
	}
	return &service{
		repo:     repo,
		products: products,
		tx:       tx,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func (s *service) Track(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Touch(ctx, userID, productID, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record view")
		}
		if err := repo.Trim(ctx, userID, s.cfg.HistoryLimit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "trim history")
		}
		return nil
	})
}

func (s *service) GetRecent(ctx context.Context, userID, exclude uuid.UUID, limit int) ([]ItemDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	rows, err := s.repo.ListByUser(ctx, userID, exclude, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list viewing history")
	}
	return itemsFromModels(rows), nil
}
