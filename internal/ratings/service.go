package ratings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rpalomino/storefront-backend/pkg/errors"
)

const (
	minRating = 1
	maxRating = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service defines rating operations. The product's cached aggregate columns
// are recomputed from the ratings rows inside the same transaction as every
// write, so they cannot drift.
type Service interface {
	Rate(ctx context.Context, userID, productID uuid.UUID, value int) (*RateResult, error)
	GetUserRating(ctx context.Context, userID, productID uuid.UUID) (*RatingDTO, error)
	GetProductRating(ctx context.Context, productID uuid.UUID) (*ProductRatingDTO, error)
}

type service struct {
	repo     Repository
	products productFinder
	tx       txRunner
}

// NewService builds a ratings service with the required dependencies.
func NewService(repo Repository, products productFinder, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ratings repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

func (s *service) Rate(ctx context.Context, userID, productID uuid.UUID, value int) (*RateResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if value < minRating || value > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var result RateResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.products.FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if err := repo.Upsert(ctx, &models.Rating{
			UserID:    userID,
			ProductID: productID,
			Value:     value,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert rating")
		}

		mean, count, err := repo.Aggregate(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ratings")
		}
		rounded := roundRating(mean)

		if err := repo.UpdateProductAggregate(ctx, productID, rounded, count); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product aggregate")
		}

		stored, err := repo.Find(ctx, userID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload rating")
		}

		result = RateResult{
			Rating: *fromModel(stored),
			Product: ProductRatingDTO{
				ProductID:   productID,
				Rating:      rounded,
				ReviewCount: count,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) GetUserRating(ctx context.Context, userID, productID uuid.UUID) (*RatingDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rating, err := s.repo.Find(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rating")
	}
	return fromModel(rating), nil
}

func (s *service) GetProductRating(ctx context.Context, productID uuid.UUID) (*ProductRatingDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	mean, count, err := s.repo.Aggregate(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ratings")
	}
	return &ProductRatingDTO{
		ProductID:   productID,
		Rating:      roundRating(mean),
		ReviewCount: count,
	}, nil
}

// roundRating keeps one decimal, rounding halves away from zero.
func roundRating(mean decimal.Decimal) decimal.Decimal {
	return mean.Round(1)
}
