package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rpalomino/storefront-backend/pkg/errors"
)

// SortOption names the supported catalog orderings.
type SortOption string

const (
	SortPriceAsc   SortOption = "price_asc"
	SortPriceDesc  SortOption = "price_desc"
	SortRatingDesc SortOption = "rating_desc"
	SortReviews    SortOption = "reviews"
	SortNewest     SortOption = "newest"
)

// Fallback bounds reported when the catalog has no products.
const (
	emptyPriceRangeMin = 0
	emptyPriceRangeMax = 1000
)

// ListFilter narrows catalog queries.
type ListFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   SortOption
}

// Service defines the catalog read operations used by the controllers.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Search(ctx context.Context, query string, filter ListFilter) ([]ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
	PriceRange(ctx context.Context) (PriceRangeDTO, error)
}

type repository interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	Search(ctx context.Context, search string, filter ListFilter) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	PriceRange(ctx context.Context) (min, max decimal.Decimal, found bool, err error)
}

type service struct {
	repo repository
}

// NewService builds a catalog service over the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ParseSortOption validates a raw sort value, defaulting to newest.
func ParseSortOption(raw string) (SortOption, error) {
	switch SortOption(strings.TrimSpace(raw)) {
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	case SortRatingDesc:
		return SortRatingDesc, nil
	case SortReviews:
		return SortReviews, nil
	case SortNewest, "":
		return SortNewest, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid sort option")
	}
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return FromModels(products), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) Search(ctx context.Context, query string, filter ListFilter) ([]ProductDTO, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return s.List(ctx, filter)
	}
	products, err := s.repo.Search(ctx, trimmed, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return FromModels(products), nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *service) PriceRange(ctx context.Context) (PriceRangeDTO, error) {
	min, max, found, err := s.repo.PriceRange(ctx)
	if err != nil {
		return PriceRangeDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price range")
	}
	if !found {
		return PriceRangeDTO{Min: emptyPriceRangeMin, Max: emptyPriceRangeMax}, nil
	}
	return PriceRangeDTO{
		Min: min.Floor().IntPart(),
		Max: max.Ceil().IntPart(),
	}, nil
}

func validateFilter(filter ListFilter) error {
	if filter.MinPrice != nil && filter.MinPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min price cannot be negative")
	}
	if filter.MaxPrice != nil && filter.MaxPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "max price cannot be negative")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "min price cannot exceed max price")
	}
	return nil
}
