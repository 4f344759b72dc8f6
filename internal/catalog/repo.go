package catalog

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rpalomino/storefront-backend/pkg/db/models"
)

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns products matching the filter in the requested order.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter)

	var products []models.Product
	if err := query.Order(orderClause(filter.SortBy)).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Search narrows List to rows whose title, description, or category contain the query.
func (r *Repository) Search(ctx context.Context, search string, filter ListFilter) ([]models.Product, error) {
	pattern := "%" + search + "%"
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter).
		Where("title ILIKE ? OR description ILIKE ? OR category ILIKE ?", pattern, pattern, pattern)

	var products []models.Product
	if err := query.Order(orderClause(filter.SortBy)).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Categories returns the distinct category labels in alphabetical order.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// PriceRange returns the min and max product price; found is false for an empty catalog.
func (r *Repository) PriceRange(ctx context.Context) (min, max decimal.Decimal, found bool, err error) {
	var row struct {
		Min sql.NullString `gorm:"column:min_price"`
		Max sql.NullString `gorm:"column:max_price"`
	}
	if err = r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("MIN(price) AS min_price, MAX(price) AS max_price").
		Scan(&row).Error; err != nil {
		return
	}
	if !row.Min.Valid || !row.Max.Valid {
		return
	}
	if min, err = decimal.NewFromString(row.Min.String); err != nil {
		return
	}
	if max, err = decimal.NewFromString(row.Max.String); err != nil {
		return
	}
	found = true
	return
}

func (r *Repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	return query
}

func orderClause(sortBy SortOption) string {
	switch sortBy {
	case SortPriceAsc:
		return "price ASC"
	case SortPriceDesc:
		return "price DESC"
	case SortRatingDesc:
		return "rating DESC"
	case SortReviews:
		return "review_count DESC"
	default:
		return "created_at DESC"
	}
}
