package repository

import (
	"context"
	"order_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	CategoryID *uint
	ActiveOnly bool
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts the product row only; variants are written through
// VariantRepository once the product id is known.
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error)
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Variants", orderedVariants).First(&product, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Preload("Variants", orderedVariants).Order("id ASC")
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	products := []models.Product{}
	err := query.Find(&products).Error
	return products, translate(err)
}

func (r *productRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(&models.Product{ID: id}).Updates(fields).Error)
}

// Delete removes the product together with its variants.
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
		return translate(err)
	}
	result := db.Delete(&models.Product{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, translate(err)
}

func orderedVariants(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
