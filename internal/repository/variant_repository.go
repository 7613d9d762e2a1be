package repository

import (
	"context"
	"order_manager/internal/models"

	"gorm.io/gorm"
)

type VariantRepository interface {
	Create(ctx context.Context, variant *models.ProductVariant) error
	CreateBatch(ctx context.Context, variants []models.ProductVariant) error
	GetForProduct(ctx context.Context, productID, variantID uint) (*models.ProductVariant, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) Create(ctx context.Context, variant *models.ProductVariant) error {
	return translate(r.db.WithContext(ctx).Create(variant).Error)
}

func (r *variantRepository) CreateBatch(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&variants).Error)
}

// GetForProduct only matches a variant that belongs to productID.
func (r *variantRepository) GetForProduct(ctx context.Context, productID, variantID uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).Where("id = ? AND product_id = ?", variantID, productID).First(&variant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &variant, nil
}

func (r *variantRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(&models.ProductVariant{ID: id}).Updates(fields).Error)
}

func (r *variantRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductVariant{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
