package repository

import (
	"context"
	"order_manager/internal/models"

	"gorm.io/gorm"
)

type OrderDetailRepository interface {
	CreateBatch(ctx context.Context, details []models.OrderDetail) error
}

type orderDetailRepository struct {
	db *gorm.DB
}

func NewOrderDetailRepository(db *gorm.DB) OrderDetailRepository {
	return &orderDetailRepository{db: db}
}

func (r *orderDetailRepository) CreateBatch(ctx context.Context, details []models.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Omit("Product").Create(&details).Error)
}
