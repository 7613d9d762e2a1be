package repository

import (
	"context"
	"order_manager/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	Status        *models.OrderStatus
	PaymentStatus *models.PaymentStatus
	Limit         int
	Offset        int
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
	MaxID(ctx context.Context) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order header only. Inside a transaction this is the
// flush step: the id is assigned while the transaction stays open, and the
// details are written separately by OrderDetailRepository.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error)
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Details", orderedDetails).First(&order, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Details", orderedDetails).Order("id DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	orders := []models.Order{}
	err := query.Find(&orders).Error
	return orders, translate(err)
}

// Update applies only the given columns. A nil value stores NULL.
func (r *orderRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Order{ID: id}).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	return nil
}

// Delete removes the order and its details. The explicit detail delete
// keeps the cascade working on databases without enforced foreign keys.
func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderDetail{}).Error; err != nil {
		return translate(err)
	}
	result := db.Delete(&models.Order{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("client_id = ?", clientID).Count(&count).Error
	return count, translate(err)
}

func (r *orderRepository) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	return maxID, translate(err)
}

func orderedDetails(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
