package repository

import (
	"context"
	"order_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketRepository interface {
	// Next increments the named counter and returns the new value. When the
	// counter does not exist yet it is created with the value returned by seed.
	Next(ctx context.Context, name string, seed func(ctx context.Context) (int64, error)) (int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Next(ctx context.Context, name string, seed func(ctx context.Context) (int64, error)) (int64, error) {
	db := r.db.WithContext(ctx)

	affected, err := r.increment(db, name)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		start := int64(0)
		if seed != nil {
			if start, err = seed(ctx); err != nil {
				return 0, err
			}
		}
		counter := models.TicketCounter{Name: name, Value: start}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
			return 0, translate(err)
		}
		if _, err := r.increment(db, name); err != nil {
			return 0, err
		}
	}

	var counter models.TicketCounter
	if err := db.Where("name = ?", name).First(&counter).Error; err != nil {
		return 0, translate(err)
	}
	return counter.Value, nil
}

// increment takes the row lock that serializes concurrent callers until
// the surrounding transaction ends.
func (r *ticketRepository) increment(db *gorm.DB, name string) (int64, error) {
	result := db.Model(&models.TicketCounter{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + ?", 1))
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}
