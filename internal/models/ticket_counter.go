package models

import "time"

// TicketCounter holds the last issued value of a named ticket sequence.
type TicketCounter struct {
	Name      string `gorm:"primaryKey;size:50"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&Order{},
		&OrderDetail{},
		&TicketCounter{},
	}
}
