package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a registered customer. Orders keep their own copy of the
// name and phone, so editing a client never rewrites past orders.
type Client struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Phone        string    `json:"phone" gorm:"size:20;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
