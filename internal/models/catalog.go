package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description *string   `json:"description" gorm:"type:text"`
	Products    []Product `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	CategoryID  uint             `json:"category_id" gorm:"not null;index"`
	Name        string           `json:"name" gorm:"size:200;not null"`
	Description *string          `json:"description" gorm:"type:text"`
	IsActive    bool             `json:"is_active" gorm:"not null"`
	Variants    []ProductVariant `json:"variants" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ProductVariant struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
}
