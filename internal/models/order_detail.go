package models

import (
	"github.com/shopspring/decimal"
)

// OrderDetail is a single line of an order. VariantName and UnitPrice are
// copies taken when the order was placed.
type OrderDetail struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"order_id" gorm:"not null;index"`
	ProductID   uint            `json:"product_id" gorm:"not null;index"`
	Product     *Product        `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	VariantName string          `json:"variant_name" gorm:"size:100;not null"`
	Quantity    int             `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
}

// LineSubtotal returns quantity * unitPrice without rounding.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SumSubtotals adds the subtotals of all details.
func SumSubtotals(details []OrderDetail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Subtotal)
	}
	return total
}
