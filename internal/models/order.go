package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	TicketNumber    string          `json:"ticket_number" gorm:"size:50;uniqueIndex;not null"`
	ClientID        *uuid.UUID      `json:"client_id" gorm:"type:uuid;index"`
	Client          *Client         `json:"-" gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
	ClientName      string          `json:"client_name" gorm:"size:150;not null"`
	Phone           string          `json:"phone" gorm:"size:20;not null"`
	DeliveryAddress string          `json:"delivery_address" gorm:"type:text;not null"`
	Status          OrderStatus     `json:"status" gorm:"size:20;not null;default:'pending';index"`
	PaymentMethod   PaymentMethod   `json:"payment_method" gorm:"size:20;not null"`
	PaymentStatus   PaymentStatus   `json:"payment_status" gorm:"size:20;not null;default:'pending'"`
	Notes           *string         `json:"notes" gorm:"type:text"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	Details         []OrderDetail   `json:"details" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderStatus is the operational state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderPreparing  OrderStatus = "preparing"
	OrderDelivering OrderStatus = "delivering"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderDelivering, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// orderFlow maps each non-terminal status to the next one in the delivery flow.
var orderFlow = map[OrderStatus]OrderStatus{
	OrderPending:    OrderConfirmed,
	OrderConfirmed:  OrderPreparing,
	OrderPreparing:  OrderDelivering,
	OrderDelivering: OrderDelivered,
}

// CanTransitionTo reports whether an order in status s may move to next.
// Orders advance one step at a time and may be cancelled from any
// non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return orderFlow[s] == next
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionTo applies the strict payment table: pending -> paid -> refunded.
// Staying in the same status is always allowed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return next.Valid()
	}
	switch s {
	case PaymentPending:
		return next == PaymentPaid
	case PaymentPaid:
		return next == PaymentRefunded
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}
