package services

import (
	"context"
	"errors"
	"fmt"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const moneyScale = 2

// maxMoney is the largest amount a decimal(10,2) column can hold.
var maxMoney = decimal.RequireFromString("99999999.99")

type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	UpdateOrder(ctx context.Context, id uint, patch OrderPatch) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uint) error
}

// OrderCache is an optional read cache in front of GetOrder.
type OrderCache interface {
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	SetOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id uint) error
}

type OrderLineInput struct {
	ProductID   uint            `json:"product_id"`
	VariantName string          `json:"variant_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateOrderInput struct {
	ClientID        *uuid.UUID           `json:"client_id"`
	ClientName      string               `json:"client_name"`
	Phone           string               `json:"phone"`
	DeliveryAddress string               `json:"delivery_address"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	Notes           *string              `json:"notes"`
	Details         []OrderLineInput     `json:"details"`
}

// OrderPatch carries the fields a caller may change after creation.
type OrderPatch struct {
	PaymentStatus Optional[models.PaymentStatus] `json:"payment_status"`
	Notes         Optional[string]               `json:"notes"`
}

type OrderServiceOptions struct {
	Cache  OrderCache
	Logger *zap.Logger
	// StrictPaymentTransitions limits payment updates to pending -> paid -> refunded.
	StrictPaymentTransitions bool
}

type orderService struct {
	store   repository.UnitOfWork
	tickets TicketService
	cache   OrderCache
	log     *zap.Logger
	strict  bool
}

func NewOrderService(store repository.UnitOfWork, tickets TicketService, opts OrderServiceOptions) OrderService {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &orderService{
		store:   store,
		tickets: tickets,
		cache:   opts.Cache,
		log:     log,
		strict:  opts.StrictPaymentTransitions,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Details) == 0 {
		return nil, NewValidationError("order must have at least one detail")
	}
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if input.ClientID != nil {
			if _, err := tx.Clients().GetByID(ctx, *input.ClientID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return NewNotFoundError("client", *input.ClientID)
				}
				return fmt.Errorf("load client: %w", err)
			}
		}

		if err := checkProductsOrderable(ctx, tx.Products(), input.Details); err != nil {
			return err
		}

		details, total := buildDetails(input.Details)

		ticket, err := s.tickets.NextTicket(ctx, tx)
		if err != nil {
			return err
		}

		order = &models.Order{
			TicketNumber:    ticket,
			ClientID:        input.ClientID,
			ClientName:      strings.TrimSpace(input.ClientName),
			Phone:           strings.TrimSpace(input.Phone),
			DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
			Status:          models.OrderPending,
			PaymentMethod:   input.PaymentMethod,
			PaymentStatus:   models.PaymentPending,
			Notes:           input.Notes,
			Total:           total,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return NewConflictError("ticket number %s already exists", ticket)
			}
			return fmt.Errorf("create order: %w", err)
		}

		for i := range details {
			details[i].OrderID = order.ID
		}
		if err := tx.OrderDetails().CreateBatch(ctx, details); err != nil {
			return fmt.Errorf("create order details: %w", err)
		}
		order.Details = details
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("ticket_number", order.TicketNumber),
		zap.String("total", order.Total.StringFixed(moneyScale)),
		zap.Int("lines", len(order.Details)),
	)
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, NewValidationError("invalid status %q", *filter.Status)
	}
	if filter.PaymentStatus != nil && !filter.PaymentStatus.Valid() {
		return nil, NewValidationError("invalid payment_status %q", *filter.PaymentStatus)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, NewValidationError("limit and offset must not be negative")
	}

	orders, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	if s.cache != nil {
		if order, err := s.cache.GetOrder(ctx, id); err == nil {
			return order, nil
		}
	}

	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("order", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.log.Warn("order cache write failed", zap.Uint("order_id", id), zap.Error(err))
		}
	}
	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id uint, patch OrderPatch) (*models.Order, error) {
	var updated *models.Order
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		order, err := loadOrder(ctx, tx.Orders(), id)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if patch.PaymentStatus.Set {
			next := patch.PaymentStatus.Value
			switch {
			case patch.PaymentStatus.Null:
				return NewValidationError("payment_status cannot be null")
			case !next.Valid():
				return NewValidationError("invalid payment_status %q", next)
			case s.strict && !order.PaymentStatus.CanTransitionTo(next):
				return NewValidationError("cannot change payment_status from %s to %s", order.PaymentStatus, next)
			}
			fields["payment_status"] = string(next)
		}
		if patch.Notes.Set {
			if patch.Notes.Null {
				fields["notes"] = nil
			} else {
				fields["notes"] = patch.Notes.Value
			}
		}

		if err := tx.Orders().Update(ctx, id, fields); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		updated, err = loadOrder(ctx, tx.Orders(), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return updated, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, NewValidationError("invalid status %q", status)
	}

	var (
		updated  *models.Order
		previous models.OrderStatus
	)
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		order, err := loadOrder(ctx, tx.Orders(), id)
		if err != nil {
			return err
		}
		previous = order.Status
		if !order.Status.CanTransitionTo(status) {
			return NewValidationError("cannot change status from %s to %s", order.Status, status)
		}

		if err := tx.Orders().Update(ctx, id, map[string]interface{}{"status": string(status)}); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		updated, err = loadOrder(ctx, tx.Orders(), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.log.Info("order status changed",
		zap.Uint("order_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	return updated, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id uint) error {
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if err := tx.Orders().Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewNotFoundError("order", id)
			}
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.log.Info("order deleted", zap.Uint("order_id", id))
	return nil
}

func (s *orderService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteOrder(ctx, id); err != nil {
		s.log.Warn("order cache invalidation failed", zap.Uint("order_id", id), zap.Error(err))
	}
}

func loadOrder(ctx context.Context, orders repository.OrderRepository, id uint) (*models.Order, error) {
	order, err := orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("order", id)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

func validateOrderInput(input CreateOrderInput) error {
	if strings.TrimSpace(input.ClientName) == "" {
		return NewValidationError("client_name is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return NewValidationError("phone is required")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return NewValidationError("delivery_address is required")
	}
	if !input.PaymentMethod.Valid() {
		return NewValidationError("invalid payment_method %q", input.PaymentMethod)
	}

	total := decimal.Zero
	for i, line := range input.Details {
		switch {
		case line.ProductID == 0:
			return NewValidationError("details[%d]: product_id is required", i)
		case strings.TrimSpace(line.VariantName) == "":
			return NewValidationError("details[%d]: variant_name is required", i)
		case line.Quantity <= 0:
			return NewValidationError("details[%d]: quantity must be greater than 0", i)
		case line.UnitPrice.IsNegative():
			return NewValidationError("details[%d]: unit_price must not be negative", i)
		case !line.UnitPrice.Equal(line.UnitPrice.Truncate(moneyScale)):
			return NewValidationError("details[%d]: unit_price must have at most %d decimals", i, moneyScale)
		}

		subtotal := models.LineSubtotal(line.Quantity, line.UnitPrice)
		if subtotal.GreaterThan(maxMoney) {
			return NewValidationError("details[%d]: subtotal exceeds %s", i, maxMoney.StringFixed(moneyScale))
		}
		total = total.Add(subtotal)
	}
	if total.GreaterThan(maxMoney) {
		return NewValidationError("order total exceeds %s", maxMoney.StringFixed(moneyScale))
	}
	return nil
}

// checkProductsOrderable verifies each distinct product once, in the order
// it first appears.
func checkProductsOrderable(ctx context.Context, products repository.ProductRepository, lines []OrderLineInput) error {
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}

		product, err := products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewNotFoundError("product", line.ProductID)
			}
			return fmt.Errorf("load product %d: %w", line.ProductID, err)
		}
		if !product.IsActive {
			return NewValidationError("product %d is not active", line.ProductID)
		}
	}
	return nil
}

func buildDetails(lines []OrderLineInput) ([]models.OrderDetail, decimal.Decimal) {
	details := make([]models.OrderDetail, 0, len(lines))
	for _, line := range lines {
		details = append(details, models.OrderDetail{
			ProductID:   line.ProductID,
			VariantName: strings.TrimSpace(line.VariantName),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    models.LineSubtotal(line.Quantity, line.UnitPrice),
		})
	}
	return details, models.SumSubtotals(details)
}
