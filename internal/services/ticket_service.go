package services

import (
	"context"
	"fmt"
	"order_manager/internal/repository"
)

const (
	ticketPrefix        = "TK-"
	orderTicketSequence = "orders"
)

// TicketService hands out human-readable order tickets.
type TicketService interface {
	// NextTicket reserves the next ticket inside tx. The number is released
	// again if tx rolls back.
	NextTicket(ctx context.Context, tx repository.Tx) (string, error)
}

type ticketService struct{}

func NewTicketService() TicketService {
	return &ticketService{}
}

// NextTicket draws from the "orders" counter row. A missing row is seeded
// with the highest order id, so an empty database starts at TK-0001.
func (s *ticketService) NextTicket(ctx context.Context, tx repository.Tx) (string, error) {
	orders := tx.Orders()
	n, err := tx.Tickets().Next(ctx, orderTicketSequence, orders.MaxID)
	if err != nil {
		return "", fmt.Errorf("next ticket: %w", err)
	}
	return FormatTicket(n), nil
}

func FormatTicket(n int64) string {
	return fmt.Sprintf("%s%04d", ticketPrefix, n)
}
