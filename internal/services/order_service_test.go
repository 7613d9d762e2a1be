package services

import (
	"context"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateOrderComputesTotalAndTicket(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()

	order, err := f.service.CreateOrder(ctx, f.input(
		f.line(2, "Large", "5.50"),
		f.line(1, "Small", "8.00"),
	))
	require.NoError(t, err)

	assert.Equal(t, "TK-0001", order.TicketNumber)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "19.00", order.Total.StringFixed(2))
	require.Len(t, order.Details, 2)
	assert.Equal(t, "11.00", order.Details[0].Subtotal.StringFixed(2))
	assert.Equal(t, "8.00", order.Details[1].Subtotal.StringFixed(2))
	for _, d := range order.Details {
		assert.NotZero(t, d.ID)
		assert.Equal(t, order.ID, d.OrderID)
	}

	stored, err := f.service.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(money("19")))
	require.Len(t, stored.Details, 2)
	assert.Equal(t, "Large", stored.Details[0].VariantName)

	second := f.create(t)
	assert.Equal(t, "TK-0002", second.TicketNumber)
}

func TestCreateOrderRejectsEmptyDetails(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})

	_, err := f.service.CreateOrder(context.Background(), f.input())
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "order must have at least one detail", err.Error())
	assert.Zero(t, countRows(t, f.db, &models.Order{}))

	assert.Equal(t, "TK-0001", f.create(t).TicketNumber)
}

func TestCreateOrderUnknownProductPersistsNothing(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})

	input := f.input(
		f.line(1, "Small", "8.00"),
		OrderLineInput{ProductID: 9999, VariantName: "Any", Quantity: 1, UnitPrice: money("1.00")},
	)
	_, err := f.service.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "9999")

	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Zero(t, countRows(t, f.db, &models.OrderDetail{}))
	assert.Equal(t, "TK-0001", f.create(t).TicketNumber)
}

func TestCreateOrderInactiveProductPersistsNothing(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})

	input := f.input(OrderLineInput{ProductID: f.inactive.ID, VariantName: "Cup", Quantity: 1, UnitPrice: money("2.00")})
	_, err := f.service.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "not active")

	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Zero(t, countRows(t, f.db, &models.OrderDetail{}))
}

func TestCreateOrderValidatesInput(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()

	cases := map[string]func(in *CreateOrderInput){
		"blank client name":   func(in *CreateOrderInput) { in.ClientName = "  " },
		"blank phone":         func(in *CreateOrderInput) { in.Phone = "" },
		"blank address":       func(in *CreateOrderInput) { in.DeliveryAddress = "" },
		"unknown method":      func(in *CreateOrderInput) { in.PaymentMethod = "crypto" },
		"zero quantity":       func(in *CreateOrderInput) { in.Details[0].Quantity = 0 },
		"negative price":      func(in *CreateOrderInput) { in.Details[0].UnitPrice = money("-1.00") },
		"three decimal price": func(in *CreateOrderInput) { in.Details[0].UnitPrice = money("1.005") },
		"blank variant":       func(in *CreateOrderInput) { in.Details[0].VariantName = "" },
		"subtotal overflow": func(in *CreateOrderInput) {
			in.Details[0].Quantity = 1000000
			in.Details[0].UnitPrice = money("1000.00")
		},
		"total overflow": func(in *CreateOrderInput) {
			in.Details[0].UnitPrice = money("60000000.00")
			in.Details = append(in.Details, in.Details[0])
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := f.input(f.line(1, "Small", "8.00"))
			mutate(&input)
			_, err := f.service.CreateOrder(ctx, input)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
}

func TestCreateOrderAcceptsLargestTotal(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})

	order, err := f.service.CreateOrder(context.Background(), f.input(
		f.line(1, "Large", "99999999.00"),
		f.line(1, "Small", "0.99"),
	))
	require.NoError(t, err)
	assert.Equal(t, "99999999.99", order.Total.StringFixed(2))
}

func TestCreateOrderChecksClient(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()

	input := f.input(f.line(1, "Small", "8.00"))
	missing := uuid.New()
	input.ClientID = &missing
	_, err := f.service.CreateOrder(ctx, input)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	client := &models.Client{Email: "ana@example.com", Name: "Ana", Phone: "555", PasswordHash: "x"}
	require.NoError(t, f.store.Clients().Create(ctx, client))
	input.ClientID = &client.ID
	order, err := f.service.CreateOrder(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, order.ClientID)
	assert.Equal(t, client.ID, *order.ClientID)
}

// The SQLite pool has a single connection, so these creates run one
// transaction after another. Interleaved transactions are covered by
// TestNextTicketBlocksConcurrentTransaction against Postgres.
func TestParallelCallersGetSequentialTickets(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()

	const workers = 8
	tickets := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := f.service.CreateOrder(ctx, f.input(f.line(1, "Small", "8.00")))
			if assert.NoError(t, err) {
				tickets <- order.TicketNumber
			}
		}()
	}
	wg.Wait()
	close(tickets)

	seen := map[string]bool{}
	for ticket := range tickets {
		assert.False(t, seen[ticket], "ticket %s issued twice", ticket)
		seen[ticket] = true
	}
	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[FormatTicket(i)], "missing %s", FormatTicket(i))
	}
}

func TestUpdateOrderNotesOnly(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()
	order := f.create(t)

	updated, err := f.service.UpdateOrder(ctx, order.ID, OrderPatch{Notes: Some("leave at door")})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "leave at door", *updated.Notes)
	assert.Equal(t, order.TicketNumber, updated.TicketNumber)
	assert.Equal(t, order.Status, updated.Status)
	assert.Equal(t, order.PaymentStatus, updated.PaymentStatus)
	assert.Equal(t, order.ClientName, updated.ClientName)
	assert.True(t, order.Total.Equal(updated.Total))
	assert.Len(t, updated.Details, 1)

	cleared, err := f.service.UpdateOrder(ctx, order.ID, OrderPatch{Notes: Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Notes)
}

func TestUpdateOrderPaymentStatus(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()
	order := f.create(t)

	updated, err := f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Some(models.PaymentRefunded)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)

	// Without strict mode any valid value may be set.
	updated, err = f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Some(models.PaymentPending)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, updated.PaymentStatus)

	_, err = f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Null[models.PaymentStatus]()})
	assert.True(t, IsValidation(err))

	_, err = f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Some(models.PaymentStatus("lost"))})
	assert.True(t, IsValidation(err))

	_, err = f.service.UpdateOrder(ctx, 424242, OrderPatch{Notes: Some("x")})
	assert.True(t, IsNotFound(err))
}

func TestUpdateOrderStrictPaymentTransitions(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{StrictPaymentTransitions: true})
	ctx := context.Background()
	order := f.create(t)

	_, err := f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Some(models.PaymentRefunded)})
	assert.True(t, IsValidation(err))

	updated, err := f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Some(models.PaymentPaid)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

	_, err = f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Some(models.PaymentPending)})
	assert.True(t, IsValidation(err))

	updated, err = f.service.UpdateOrder(ctx, order.ID, OrderPatch{PaymentStatus: Some(models.PaymentRefunded)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
}

func TestUpdateOrderStatusFlow(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newOrderFixture(t, OrderServiceOptions{Logger: zap.New(core)})
	ctx := context.Background()
	order := f.create(t)

	_, err := f.service.UpdateOrderStatus(ctx, order.ID, models.OrderDelivered)
	assert.True(t, IsValidation(err), "cannot skip steps")

	for _, next := range []models.OrderStatus{models.OrderConfirmed, models.OrderPreparing, models.OrderDelivering, models.OrderDelivered} {
		updated, err := f.service.UpdateOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = f.service.UpdateOrderStatus(ctx, order.ID, models.OrderCancelled)
	assert.True(t, IsValidation(err), "delivered is terminal")

	assert.Equal(t, 4, logs.FilterMessage("order status changed").Len())
	assert.Equal(t, 1, logs.FilterMessage("order created").Len())
}

func TestUpdateOrderStatusCancel(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()
	order := f.create(t)

	updated, err := f.service.UpdateOrderStatus(ctx, order.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, updated.Status)

	_, err = f.service.UpdateOrderStatus(ctx, order.ID, models.OrderConfirmed)
	assert.True(t, IsValidation(err))

	_, err = f.service.UpdateOrderStatus(ctx, order.ID, models.OrderStatus("lost"))
	assert.True(t, IsValidation(err))
}

func TestDeleteOrderRemovesDetails(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()

	order, err := f.service.CreateOrder(ctx, f.input(
		f.line(2, "Large", "5.50"),
		f.line(1, "Small", "8.00"),
	))
	require.NoError(t, err)
	keep := f.create(t)

	require.NoError(t, f.service.DeleteOrder(ctx, order.ID))

	_, err = f.service.GetOrder(ctx, order.ID)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.OrderDetail{}))

	remaining, err := f.service.GetOrder(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, remaining.Details, 1)

	assert.True(t, IsNotFound(f.service.DeleteOrder(ctx, order.ID)))
}

func TestListOrdersByStatusIgnoresPaymentStatus(t *testing.T) {
	f := newOrderFixture(t, OrderServiceOptions{})
	ctx := context.Background()

	deliver := func(id uint) {
		for _, next := range []models.OrderStatus{models.OrderConfirmed, models.OrderPreparing, models.OrderDelivering, models.OrderDelivered} {
			_, err := f.service.UpdateOrderStatus(ctx, id, next)
			require.NoError(t, err)
		}
	}

	unpaid := f.create(t)
	paid := f.create(t)
	open := f.create(t)
	deliver(unpaid.ID)
	deliver(paid.ID)
	_, err := f.service.UpdateOrder(ctx, paid.ID, OrderPatch{PaymentStatus: Some(models.PaymentPaid)})
	require.NoError(t, err)

	delivered := models.OrderDelivered
	orders, err := f.service.ListOrders(ctx, repository.OrderFilter{Status: &delivered})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, paid.ID, orders[0].ID)
	assert.Equal(t, unpaid.ID, orders[1].ID)

	all, err := f.service.ListOrders(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, open.ID, all[0].ID)

	bogus := models.OrderStatus("shipped")
	_, err = f.service.ListOrders(ctx, repository.OrderFilter{Status: &bogus})
	assert.True(t, IsValidation(err))
}

func TestGetOrderUsesCache(t *testing.T) {
	cache := newMemoryCache()
	f := newOrderFixture(t, OrderServiceOptions{Cache: cache})
	ctx := context.Background()
	order := f.create(t)

	_, err := f.service.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, cache.hits)

	cached, err := f.service.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, order.TicketNumber, cached.TicketNumber)

	_, err = f.service.UpdateOrder(ctx, order.ID, OrderPatch{Notes: Some("fresh")})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes)

	fresh, err := f.service.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.Notes)
	assert.Equal(t, "fresh", *fresh.Notes)

	require.NoError(t, f.service.DeleteOrder(ctx, order.ID))
	_, err = f.service.GetOrder(ctx, order.ID)
	assert.True(t, IsNotFound(err))
}
