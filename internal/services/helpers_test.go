package services

import (
	"context"
	"errors"
	"fmt"
	"order_manager/internal/database"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), "silent")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

type orderFixture struct {
	db       *gorm.DB
	store    *repository.Store
	service  OrderService
	active   *models.Product
	inactive *models.Product
}

func newOrderFixture(t *testing.T, opts OrderServiceOptions) *orderFixture {
	t.Helper()

	db := newTestDB(t)
	store := repository.NewStore(db)
	catalog := NewCatalogService(store)
	ctx := context.Background()

	category, err := catalog.CreateCategory(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)
	active, err := catalog.CreateProduct(ctx, ProductInput{
		CategoryID: category.ID,
		Name:       "Lemonade",
		Variants: []VariantInput{
			{Name: "Large", Price: money("5.50")},
			{Name: "Small", Price: money("8.00")},
		},
	})
	require.NoError(t, err)
	inactive, err := catalog.CreateProduct(ctx, ProductInput{
		CategoryID: category.ID,
		Name:       "Seasonal Punch",
		IsActive:   boolPtr(false),
	})
	require.NoError(t, err)

	return &orderFixture{
		db:       db,
		store:    store,
		service:  NewOrderService(store, NewTicketService(), opts),
		active:   active,
		inactive: inactive,
	}
}

func (f *orderFixture) input(lines ...OrderLineInput) CreateOrderInput {
	return CreateOrderInput{
		ClientName:      "Ana",
		Phone:           "555-0101",
		DeliveryAddress: "1 Main St",
		PaymentMethod:   models.PaymentCash,
		Details:         lines,
	}
}

func (f *orderFixture) line(quantity int, variant, price string) OrderLineInput {
	return OrderLineInput{ProductID: f.active.ID, VariantName: variant, Quantity: quantity, UnitPrice: money(price)}
}

func (f *orderFixture) create(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.service.CreateOrder(context.Background(), f.input(f.line(1, "Small", "8.00")))
	require.NoError(t, err)
	return order
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

var errCacheMiss = errors.New("cache miss")

// memoryCache is an in-process OrderCache.
type memoryCache struct {
	mu      sync.Mutex
	orders  map[uint]models.Order
	hits    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{orders: map[uint]models.Order{}}
}

func (c *memoryCache) GetOrder(_ context.Context, id uint) (*models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.orders[id]
	if !ok {
		return nil, errCacheMiss
	}
	c.hits++
	return &order, nil
}

func (c *memoryCache) SetOrder(_ context.Context, order *models.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[order.ID] = *order
	return nil
}

func (c *memoryCache) DeleteOrder(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, id)
	c.deletes++
	return nil
}
