package repository

import (
	"fmt"
	"order_manager/internal/models"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with every table
// migrated. A single connection keeps transactions serialized.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, active bool) *models.Product {
	t.Helper()

	category := &models.Category{Name: "Drinks"}
	require.NoError(t, db.Create(category).Error)
	product := &models.Product{CategoryID: category.ID, Name: "Lemonade", IsActive: active}
	require.NoError(t, db.Omit("Variants").Create(product).Error)
	return product
}

func newOrder(ticket string) *models.Order {
	return &models.Order{
		TicketNumber:    ticket,
		ClientName:      "Ana",
		Phone:           "555-0101",
		DeliveryAddress: "1 Main St",
		Status:          models.OrderPending,
		PaymentMethod:   models.PaymentCash,
		PaymentStatus:   models.PaymentPending,
		Total:           decimal.RequireFromString("10.00"),
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
