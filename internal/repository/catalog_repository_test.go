package repository

import (
	"context"
	"order_manager/internal/models"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductListFilters(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	active := seedProduct(t, db, true)
	inactive := seedProduct(t, db, false)

	products, err := store.Products().List(ctx, ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, active.ID, products[0].ID)

	products, err = store.Products().List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = store.Products().List(ctx, ProductFilter{CategoryID: &inactive.CategoryID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, inactive.ID, products[0].ID)
	assert.False(t, products[0].IsActive)
}

func TestProductDeleteRemovesVariants(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	product := seedProduct(t, db, true)

	require.NoError(t, store.Variants().CreateBatch(ctx, []models.ProductVariant{
		{ProductID: product.ID, Name: "Small", Price: decimal.RequireFromString("3.50")},
		{ProductID: product.ID, Name: "Large", Price: decimal.RequireFromString("5.00")},
	}))

	loaded, err := store.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Variants, 2)
	assert.True(t, loaded.Variants[1].Price.Equal(decimal.RequireFromString("5")))

	require.NoError(t, store.Products().Delete(ctx, product.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.ProductVariant{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
	_, err = store.Products().GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVariantScopedToProduct(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	first := seedProduct(t, db, true)
	second := seedProduct(t, db, true)

	variant := &models.ProductVariant{ProductID: first.ID, Name: "Small", Price: decimal.RequireFromString("3.50")}
	require.NoError(t, store.Variants().Create(ctx, variant))

	_, err := store.Variants().GetForProduct(ctx, first.ID, variant.ID)
	require.NoError(t, err)
	_, err = store.Variants().GetForProduct(ctx, second.ID, variant.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountByCategory(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	product := seedProduct(t, db, true)

	count, err := store.Products().CountByCategory(ctx, product.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestClientEmailIsUnique(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	first := &models.Client{Email: "ana@example.com", Name: "Ana", Phone: "555", PasswordHash: "x"}
	require.NoError(t, store.Clients().Create(ctx, first))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", first.ID.String())

	err := store.Clients().Create(ctx, &models.Client{Email: "ana@example.com", Name: "Ana 2", Phone: "556", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := store.Clients().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.Name)
}
