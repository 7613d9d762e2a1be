package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketNextStartsAtOneOnEmptyDatabase(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Tickets().Next(ctx, "orders", store.Orders().MaxID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestTicketNextSeedsFromExistingOrders(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	legacy := newOrder("LEGACY-41")
	legacy.ID = 41
	require.NoError(t, db.Omit("Details").Create(legacy).Error)

	got, err := store.Tickets().Next(ctx, "orders", store.Orders().MaxID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	got, err = store.Tickets().Next(ctx, "orders", store.Orders().MaxID)
	require.NoError(t, err)
	assert.Equal(t, int64(43), got)
}

func TestTicketNextIsReleasedOnRollback(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	got, err := tx.Tickets().Next(ctx, "orders", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	require.NoError(t, tx.Rollback())

	got, err = store.Tickets().Next(ctx, "orders", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestTicketSequencesAreIndependent(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	a, err := store.Tickets().Next(ctx, "orders", nil)
	require.NoError(t, err)
	b, err := store.Tickets().Next(ctx, "refunds", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(1), b)
}
