package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/pkg/uid"
)

func TestItemRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	items, _, _ := newTestDB(t)

	row := "3"
	item := &model.Item{
		ID:            uid.New(),
		AdminID:       1,
		Name:          "Running Shoes",
		Code:          "RS-100",
		Warehouse:     "B",
		Row:           &row,
		TotalQuantity: 12,
		TotalValue:    349.99,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, items.Create(ctx, item))

	got, err := items.GetByID(ctx, item.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Running Shoes", got.Name)
	require.NotNil(t, got.Row)
	assert.Equal(t, "3", *got.Row)
	assert.InDelta(t, 349.99, got.TotalValue, 0.001)
	assert.Nil(t, got.Position)

	// Another admin cannot see it
	_, err = items.GetByID(ctx, item.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemRepository_ListChangedSince(t *testing.T) {
	ctx := context.Background()
	items, _, _ := newTestDB(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, name := range []string{"first", "second", "third"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, items.Create(ctx, &model.Item{
			ID:        uid.New(),
			AdminID:   1,
			Name:      name,
			Version:   1,
			CreatedAt: ts,
			UpdatedAt: ts,
		}))
	}
	// Item of another admin never leaks into the feed
	require.NoError(t, items.Create(ctx, &model.Item{
		ID:        uid.New(),
		AdminID:   2,
		Name:      "other tenant",
		Version:   1,
		CreatedAt: base,
		UpdatedAt: base,
	}))

	// Strictly after: the cursor row itself is excluded
	changed, err := items.ListChangedSince(ctx, 1, base)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, "second", changed[0].Name)
	assert.Equal(t, "third", changed[1].Name)

	// Epoch cursor returns everything, oldest first
	changed, err = items.ListChangedSince(ctx, 1, time.Time{})
	require.NoError(t, err)
	require.Len(t, changed, 3)
	assert.Equal(t, "first", changed[0].Name)

	count, err := items.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestTransactionRepository_ListChangedSince(t *testing.T) {
	ctx := context.Background()
	_, txs, _ := newTestDB(t)

	base := time.Now().UTC().Truncate(time.Second)
	details := `{"quantity":2}`
	older := &model.Transaction{
		ID:        uid.New(),
		AdminID:   1,
		Action:    "remove",
		ItemName:  "Running Shoes",
		Timestamp: base.UnixMilli(),
		Details:   &details,
		CreatedAt: base,
	}
	newer := &model.Transaction{
		ID:        uid.New(),
		AdminID:   1,
		Action:    "add",
		ItemName:  "Winter Jacket",
		Timestamp: base.UnixMilli(),
		CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, txs.Create(ctx, older))
	require.NoError(t, txs.Create(ctx, newer))

	changed, err := txs.ListChangedSince(ctx, 1, base)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, newer.ID, changed[0].ID)

	changed, err = txs.ListChangedSince(ctx, 1, time.Time{})
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, older.ID, changed[0].ID)
	require.NotNil(t, changed[0].Details)
	assert.JSONEq(t, details, *changed[0].Details)
}
