package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/calorbunga/backend/internal/models"
)

func TestLogStore_InsertAndListDay(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()
	day := "2024-12-25"

	first := entryWithStats(day, 100, models.NutritionEstimate{Calories: 100})
	first.UserID = userID
	second := entryWithStats(day, 200, models.NutritionEstimate{Calories: 200})
	second.UserID = userID
	otherDay := entryWithStats("2024-12-26", 300, models.NutritionEstimate{Calories: 300})
	otherDay.UserID = userID

	id, err := store.Insert(ctx, first)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, "test-namespace", first.Namespace)

	_, err = store.Insert(ctx, second)
	require.NoError(t, err)
	_, err = store.Insert(ctx, otherDay)
	require.NoError(t, err)

	entries, err := store.ListDay(ctx, userID, day)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Most recent first
	assert.Equal(t, int64(200), entries[0].Timestamp)
	assert.Equal(t, int64(100), entries[1].Timestamp)
}

func TestLogStore_EntriesAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	day := "2024-12-25"

	owner := uuid.New()
	other := uuid.New()

	entry := entryWithStats(day, 1, models.NutritionEstimate{})
	entry.UserID = owner
	id, err := store.Insert(ctx, entry)
	require.NoError(t, err)

	entries, err := store.ListDay(ctx, other, day)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Another user cannot delete the entry
	err = store.Delete(ctx, other, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, store.Delete(ctx, owner, id))
	entries, err = store.ListDay(ctx, owner, day)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogStore_DeleteMissingEntry(t *testing.T) {
	store := newTestStore(t)
	err := store.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLogStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()
	day := "2024-12-25"

	snapshots, cancel, err := store.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer cancel()

	// Initial snapshot reflects the current (empty) state
	select {
	case snapshot := <-snapshots:
		assert.Empty(t, snapshot)
	case <-time.After(time.Second):
		t.Fatal("expected an initial snapshot")
	}

	entry := entryWithStats(day, 1, models.NutritionEstimate{Calories: 100})
	entry.UserID = userID
	id, err := store.Insert(ctx, entry)
	require.NoError(t, err)

	select {
	case snapshot := <-snapshots:
		require.Len(t, snapshot, 1)
		assert.Equal(t, "test item", snapshot[0].Name)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot after insert")
	}

	require.NoError(t, store.Delete(ctx, userID, id))

	select {
	case snapshot := <-snapshots:
		assert.Empty(t, snapshot)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot after delete")
	}
}

func TestLogStore_SubscribeCancel(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	snapshots, cancel, err := store.Subscribe(ctx, userID)
	require.NoError(t, err)

	// Drain the initial snapshot then cancel
	<-snapshots
	cancel()

	_, open := <-snapshots
	assert.False(t, open, "channel should be closed after cancel")

	// Writes after cancellation do not panic or block
	entry := entryWithStats("2024-12-25", 1, models.NutritionEstimate{})
	entry.UserID = userID
	_, err = store.Insert(ctx, entry)
	require.NoError(t, err)
}

func TestLogStore_SlowSubscriberGetsLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()
	day := "2024-12-25"

	snapshots, cancel, err := store.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer cancel()

	// Two inserts without the consumer reading: the pending initial
	// snapshot is replaced, and the final read sees both entries
	for i := 0; i < 2; i++ {
		entry := entryWithStats(day, int64(i), models.NutritionEstimate{})
		entry.UserID = userID
		_, err := store.Insert(ctx, entry)
		require.NoError(t, err)
	}

	select {
	case snapshot := <-snapshots:
		assert.Len(t, snapshot, 2)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot")
	}
}
