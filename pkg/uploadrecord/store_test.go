package uploadrecord

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertMergesSetFieldsOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, "user1", Record{
		FileBaseName: "workout_001",
		UploadID:     999,
		Status:       "processing",
	}))

	// Second write sets only the activity ID; upload ID and status survive.
	require.NoError(t, store.Upsert(ctx, "user1", Record{
		FileBaseName: "workout_001",
		ActivityID:   16877339482,
	}))

	rec, err := store.Get(ctx, "user1", "workout_001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(999), rec.UploadID)
	assert.Equal(t, int64(16877339482), rec.ActivityID)
	assert.Equal(t, "processing", rec.Status)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := Record{FileBaseName: "workout_002", UploadID: 42, ActivityID: 7, Status: "ready"}
	require.NoError(t, store.Upsert(ctx, "user1", rec))
	require.NoError(t, store.Upsert(ctx, "user1", rec))

	got, err := store.Get(ctx, "user1", "workout_002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UploadID)
	assert.Equal(t, int64(7), got.ActivityID)
	assert.Equal(t, "ready", got.Status)
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := NewMemoryStore()
	rec, err := store.Get(context.Background(), "user1", "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// Two jobs writing to different keys must never corrupt each other's
// records: after interleaved writes, each key's final state matches its
// own sequence of writes.
func TestConcurrentJobsDoNotCorruptEachOther(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const writes = 200
	var wg sync.WaitGroup

	for _, base := range []string{"file_a", "file_b"} {
		wg.Add(1)
		go func(base string) {
			defer wg.Done()
			for i := 1; i <= writes; i++ {
				err := store.Upsert(ctx, "user1", Record{
					FileBaseName: base,
					UploadID:     int64(i),
					Status:       fmt.Sprintf("%s attempt %d", base, i),
				})
				if err != nil {
					t.Errorf("upsert %s: %v", base, err)
					return
				}
			}
		}(base)
	}
	wg.Wait()

	for _, base := range []string{"file_a", "file_b"} {
		rec, err := store.Get(ctx, "user1", base)
		require.NoError(t, err)
		require.NotNil(t, rec, base)
		assert.Equal(t, int64(writes), rec.UploadID, base)
		assert.Equal(t, fmt.Sprintf("%s attempt %d", base, writes), rec.Status, base)
	}
}
