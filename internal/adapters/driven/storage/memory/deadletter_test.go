package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

func TestDeadLetterStore_SaveAndGet(t *testing.T) {
	t.Run("round trips a letter", func(t *testing.T) {
		store := NewDeadLetterStore()
		ctx := context.Background()
		letter := domain.DeadLetter{
			ID:        "letter-1",
			Endpoint:  "https://evaluator.example.com/notify",
			Payload:   []byte(`{"task":"todo-list"}`),
			Attempts:  5,
			LastError: "connection refused",
			CreatedAt: time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
		}

		require.NoError(t, store.Save(ctx, letter))

		got, err := store.Get(ctx, "letter-1")
		require.NoError(t, err)
		assert.Equal(t, letter, *got)
	})

	t.Run("fills created_at when zero", func(t *testing.T) {
		store := NewDeadLetterStore()
		ctx := context.Background()

		require.NoError(t, store.Save(ctx, domain.DeadLetter{ID: "letter-1"}))

		got, err := store.Get(ctx, "letter-1")
		require.NoError(t, err)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("get absent entry returns ErrNotFound", func(t *testing.T) {
		store := NewDeadLetterStore()

		got, err := store.Get(context.Background(), "missing")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeadLetterStore_List(t *testing.T) {
	t.Run("lists newest first", func(t *testing.T) {
		store := NewDeadLetterStore()
		ctx := context.Background()
		base := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

		for i, id := range []string{"oldest", "middle", "newest"} {
			require.NoError(t, store.Save(ctx, domain.DeadLetter{
				ID:        id,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		letters, err := store.List(ctx)

		require.NoError(t, err)
		require.Len(t, letters, 3)
		assert.Equal(t, "newest", letters[0].ID)
		assert.Equal(t, "oldest", letters[2].ID)
	})
}

func TestDeadLetterStore_Delete(t *testing.T) {
	t.Run("removes the entry", func(t *testing.T) {
		store := NewDeadLetterStore()
		ctx := context.Background()
		require.NoError(t, store.Save(ctx, domain.DeadLetter{ID: "letter-1"}))

		require.NoError(t, store.Delete(ctx, "letter-1"))

		_, err := store.Get(ctx, "letter-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("deleting absent entry returns ErrNotFound", func(t *testing.T) {
		store := NewDeadLetterStore()

		err := store.Delete(context.Background(), "missing")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// TestDeadLetterStore_ConcurrentAccess verifies the store is safe for
// concurrent use.
func TestDeadLetterStore_ConcurrentAccess(t *testing.T) {
	store := NewDeadLetterStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("letter-%d", n)
			assert.NoError(t, store.Save(ctx, domain.DeadLetter{ID: id}))
			_, err := store.Get(ctx, id)
			assert.NoError(t, err)
			_, err = store.List(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	letters, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, letters, 10)
}
