package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openballot/openballot/internal/clock"
)

func TestMemoryCounterStore_Incr(t *testing.T) {
	ctx := context.Background()

	t.Run("counts events inside the window", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		store := NewMemoryCounterStore(clk)

		for i := 1; i <= 3; i++ {
			count, err := store.Incr(ctx, "voter-a", 15*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, int64(i), count)
			clk.Advance(time.Minute)
		}
	})

	t.Run("events outside the window are dropped", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		store := NewMemoryCounterStore(clk)

		_, err := store.Incr(ctx, "voter-a", 15*time.Minute)
		require.NoError(t, err)

		clk.Advance(16 * time.Minute)

		count, err := store.Incr(ctx, "voter-a", 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("keys count independently", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		store := NewMemoryCounterStore(clk)

		_, err := store.Incr(ctx, "voter-a", time.Minute)
		require.NoError(t, err)

		count, err := store.Incr(ctx, "voter-b", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
