package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		rl := newRateLimiter(5)

		for i := 0; i < 5; i++ {
			assert.True(t, rl.tryAcquire(), "attempt %d", i+1)
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("refills with time", func(t *testing.T) {
		rl := newRateLimiter(60)
		clock := rl.lastRefill
		rl.now = func() time.Time { return clock }

		for i := 0; i < 60; i++ {
			require.True(t, rl.tryAcquire())
		}
		require.False(t, rl.tryAcquire())

		clock = clock.Add(2500 * time.Millisecond)
		assert.True(t, rl.tryAcquire())
		assert.True(t, rl.tryAcquire())
		assert.False(t, rl.tryAcquire())
	})

	t.Run("refill never exceeds capacity", func(t *testing.T) {
		rl := newRateLimiter(3)
		clock := rl.lastRefill
		rl.now = func() time.Time { return clock }

		clock = clock.Add(time.Hour)
		for i := 0; i < 3; i++ {
			require.True(t, rl.tryAcquire())
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() {
			done <- rl.wait(ctx)
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		err := <-done
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, err.Error(), "rate limiter canceled")
	})

	t.Run("disabled limiter never blocks", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.Nil(t, rl)

		for i := 0; i < 100; i++ {
			require.True(t, rl.tryAcquire())
		}
		assert.NoError(t, rl.wait(context.Background()))
	})

	t.Run("concurrent access", func(t *testing.T) {
		rl := newRateLimiter(100)
		frozen := rl.lastRefill
		rl.now = func() time.Time { return frozen }

		var mu sync.Mutex
		acquired := 0
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					if rl.tryAcquire() {
						mu.Lock()
						acquired++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, acquired)
	})
}
