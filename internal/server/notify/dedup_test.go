package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard_SuppressesWithinWindow(t *testing.T) {
	now := time.Now()
	g := newGuard(10*time.Second, 60*time.Second)
	g.now = func() time.Time { return now }

	assert.True(t, g.Acquire("key"))
	assert.False(t, g.Acquire("key"))

	now = now.Add(5 * time.Second)
	assert.False(t, g.Acquire("key"), "still inside window")

	now = now.Add(6 * time.Second)
	assert.True(t, g.Acquire("key"), "window elapsed")
}

func TestGuard_KeysAreIndependent(t *testing.T) {
	g := newGuard(10*time.Second, 60*time.Second)

	assert.True(t, g.Acquire("a"))
	assert.True(t, g.Acquire("b"))
}

func TestGuard_ReleaseForgetsClaim(t *testing.T) {
	g := newGuard(10*time.Second, 60*time.Second)

	assert.True(t, g.Acquire("key"))
	g.Release("key")
	assert.True(t, g.Acquire("key"))
}

func TestGuard_EvictsPastRetention(t *testing.T) {
	now := time.Now()
	g := newGuard(time.Second, 60*time.Second)
	g.now = func() time.Time { return now }

	assert.True(t, g.Acquire("old"))
	now = now.Add(61 * time.Second)
	assert.True(t, g.Acquire("new"))

	g.mu.Lock()
	_, oldPresent := g.entries["old"]
	g.mu.Unlock()
	assert.False(t, oldPresent, "stale entry evicted")
}

// Two concurrent duplicates can never both pass the check.
func TestGuard_ConcurrentAcquireAdmitsOne(t *testing.T) {
	g := newGuard(10*time.Second, 60*time.Second)

	const attempts = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Acquire("same-key") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
}
