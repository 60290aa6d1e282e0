package notify

import (
	"sync"
	"time"
)

// guard suppresses repeated notifications for the same trigger inside a
// cooldown window. The check and the claim happen under one lock so two
// near-simultaneous duplicates can never both pass.
type guard struct {
	mu        sync.Mutex
	window    time.Duration
	retention time.Duration
	entries   map[string]time.Time
	now       func() time.Time
}

func newGuard(window, retention time.Duration) *guard {
	return &guard{
		window:    window,
		retention: retention,
		entries:   make(map[string]time.Time),
		now:       time.Now,
	}
}

// Acquire reports whether the caller may notify for key, claiming the key if
// so. Entries past the retention horizon are evicted on the way.
func (g *guard) Acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	horizon := g.retention
	if g.window > horizon {
		horizon = g.window
	}
	for k, t := range g.entries {
		if now.Sub(t) > horizon {
			delete(g.entries, k)
		}
	}

	if last, ok := g.entries[key]; ok && now.Sub(last) < g.window {
		return false
	}
	g.entries[key] = now
	return true
}

// Release undoes a claim when no send ended up being attempted, so the key
// stays recorded only for triggers that actually reached a channel.
func (g *guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, key)
}
