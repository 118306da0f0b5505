package concept

import "sync"

// Gate admits at most one in-flight request per key (a browser session).
type Gate struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewGate returns an empty gate.
func NewGate() *Gate {
	return &Gate{pending: map[string]struct{}{}}
}

// TryAcquire marks key as pending. It returns false while an earlier request for
// key has not released. The returned release func is idempotent.
func (g *Gate) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return func() {}, false
	}
	g.pending[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, key)
			g.mu.Unlock()
		})
	}, true
}

// Pending reports whether key has a request in flight.
func (g *Gate) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.pending[key]
	return busy
}
