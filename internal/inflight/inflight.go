// Package inflight rejects duplicate submissions of an action while an
// earlier submission of the same action is still outstanding.
package inflight

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInFlight = errors.New("action already in flight")

// Guard tracks in-flight actions by name. The zero value is ready to use.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// Begin marks action as in flight. The returned func must be called when the
// action finishes.
func (g *Guard) Begin(action string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.active[action]; ok {
		return nil, fmt.Errorf("%w: %s", ErrInFlight, action)
	}
	if g.active == nil {
		g.active = make(map[string]struct{})
	}
	g.active[action] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, action)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether action is in flight.
func (g *Guard) Busy(action string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[action]
	return ok
}
