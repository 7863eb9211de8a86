package trigger

import (
	"sync"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

// Registry holds rules in registration order, at most one per id.
// It is built once at startup and then read concurrently by evaluations.
type Registry struct {
	mu    sync.RWMutex
	order []string
	rules map[string]Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds r, or replaces the rule already stored under r.ID. A replaced
// rule keeps its original position; the last registration wins.
func (reg *Registry) Register(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.rules[r.ID]; !exists {
		reg.order = append(reg.order, r.ID)
	}
	reg.rules[r.ID] = r
	return nil
}

// MustRegister registers every rule and panics on the first invalid one.
func (reg *Registry) MustRegister(rules ...Rule) {
	for _, r := range rules {
		if err := reg.Register(r); err != nil {
			panic(err)
		}
	}
}

// Get returns the rule registered under id.
func (reg *Registry) Get(id string) (Rule, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rules[id]
	return r, ok
}

// All returns a copy of every rule in registration order.
func (reg *Registry) All() []Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Rule, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.rules[id])
	}
	return out
}

// ByCategory returns the rules of category c in registration order.
func (reg *Registry) ByCategory(c models.Category) []Rule {
	var out []Rule
	for _, r := range reg.All() {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of registered rules.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.order)
}

// Reset empties the registry. It exists for test isolation; calling it while
// evaluations are running is not supported.
func (reg *Registry) Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.order = nil
	reg.rules = make(map[string]Rule)
}
