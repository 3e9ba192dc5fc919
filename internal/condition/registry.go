package condition

import (
	"fmt"
	"sync"

	"github.com/zoneai/zoneai/internal/aicore"
)

// Factory builds a condition from a raw parameter string (spec §6: "name
// → (parameters: string, condition: Condition) → TreeNode" generalizes to
// conditions without the nested condition argument, since a condition has
// no condition of its own).
type Factory func(parameters string) (aicore.Condition, error)

// Registry is a process-wide, name-keyed set of condition factories.
// Duplicate registration is a ConfigurationError (spec §7).
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry pre-populated with the true, false and
// hasAggro kinds.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	_ = r.Register("true", func(string) (aicore.Condition, error) { return True(), nil })
	_ = r.Register("false", func(string) (aicore.Condition, error) { return False(), nil })
	_ = r.Register("hasAggro", func(string) (aicore.Condition, error) { return HasAggro(), nil })
	return r
}

// Register adds a factory under name. Returns a ConfigurationError if name
// is already registered.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("condition: duplicate registration for %q: %w", name, ErrConfiguration)
	}
	r.factories[name] = factory
	return nil
}

// Build constructs a condition from a registered name and a parameter
// string. Returns a ConfigurationError if name is unknown.
func (r *Registry) Build(name, parameters string) (aicore.Condition, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("condition: unknown kind %q: %w", name, ErrConfiguration)
	}
	return factory(parameters)
}

// ErrConfiguration is the sentinel spec §7 ConfigurationError wraps.
var ErrConfiguration = fmt.Errorf("configuration error")
