package filter

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/zoneai/zoneai/internal/aicore"
)

// Factory builds a filter from a raw parameter string (spec §6).
type Factory func(parameters string) (aicore.Filter, error)

// Registry is a process-wide, name-keyed set of filter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// ErrConfiguration is the sentinel spec §7 ConfigurationError wraps.
var ErrConfiguration = fmt.Errorf("configuration error")

// NewRegistry creates a registry pre-populated with the built-in leaf
// filters named in spec §4.4.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	_ = r.Register("selectZone", func(string) (aicore.Filter, error) { return SelectZone(), nil })
	_ = r.Register("selectHighestAggro", func(string) (aicore.Filter, error) { return SelectHighestAggro(), nil })
	_ = r.Register("selectGroupLeader", func(parameters string) (aicore.Filter, error) {
		return SelectGroupLeader(parameters), nil
	})
	_ = r.Register("selectVisible", func(parameters string) (aicore.Filter, error) {
		rangeUnits, err := strconv.ParseFloat(parameters, 32)
		if err != nil {
			return nil, fmt.Errorf("filter: selectVisible range %q: %w", parameters, err)
		}
		return SelectVisible(float32(rangeUnits)), nil
	})
	return r
}

// Register adds a factory under name. Returns a ConfigurationError if name
// is already registered.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("filter: duplicate registration for %q: %w", name, ErrConfiguration)
	}
	r.factories[name] = factory
	return nil
}

// Build constructs a filter from a registered name and parameter string.
func (r *Registry) Build(name, parameters string) (aicore.Filter, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("filter: unknown kind %q: %w", name, ErrConfiguration)
	}
	return factory(parameters)
}
