package behavior

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/zoneai/zoneai/internal/aicore"
)

// Factory builds a tree node from a parameter string, a (possibly nil)
// condition, and already-constructed children (spec §6: "name →
// (parameters: string, condition: Condition) → TreeNode").
type Factory func(name, parameters string, condition aicore.Condition, children []TreeNode) (TreeNode, error)

// ErrConfiguration is the sentinel spec §7 ConfigurationError wraps.
var ErrConfiguration = fmt.Errorf("configuration error")

// Registry is a process-wide, name-keyed set of node factories. Duplicate
// registration is an error (spec §6, §7).
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry pre-populated with the built-in kinds
// from spec §4.5's taxonomy table.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	variadic := func(ctor func(name string, condition aicore.Condition, children ...TreeNode) TreeNode) Factory {
		return func(name, _ string, condition aicore.Condition, children []TreeNode) (TreeNode, error) {
			if len(children) == 0 {
				return nil, fmt.Errorf("behavior: %q requires at least one child: %w", name, ErrConfiguration)
			}
			return ctor(name, condition, children...), nil
		}
	}

	_ = r.Register("prioritySelector", variadic(NewPrioritySelector))
	_ = r.Register("selector", variadic(NewSelector))
	_ = r.Register("sequence", variadic(NewSequence))
	_ = r.Register("parallel", variadic(NewParallel))
	_ = r.Register("randomSelector", variadic(NewRandomSelector))

	_ = r.Register("invert", func(name, _ string, condition aicore.Condition, children []TreeNode) (TreeNode, error) {
		if len(children) != 1 {
			return nil, fmt.Errorf("behavior: invert requires exactly one child: %w", ErrConfiguration)
		}
		return NewInvert(name, condition, children[0]), nil
	})
	_ = r.Register("limit", func(name, parameters string, condition aicore.Condition, children []TreeNode) (TreeNode, error) {
		if len(children) != 1 {
			return nil, fmt.Errorf("behavior: limit requires exactly one child: %w", ErrConfiguration)
		}
		n, err := strconv.Atoi(parameters)
		if err != nil {
			return nil, fmt.Errorf("behavior: limit parameter %q: %w", parameters, ErrConfiguration)
		}
		return NewLimit(name, condition, n, children[0]), nil
	})
	_ = r.Register("idle", func(name, parameters string, condition aicore.Condition, children []TreeNode) (TreeNode, error) {
		ms, err := strconv.ParseInt(parameters, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("behavior: idle parameter %q: %w", parameters, ErrConfiguration)
		}
		return NewIdle(name, condition, ms), nil
	})

	return r
}

// Register adds a factory under name. Returns a ConfigurationError if name
// is already registered (spec §7 ConfigurationError).
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("behavior: duplicate registration for %q: %w", name, ErrConfiguration)
	}
	r.factories[name] = factory
	return nil
}

// Build constructs a node from a registered kind name. Returns a
// ConfigurationError if kind is unknown.
func (r *Registry) Build(kind, name, parameters string, condition aicore.Condition, children []TreeNode) (TreeNode, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("behavior: unknown node kind %q: %w", kind, ErrConfiguration)
	}
	return factory(name, parameters, condition, children)
}
