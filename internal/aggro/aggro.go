// Package aggro implements the per-agent decaying aggression table (spec
// §4.2). Each Manager tracks, per target character, an amount that decays
// over time under a configured policy and is pruned once it drops below an
// optional minimum threshold.
package aggro

import (
	"sort"
	"sync"

	"github.com/zoneai/zoneai/internal/character"
)

// Entry is one row of an aggro table.
type Entry struct {
	CharacterId    character.Id
	Amount         float32
	LastModifiedAt int64 // ticks
}

// Policy computes the amount remaining after t seconds have elapsed with no
// further additions. Implementations must be monotonically non-increasing
// in t and never return a negative amount.
type Policy func(amount float32, elapsedSeconds float32) float32

// DecrementPerSecond subtracts rate*t from amount, floored at zero.
func DecrementPerSecond(rate float32) Policy {
	return func(amount, elapsedSeconds float32) float32 {
		v := amount - rate*elapsedSeconds
		if v < 0 {
			return 0
		}
		return v
	}
}

// RatioDecayPerSecond multiplies amount by ratio for every whole second
// elapsed; a remaining fraction f of a second scales it by 1-f*(1-ratio),
// a linear stand-in for ratio^f. ratio must be in [0, 1].
func RatioDecayPerSecond(ratio float32) Policy {
	return func(amount, elapsedSeconds float32) float32 {
		v := amount
		// elapsedSeconds is typically small (one tick's worth); a loop is
		// clearer than introducing math.Pow for a float32 ratio.
		remaining := elapsedSeconds
		const step = 1.0
		for remaining >= step {
			v *= ratio
			remaining -= step
		}
		if remaining > 0 {
			frac := remaining
			v *= 1 - frac*(1-ratio)
		}
		if v < 0 {
			return 0
		}
		return v
	}
}

// Manager is a per-agent aggro table. The zero value is not usable; build
// one with NewManager.
type Manager struct {
	mu        sync.Mutex
	entries   map[character.Id]*Entry
	policy    Policy
	threshold float32 // Update prunes entries with Amount <= threshold; 0 prunes only entries that reach zero
	now       int64
}

// NewManager creates an aggro manager with the given reduction policy and
// optional minimum-aggro threshold (pass 0 to prune only entries that
// reach zero).
func NewManager(policy Policy, threshold float32) *Manager {
	return &Manager{
		entries:   make(map[character.Id]*Entry),
		policy:    policy,
		threshold: threshold,
	}
}

// AddAggro creates or adds to the entry for target. amount may be negative;
// the result is capped at 0.
func (m *Manager) AddAggro(target character.Id, amount float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[target]
	if !ok {
		e = &Entry{CharacterId: target}
		m.entries[target] = e
	}
	e.Amount += amount
	if e.Amount < 0 {
		e.Amount = 0
	}
	e.LastModifiedAt = m.now

	if e.Amount == 0 {
		delete(m.entries, target)
	}
}

// GetHighestEntry returns the top of the sorted snapshot, or false if the
// table is empty.
func (m *Manager) GetHighestEntry() (Entry, bool) {
	entries := m.Entries()
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0], true
}

// Entries returns a stably-ordered snapshot: descending by amount, ties
// broken by CharacterId ascending (spec §4.2, §8 property 6).
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].CharacterId < out[j].CharacterId
	})
	return out
}

// Update applies the configured decay policy over dt (simulation ticks,
// interpreted as milliseconds by convention with the rest of the package)
// and prunes entries at or below the threshold. Open Question (a) in
// spec §9 is resolved here as "after": the threshold is applied using the
// amount this tick's decay just produced, not the pre-decay amount.
func (m *Manager) Update(dt int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now += dt
	elapsedSeconds := float32(dt) / 1000.0

	for id, e := range m.entries {
		e.Amount = m.policy(e.Amount, elapsedSeconds)
		if e.Amount <= m.threshold {
			delete(m.entries, id)
			continue
		}
		e.LastModifiedAt = m.now
	}
}

// Len reports the number of live entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
