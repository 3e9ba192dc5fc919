// Package zone implements the scheduler that owns a set of agents, ticks
// them in lockstep, and exposes thread-safe membership and query
// operations to both the simulation driver and the debug server (spec
// §4.7, §5).
package zone

import (
	"sort"
	"sync"

	"github.com/zoneai/zoneai/internal/agent"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
)

// Zone owns a set of agents and ticks them in ascending-CharacterId order
// every update (spec §3, §4.7).
type Zone struct {
	name string

	mu     sync.RWMutex
	agents map[character.Id]*agent.AI
	debug  bool
	groups *GroupManager

	scheduleMu sync.Mutex
	adds       []*agent.AI
	removes    []character.Id
}

// New constructs an empty zone named name.
func New(name string) *Zone {
	return &Zone{
		name:   name,
		agents: make(map[character.Id]*agent.AI),
		groups: NewGroupManager(),
	}
}

// Name returns the zone's name (spec §4.7 getName).
func (z *Zone) Name() string { return z.name }

// Groups exposes the zone's GroupManager for callers that need to manage
// group membership directly (join/leave are not part of the core tick
// path, so they are not queued like agent adds/removes).
func (z *Zone) Groups() *GroupManager { return z.groups }

// AddAI schedules agent to join the zone. The add is applied at the start
// of the next Update, never mid-visit (spec §4.7, §5). Returns false if an
// agent with the same id is already a member or already scheduled to
// join.
func (z *Zone) AddAI(a *agent.AI) bool {
	z.mu.RLock()
	_, exists := z.agents[a.Id()]
	z.mu.RUnlock()
	if exists {
		return false
	}

	z.scheduleMu.Lock()
	defer z.scheduleMu.Unlock()
	for _, pending := range z.adds {
		if pending.Id() == a.Id() {
			return false
		}
	}
	z.adds = append(z.adds, a)
	return true
}

// RemoveAI schedules agent id for removal, applied at the start of the
// next Update (spec §4.7, §5). Returns false if id is not currently a
// member.
func (z *Zone) RemoveAI(id character.Id) bool {
	z.mu.RLock()
	_, exists := z.agents[id]
	z.mu.RUnlock()
	if !exists {
		return false
	}

	z.scheduleMu.Lock()
	defer z.scheduleMu.Unlock()
	z.removes = append(z.removes, id)
	return true
}

// applyScheduled drains pending adds/removes under the zone write lock.
// Must only be called from Update, before any agent is visited this tick
// (spec §4.7).
func (z *Zone) applyScheduled() {
	z.scheduleMu.Lock()
	adds := z.adds
	removes := z.removes
	z.adds = nil
	z.removes = nil
	z.scheduleMu.Unlock()

	if len(adds) == 0 && len(removes) == 0 {
		return
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	for _, a := range adds {
		if _, exists := z.agents[a.Id()]; exists {
			continue
		}
		a.SetZone(z)
		a.SetDebugActive(z.debug)
		z.agents[a.Id()] = a
	}
	for _, id := range removes {
		a, ok := z.agents[id]
		if !ok {
			continue
		}
		a.SetZone(nil)
		a.SetDebugActive(false)
		z.groups.LeaveAll(id)
		delete(z.agents, id)
	}
}

// Update applies scheduled membership changes, then ticks every member in
// ascending-CharacterId order under a read lock so membership stays
// stable for the whole visit (spec §4.7, §5).
func (z *Zone) Update(dt int64) {
	z.applyScheduled()

	z.mu.RLock()
	defer z.mu.RUnlock()
	for _, id := range z.sortedIdsLocked() {
		z.agents[id].Update(dt, false)
	}
}

// Visit runs fn synchronously under a read lock, in ascending-CharacterId
// order; fn must not mutate zone membership (spec §4.7).
func (z *Zone) Visit(fn func(a *agent.AI)) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	for _, id := range z.sortedIdsLocked() {
		fn(z.agents[id])
	}
}

// Execute locates the agent with id and invokes fn on it, returning true
// iff found (spec §4.7).
func (z *Zone) Execute(id character.Id, fn func(a *agent.AI)) bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	a, ok := z.agents[id]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// SetDebug sets the zone's debug flag and propagates it to every current
// member (spec §4.7).
func (z *Zone) SetDebug(debug bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.debug = debug
	for _, a := range z.agents {
		a.SetDebugActive(debug)
	}
}

// Debug reports the zone's current debug flag.
func (z *Zone) Debug() bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.debug
}

// Size returns the current member count (spec §4.7).
func (z *Zone) Size() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return len(z.agents)
}

// CharacterIds returns every member's id in ascending order (aicore.ZoneView).
func (z *Zone) CharacterIds() []character.Id {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.sortedIdsLocked()
}

// GroupLeader returns group's designated leader (aicore.ZoneView).
func (z *Zone) GroupLeader(group string) (character.Id, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.groups.Leader(group)
}

// AgentById returns the member with id, satisfying aicore.ZoneView.
func (z *Zone) AgentById(id character.Id) (aicore.Agent, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	a, ok := z.agents[id]
	if !ok {
		return nil, false
	}
	return a, true
}

// AIById returns the concrete agent with id, for callers (e.g. the debug
// server) that need methods beyond aicore.Agent.
func (z *Zone) AIById(id character.Id) (*agent.AI, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	a, ok := z.agents[id]
	return a, ok
}

func (z *Zone) sortedIdsLocked() []character.Id {
	ids := make([]character.Id, 0, len(z.agents))
	for id := range z.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
