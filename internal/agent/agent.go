// Package agent implements the AI instance that owns a character, a
// behaviour tree, and the per-agent runtime state the tree reads and
// writes every tick (spec §3, §4.6).
package agent

import (
	"sync"

	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/behavior"
	"github.com/zoneai/zoneai/internal/character"
)

// Root is the shared, immutable behaviour tree identity an AI executes
// every tick. Aliased to behavior.TreeNode so callers (e.g. the debug
// server's tree-snapshot encoder) get the full node identity - name,
// condition, children - not just the execute/reset surface agent.Update
// itself needs. behavior depends only on aicore, so agent depending on
// behavior here introduces no cycle.
type Root = behavior.TreeNode

// AI is the concrete implementation of aicore.Agent: a character, a
// behaviour tree root, an aggro table, and the node-state map the tree
// reads and writes (spec §3, §9).
type AI struct {
	id   character.Id
	char character.Character

	mu          sync.RWMutex
	root        Root
	aggroMgr    *aggro.Manager
	zone        aicore.ZoneView
	time        int64
	paused      bool
	debugActive bool
	nodeStates  map[uint64]*aicore.NodeState
}

// New constructs an AI with no behaviour root; call SetRoot before the
// first Update.
func New(char character.Character, aggroPolicy aggro.Policy, aggroThreshold float32) *AI {
	return &AI{
		id:         char.Id(),
		char:       char,
		aggroMgr:   aggro.NewManager(aggroPolicy, aggroThreshold),
		nodeStates: make(map[uint64]*aicore.NodeState),
	}
}

// SetRoot installs the behaviour tree this agent executes. Trees are
// shared and immutable (spec §9); swapping the root does not reset
// existing NodeState entries, since they are keyed by node id and a new
// tree has new ids.
func (a *AI) SetRoot(root Root) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.root = root
}

// Root returns the agent's current behaviour tree root, or nil if none
// has been set yet.
func (a *AI) Root() Root {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root
}

func (a *AI) Id() character.Id               { return a.id }
func (a *AI) Character() character.Character { return a.char }
func (a *AI) AggroManager() *aggro.Manager   { return a.aggroMgr }

func (a *AI) Time() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.time
}

// Zone returns the zone this agent currently belongs to, if any (spec
// §4.7's "agent's back-reference").
func (a *AI) Zone() (aicore.ZoneView, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.zone, a.zone != nil
}

// SetZone installs or clears the zone back-reference; called only by
// package zone's addAI/removeAI (spec §4.7).
func (a *AI) SetZone(zone aicore.ZoneView) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.zone = zone
}

// DebugActive reports whether this agent currently belongs to a
// debug-flagged zone (spec §4.7).
func (a *AI) DebugActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.debugActive
}

// SetDebugActive is called by package zone when its debug flag changes
// (spec §4.7's setDebug propagation).
func (a *AI) SetDebugActive(active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debugActive = active
}

// Paused reports the agent's current pause flag (spec §4.8 PAUSE).
func (a *AI) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// SetPaused sets the agent's pause flag; used directly by the debug
// server's PAUSE handler and temporarily cleared/restored by STEP (spec
// §4.8).
func (a *AI) SetPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused
}

// NodeState returns (creating if absent) the per-node runtime state for
// nodeID (spec §3, §9).
func (a *AI) NodeState(nodeID uint64) *aicore.NodeState {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.nodeStates[nodeID]
	if !ok {
		s = aicore.NewNodeState()
		a.nodeStates[nodeID] = s
	}
	return s
}

// ResetNodeState replaces nodeID's state with a freshly reset one (spec
// §8 property 3).
func (a *AI) ResetNodeState(nodeID uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nodeStates[nodeID] = aicore.NewNodeState()
}

// Update ticks the agent once (spec §4.6): if paused and not forced, it
// is a no-op; otherwise time advances, aggro decays, and the tree
// executes once.
func (a *AI) Update(dt int64, force bool) {
	a.mu.RLock()
	paused := a.paused
	root := a.root
	a.mu.RUnlock()

	if paused && !force {
		return
	}

	a.mu.Lock()
	a.time += dt
	a.mu.Unlock()

	a.aggroMgr.Update(dt)

	if root != nil {
		root.Execute(a, dt)
	}
}

// ResetTree recursively clears every NodeState under the agent's
// behaviour root (spec §4.8 RESET).
func (a *AI) ResetTree() {
	a.mu.RLock()
	root := a.root
	a.mu.RUnlock()
	if root != nil {
		root.ResetState(a)
	}
}
