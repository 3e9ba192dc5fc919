// Package aicore holds the small set of interfaces that let the condition,
// filter, behavior, agent, and zone packages refer to each other without an
// import cycle (spec §9, "polymorphism" / "weak back-references"):
// condition, filter and behavior reach agents and zones only through these
// interfaces, and the concrete agent.AI and zone.Zone types satisfy them
// structurally.
package aicore

import (
	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/character"
)

// Status is the result of executing a tree node for one tick (spec §3).
type Status int

const (
	StatusUnknown Status = iota
	StatusCannotExecute
	StatusRunning
	StatusFinished
	StatusFailed
	StatusException
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusCannotExecute:
		return "CANNOTEXECUTE"
	case StatusRunning:
		return "RUNNING"
	case StatusFinished:
		return "FINISHED"
	case StatusFailed:
		return "FAILED"
	case StatusException:
		return "EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// NoLastExec is the sentinel for NodeState.LastExecMillis meaning "never
// run" (spec §3: "NONE").
const NoLastExec int64 = -1

// NodeState is the per-agent, per-node runtime state kept outside the
// shared, immutable tree (spec §3, §9).
type NodeState struct {
	LastExecMillis  int64
	LastStatus      Status
	RunningChildren map[int]struct{}

	// Counter is private working storage for decorators that need to
	// remember a per-agent count or accumulator across ticks (Limit's
	// completion count, Idle's elapsed-time accumulator). It is not part
	// of the debug protocol's serialized node snapshot.
	Counter int64
}

// NewNodeState returns a freshly reset NodeState, matching what a newly
// constructed agent would see (spec §8 property 3).
func NewNodeState() *NodeState {
	return &NodeState{
		LastExecMillis:  NoLastExec,
		LastStatus:      StatusUnknown,
		RunningChildren: make(map[int]struct{}),
	}
}

// Agent is what conditions, filters, and tree nodes need from an AI
// instance. The concrete type lives in package agent; it is referenced here
// only by interface to avoid a dependency cycle.
type Agent interface {
	Id() character.Id
	Character() character.Character
	AggroManager() *aggro.Manager
	Time() int64
	Zone() (ZoneView, bool)
	NodeState(nodeID uint64) *NodeState
	ResetNodeState(nodeID uint64)
}

// ZoneView is the read-only slice of zone state that filters like
// SelectZone, SelectGroupLeader, and SelectVisible need (spec §4.4,
// GLOSSARY). The concrete type lives in package zone.
type ZoneView interface {
	Name() string
	CharacterIds() []character.Id // ascending
	GroupLeader(group string) (character.Id, bool)
	AgentById(id character.Id) (Agent, bool)
}

// Condition is a pure predicate over an agent (spec §4.3).
type Condition interface {
	Evaluate(agent Agent) bool
	NameWithConditions(agent Agent) string
}

// Filter produces a set of character ids for an agent (spec §4.4). buffer
// is the caller-owned scratch slice; implementations that only add ids
// (Union, Intersection, selector leaves) append to it and return the
// result. Difference has its own entry/exit contract documented on its
// type.
type Filter interface {
	Filter(agent Agent, buffer []character.Id) []character.Id
}
