// Package behavior implements the tree node taxonomy (spec §4.5): leaf and
// composite node kinds, shared and immutable after construction, with all
// per-agent runtime state (status, last-exec time, running children) kept
// externally in the agent's node-state map (spec §9, "shared-tree-with-
// per-agent-state").
package behavior

import (
	"sync/atomic"

	"github.com/zoneai/zoneai/internal/aicore"
)

// TreeNode is the shared, immutable identity of one tree node (spec §3).
type TreeNode interface {
	ID() uint64
	Name() string
	Condition() aicore.Condition
	Children() []TreeNode

	// Execute evaluates the node for one tick, first gating on Condition
	// (spec §4.5 step 1), then dispatching to kind-specific logic, then
	// recording status and last-exec time into the agent's node state
	// (spec §4.5 step 3).
	Execute(agent aicore.Agent, dt int64) aicore.Status

	// ResetState recursively clears this node's and every descendant's
	// per-agent NodeState (spec §8 property 3).
	ResetState(agent aicore.Agent)

	// RunningChildren returns the set of child indices this node recorded
	// as RUNNING on its last execution for agent (spec §4.5).
	RunningChildren(agent aicore.Agent) map[int]struct{}
}

var nextID uint64

// newID hands out a monotonically increasing node identity at tree
// construction time (spec §9).
func newID() uint64 {
	return atomic.AddUint64(&nextID, 1)
}

// base is embedded by every node kind; it implements the identity fields
// and the condition-gate/record-state wrapper common to spec §4.5's
// per-tick evaluation steps 1 and 3. Kind-specific types implement only
// doExecute (step 2).
type base struct {
	id        uint64
	name      string
	condition aicore.Condition
	children  []TreeNode
}

func newBase(name string, condition aicore.Condition, children []TreeNode) base {
	return base{id: newID(), name: name, condition: condition, children: children}
}

func (b *base) ID() uint64                 { return b.id }
func (b *base) Name() string                { return b.name }
func (b *base) Condition() aicore.Condition { return b.condition }
func (b *base) Children() []TreeNode        { return b.children }

func (b *base) RunningChildren(agent aicore.Agent) map[int]struct{} {
	return agent.NodeState(b.id).RunningChildren
}

func (b *base) ResetState(agent aicore.Agent) {
	agent.ResetNodeState(b.id)
	for _, c := range b.children {
		c.ResetState(agent)
	}
}

// doExecutor is implemented by every concrete node kind to supply step 2 of
// spec §4.5's per-tick evaluation.
type doExecutor interface {
	doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status
}

// execute runs the shared spec §4.5 evaluation steps around a kind's
// doExecute. Concrete node types call this from their Execute method.
func execute(node TreeNode, exec doExecutor, agent aicore.Agent, dt int64) aicore.Status {
	state := agent.NodeState(node.ID())

	cond := node.Condition()
	if cond != nil && !cond.Evaluate(agent) {
		state.LastStatus = aicore.StatusCannotExecute
		state.LastExecMillis = agent.Time()
		return state.LastStatus
	}

	status := exec.doExecute(agent, dt, state)
	state.LastStatus = status
	state.LastExecMillis = agent.Time()
	return status
}
