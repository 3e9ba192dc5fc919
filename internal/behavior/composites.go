package behavior

import (
	"github.com/zoneai/zoneai/internal/aicore"
)

// prioritySelector evaluates children in order every tick, preempting a
// previously running child (spec §4.5).
type prioritySelector struct{ base }

// NewPrioritySelector builds a PrioritySelector node (spec §4.5). Requires
// at least one child.
func NewPrioritySelector(name string, condition aicore.Condition, children ...TreeNode) TreeNode {
	n := &prioritySelector{base: newBase(name, condition, children)}
	return n
}

func (n *prioritySelector) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(n, n, agent, dt)
}

func (n *prioritySelector) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	running := make(map[int]struct{})
	var result aicore.Status = aicore.StatusFailed
	for i, child := range n.children {
		st := child.Execute(agent, dt)
		if st != aicore.StatusFailed {
			if st == aicore.StatusRunning {
				running[i] = struct{}{}
			}
			result = st
			break
		}
	}
	state.RunningChildren = running
	return result
}

// selector is like prioritySelector but does not preempt: once a child is
// RUNNING, the next tick resumes only that child (spec §4.5).
type selector struct{ base }

// NewSelector builds a Selector node (spec §4.5). Requires at least one
// child.
func NewSelector(name string, condition aicore.Condition, children ...TreeNode) TreeNode {
	return &selector{base: newBase(name, condition, children)}
}

func (n *selector) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(n, n, agent, dt)
}

func (n *selector) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	start := 0
	if len(state.RunningChildren) == 1 {
		for idx := range state.RunningChildren {
			start = idx
		}
	}
	return runSelectorFrom(n.children, start, agent, dt, state)
}

// runSelectorFrom resumes a no-preemption selector scan at start, shared by
// Selector and RandomSelector (which only differs in child ordering).
func runSelectorFrom(order []TreeNode, start int, agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	for i := start; i < len(order); i++ {
		st := order[i].Execute(agent, dt)
		switch st {
		case aicore.StatusRunning:
			state.RunningChildren = map[int]struct{}{i: {}}
			return st
		case aicore.StatusFailed:
			continue
		default:
			state.RunningChildren = map[int]struct{}{}
			return st
		}
	}
	state.RunningChildren = map[int]struct{}{}
	return aicore.StatusFailed
}

// sequence evaluates children in order, failing on the first FAILED child
// and resuming at the first not-yet-finished child across ticks (spec
// §4.5).
type sequence struct{ base }

// NewSequence builds a Sequence node (spec §4.5). Requires at least one
// child.
func NewSequence(name string, condition aicore.Condition, children ...TreeNode) TreeNode {
	return &sequence{base: newBase(name, condition, children)}
}

func (n *sequence) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(n, n, agent, dt)
}

func (n *sequence) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	start := 0
	if len(state.RunningChildren) == 1 {
		for idx := range state.RunningChildren {
			start = idx
		}
	}

	for i := start; i < len(n.children); i++ {
		st := n.children[i].Execute(agent, dt)
		switch st {
		case aicore.StatusRunning:
			state.RunningChildren = map[int]struct{}{i: {}}
			return st
		case aicore.StatusFailed:
			state.RunningChildren = map[int]struct{}{}
			return st
		case aicore.StatusFinished:
			continue
		default:
			// CANNOTEXECUTE/EXCEPTION/UNKNOWN: treat as not-yet-satisfied,
			// stop this tick's scan without failing the whole sequence.
			state.RunningChildren = map[int]struct{}{}
			return st
		}
	}
	state.RunningChildren = map[int]struct{}{}
	return aicore.StatusFinished
}

// parallel evaluates every child every tick, with no short-circuiting
// (spec §4.5).
type parallel struct{ base }

// NewParallel builds a Parallel node (spec §4.5). Requires at least one
// child.
func NewParallel(name string, condition aicore.Condition, children ...TreeNode) TreeNode {
	return &parallel{base: newBase(name, condition, children)}
}

func (n *parallel) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(n, n, agent, dt)
}

func (n *parallel) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	running := make(map[int]struct{})
	anyFailed := false
	allFinished := true

	for i, child := range n.children {
		st := child.Execute(agent, dt)
		switch st {
		case aicore.StatusFailed:
			anyFailed = true
			allFinished = false
		case aicore.StatusRunning:
			running[i] = struct{}{}
			allFinished = false
		case aicore.StatusFinished:
			// counts toward allFinished
		default:
			allFinished = false
		}
	}

	state.RunningChildren = running
	switch {
	case allFinished:
		return aicore.StatusFinished
	case anyFailed:
		return aicore.StatusFailed
	default:
		return aicore.StatusRunning
	}
}
