package behavior

import (
	"github.com/zoneai/zoneai/internal/aicore"
)

// limit wraps a single child, allowing it to return FINISHED at most n
// times per agent; further attempts return CANNOTEXECUTE (spec §4.5).
type limit struct {
	base
	n int
}

// NewLimit builds a Limit(n) decorator around a single child (spec §4.5).
func NewLimit(name string, condition aicore.Condition, n int, child TreeNode) TreeNode {
	return &limit{base: newBase(name, condition, []TreeNode{child}), n: n}
}

func (l *limit) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(l, l, agent, dt)
}

func (l *limit) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	if int(state.Counter) >= l.n {
		state.RunningChildren = map[int]struct{}{}
		return aicore.StatusCannotExecute
	}

	st := l.children[0].Execute(agent, dt)
	if st == aicore.StatusRunning {
		state.RunningChildren = map[int]struct{}{0: {}}
	} else {
		state.RunningChildren = map[int]struct{}{}
	}
	if st == aicore.StatusFinished {
		state.Counter++
	}
	return st
}

// invert maps FINISHED<->FAILED and passes every other status through
// unchanged (spec §4.5).
type invert struct{ base }

// NewInvert builds an Invert decorator around a single child (spec §4.5).
func NewInvert(name string, condition aicore.Condition, child TreeNode) TreeNode {
	return &invert{base: newBase(name, condition, []TreeNode{child})}
}

func (v *invert) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(v, v, agent, dt)
}

func (v *invert) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	st := v.children[0].Execute(agent, dt)
	if st == aicore.StatusRunning {
		state.RunningChildren = map[int]struct{}{0: {}}
	} else {
		state.RunningChildren = map[int]struct{}{}
	}
	switch st {
	case aicore.StatusFinished:
		return aicore.StatusFailed
	case aicore.StatusFailed:
		return aicore.StatusFinished
	default:
		return st
	}
}
