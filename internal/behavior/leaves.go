package behavior

import (
	"math"

	"github.com/zoneai/zoneai/internal/aicore"
)

// idle returns RUNNING for ms simulated ticks, then FINISHED (spec §4.5).
type idle struct {
	base
	ms int64
}

// NewIdle builds an Idle(ms) leaf (spec §4.5).
func NewIdle(name string, condition aicore.Condition, ms int64) TreeNode {
	return &idle{base: newBase(name, condition, nil), ms: ms}
}

func (i *idle) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(i, i, agent, dt)
}

func (i *idle) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	state.Counter += dt
	if state.Counter <= i.ms {
		return aicore.StatusRunning
	}
	state.Counter = 0
	return aicore.StatusFinished
}

// steer is a leaf that uses a filter to pick a target, then orients the
// agent's character toward it (spec §4.5); the character mutation itself
// is delegated to the Character capability, never to direct position
// writes, since position/physics stay outside the core (spec §1 Non-goals).
type steer struct {
	base
	target aicore.Filter
}

// NewSteer builds a Steer(filter) leaf (spec §4.5).
func NewSteer(name string, condition aicore.Condition, target aicore.Filter) TreeNode {
	return &steer{base: newBase(name, condition, nil), target: target}
}

func (s *steer) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(s, s, agent, dt)
}

func (s *steer) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	ids := s.target.Filter(agent, nil)
	if len(ids) == 0 {
		return aicore.StatusFailed
	}

	zv, ok := agent.Zone()
	if !ok {
		return aicore.StatusFailed
	}
	targetAgent, ok := zv.AgentById(ids[0])
	if !ok {
		return aicore.StatusFailed
	}

	selfX, selfY, _ := agent.Character().Position()
	targetX, targetY, _ := targetAgent.Character().Position()
	heading := float32(math.Atan2(float64(targetY-selfY), float64(targetX-selfX)))

	agent.Character().SetOrientation(heading)
	agent.Character().SetSpeed(agent.Character().Speed())
	return aicore.StatusRunning
}

// userLeaf adapts a plain function into a registrable, user-defined leaf
// node (spec §4.5 "User-defined leaves"; spec §6 registration API).
type userLeaf struct {
	base
	fn func(agent aicore.Agent, dt int64) aicore.Status
}

// NewUserLeaf builds a leaf node from an arbitrary execute function,
// the mechanism user-defined leaves are registered through (spec §6).
func NewUserLeaf(name string, condition aicore.Condition, fn func(agent aicore.Agent, dt int64) aicore.Status) TreeNode {
	return &userLeaf{base: newBase(name, condition, nil), fn: fn}
}

func (u *userLeaf) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(u, u, agent, dt)
}

func (u *userLeaf) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	return u.fn(agent, dt)
}
