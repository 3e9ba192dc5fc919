package behavior

import (
	"github.com/zoneai/zoneai/internal/aicore"
)



// randomSelector behaves like Selector but visits children in a
// tick-stable random order derived from the agent id and current tick
// bucket (spec §4.5): the same (agent, time) pair always yields the same
// order, satisfying spec §8 property 2 (repeated execute(A,0) calls are
// idempotent).
type randomSelector struct{ base }

// NewRandomSelector builds a RandomSelector node (spec §4.5). Requires at
// least one child.
func NewRandomSelector(name string, condition aicore.Condition, children ...TreeNode) TreeNode {
	return &randomSelector{base: newBase(name, condition, children)}
}

func (n *randomSelector) Execute(agent aicore.Agent, dt int64) aicore.Status {
	return execute(n, n, agent, dt)
}

func (n *randomSelector) doExecute(agent aicore.Agent, dt int64, state *aicore.NodeState) aicore.Status {
	order := tickStablePermutation(n.id, uint64(agent.Id()), agent.Time(), len(n.children))

	permuted := make([]TreeNode, len(n.children))
	for i, childIdx := range order {
		permuted[i] = n.children[childIdx]
	}

	// state.RunningChildren stores the original child index between calls
	// (set below), so it survives the permutation changing from tick to
	// tick; translate it back to a position in the current permuted order
	// before resuming.
	start := 0
	if len(state.RunningChildren) == 1 {
		var runningOriginal int
		for idx := range state.RunningChildren {
			runningOriginal = idx
		}
		for pos, childIdx := range order {
			if childIdx == runningOriginal {
				start = pos
				break
			}
		}
	}

	result := runSelectorFrom(permuted, start, agent, dt, state)

	if len(state.RunningChildren) == 1 {
		for permutedIdx := range state.RunningChildren {
			state.RunningChildren = map[int]struct{}{order[permutedIdx]: {}}
		}
	}
	return result
}

// tickStablePermutation derives a deterministic permutation of [0,n) from
// nodeID, agentID and the current tick value using a small splitmix64-style
// mix, avoiding math/rand so the same inputs always produce the same
// sequence across processes.
func tickStablePermutation(nodeID uint64, agentID uint64, tick int64, n int) []int {
	seed := mix64(nodeID ^ agentID ^ uint64(tick))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		seed = mix64(seed)
		j := int(seed % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
