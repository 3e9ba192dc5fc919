package filter

import (
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
)

// selectZone appends every character id currently in the agent's zone.
type selectZone struct{}

// SelectZone returns a filter producing every character id in the agent's
// zone, ascending (GLOSSARY: Zone).
func SelectZone() aicore.Filter { return selectZone{} }

func (selectZone) Filter(agent aicore.Agent, buffer []character.Id) []character.Id {
	zv, ok := agent.Zone()
	if !ok {
		return buffer
	}
	return append(buffer, zv.CharacterIds()...)
}

// selectGroupLeader appends the designated leader of a named group, if any.
type selectGroupLeader struct {
	group string
}

// SelectGroupLeader returns a filter producing the designated leader of the
// named group (spec §3 GroupManager).
func SelectGroupLeader(group string) aicore.Filter {
	return selectGroupLeader{group: group}
}

func (s selectGroupLeader) Filter(agent aicore.Agent, buffer []character.Id) []character.Id {
	zv, ok := agent.Zone()
	if !ok {
		return buffer
	}
	leader, ok := zv.GroupLeader(s.group)
	if !ok {
		return buffer
	}
	return append(buffer, leader)
}

// selectHighestAggro appends the target with the highest current aggro.
type selectHighestAggro struct{}

// SelectHighestAggro returns a filter producing the agent's top aggro
// target, if any (spec §4.2).
func SelectHighestAggro() aicore.Filter { return selectHighestAggro{} }

func (selectHighestAggro) Filter(agent aicore.Agent, buffer []character.Id) []character.Id {
	entry, ok := agent.AggroManager().GetHighestEntry()
	if !ok {
		return buffer
	}
	return append(buffer, entry.CharacterId)
}

// selectVisible appends every zone member within range of the agent's
// character, a coarse stand-in for the kind of spatial query the original
// delegates to an external physics/visibility system (spec §1 Non-goals:
// path-finding/world physics are out of scope; this reads position as an
// opaque value only, never reasons about occlusion).
type selectVisible struct {
	rangeUnits float32
}

// SelectVisible returns a filter producing zone members within rangeUnits
// of the agent's own position.
func SelectVisible(rangeUnits float32) aicore.Filter {
	return selectVisible{rangeUnits: rangeUnits}
}

func (s selectVisible) Filter(agent aicore.Agent, buffer []character.Id) []character.Id {
	zv, ok := agent.Zone()
	if !ok {
		return buffer
	}
	ax, ay, az := agent.Character().Position()
	for _, id := range zv.CharacterIds() {
		other, ok := zv.AgentById(id)
		if !ok {
			continue
		}
		ox, oy, oz := other.Character().Position()
		dx, dy, dz := ax-ox, ay-oy, az-oz
		distSq := dx*dx + dy*dy + dz*dz
		if distSq <= s.rangeUnits*s.rangeUnits {
			buffer = append(buffer, id)
		}
	}
	return buffer
}
