package zone

import "github.com/zoneai/zoneai/internal/character"

// GroupManager tracks group membership and a per-group designated leader:
// the first joiner still present, reassigned to the next member by join
// order when the leader leaves (spec §3, GroupManager).
type GroupManager struct {
	// members preserves join order per group so leader reassignment can
	// walk "next by join order" in O(n) on leader loss.
	members map[string][]character.Id
}

// NewGroupManager returns an empty GroupManager.
func NewGroupManager() *GroupManager {
	return &GroupManager{members: make(map[string][]character.Id)}
}

// Join adds id to group's join order if not already present. Returns false
// if id was already a member.
func (g *GroupManager) Join(group string, id character.Id) bool {
	order := g.members[group]
	for _, existing := range order {
		if existing == id {
			return false
		}
	}
	g.members[group] = append(order, id)
	return true
}

// Leave removes id from group's join order. Returns false if id was not a
// member. The leader is simply "the first entry still present" (see
// Leader), so removing the leader implicitly reassigns leadership to the
// next member by join order.
func (g *GroupManager) Leave(group string, id character.Id) bool {
	order, ok := g.members[group]
	if !ok {
		return false
	}
	for i, existing := range order {
		if existing == id {
			g.members[group] = append(order[:i], order[i+1:]...)
			if len(g.members[group]) == 0 {
				delete(g.members, group)
			}
			return true
		}
	}
	return false
}

// LeaveAll removes id from every group it belongs to; called when an
// agent is removed from the zone.
func (g *GroupManager) LeaveAll(id character.Id) {
	for group := range g.members {
		g.Leave(group, id)
	}
}

// Leader returns the designated leader of group: the first joiner still
// present (spec §3).
func (g *GroupManager) Leader(group string) (character.Id, bool) {
	order, ok := g.members[group]
	if !ok || len(order) == 0 {
		return 0, false
	}
	return order[0], true
}

// Members returns a copy of group's join-ordered membership.
func (g *GroupManager) Members(group string) []character.Id {
	order := g.members[group]
	out := make([]character.Id, len(order))
	copy(out, order)
	return out
}
