// Package filter implements the entity-set producer algebra (spec §4.4):
// Union, Intersection, and Difference compose selector leaves into
// character-id sets for an agent, built on top of a caller-owned scratch
// buffer so filter invocations compose without leaking child internals.
package filter

import (
	"sort"

	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
)

// Union appends the set union of all children's results.
type union struct {
	children []aicore.Filter
}

// Union returns a filter producing the union of its children's results.
func Union(children ...aicore.Filter) aicore.Filter {
	return union{children: children}
}

func (u union) Filter(agent aicore.Agent, buffer []character.Id) []character.Id {
	seen := make(map[character.Id]struct{}, len(buffer))
	for _, id := range buffer {
		seen[id] = struct{}{}
	}
	for _, c := range u.children {
		result := c.Filter(agent, nil)
		for _, id := range result {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				buffer = append(buffer, id)
			}
		}
	}
	return buffer
}

// intersection appends only ids present in every child's result.
type intersection struct {
	children []aicore.Filter
}

// Intersection returns a filter producing the intersection of its
// children's results. An empty child list yields an empty result.
func Intersection(children ...aicore.Filter) aicore.Filter {
	return intersection{children: children}
}

func (i intersection) Filter(agent aicore.Agent, buffer []character.Id) []character.Id {
	if len(i.children) == 0 {
		return buffer
	}
	sets := make([]map[character.Id]struct{}, len(i.children))
	for idx, c := range i.children {
		result := c.Filter(agent, nil)
		set := make(map[character.Id]struct{}, len(result))
		for _, id := range result {
			set[id] = struct{}{}
		}
		sets[idx] = set
	}

	for id := range sets[0] {
		inAll := true
		for _, set := range sets[1:] {
			if _, ok := set[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			buffer = append(buffer, id)
		}
	}
	sort.Slice(buffer, func(a, b int) bool { return buffer[a] < buffer[b] })
	return buffer
}

// difference implements spec §4.4's sharp contract: save the caller's
// existing buffer contents, run each child against a fresh buffer, compute
// the ordered set-difference child[0] \ child[1] \ ... \ child[k-1] over
// sorted representations, then restore and append.
type difference struct {
	children []aicore.Filter
}

// Difference returns the set-difference filter described in spec §4.4 and
// §8 property 4: the first child's result, minus every later child's
// result, in ascending id order (each child's result is sorted before the
// difference is taken).
func Difference(children ...aicore.Filter) aicore.Filter {
	return difference{children: children}
}

func (d difference) Filter(agent aicore.Agent, buffer []character.Id) []character.Id {
	alreadyFiltered := append([]character.Id(nil), buffer...)

	if len(d.children) == 0 {
		return alreadyFiltered
	}

	filtered := make([][]character.Id, len(d.children))
	maxLen := 0
	for i, c := range d.children {
		result := c.Filter(agent, nil)
		sorted := append([]character.Id(nil), result...)
		sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })
		filtered[i] = sorted
		if len(sorted) > maxLen {
			maxLen = len(sorted)
		}
	}

	// Open Question (b) (spec §9): the original reserves capacity assuming
	// each child's size is <= max; carried here as a preallocation hint
	// only, never a contract other code may rely on.
	var result []character.Id
	if len(filtered) == 1 {
		result = append(make([]character.Id, 0, maxLen), filtered[0]...)
	} else {
		result = setDifference(make([]character.Id, 0, maxLen), filtered[0], filtered[1])
		for i := 2; i < len(filtered); i++ {
			result = setDifference(make([]character.Id, 0, maxLen), result, filtered[i])
		}
	}

	out := make([]character.Id, 0, len(alreadyFiltered)+len(result))
	out = append(out, alreadyFiltered...)
	out = append(out, result...)
	return out
}

// setDifference computes a\b for sorted a and b, appending to dst, mirroring
// std::set_difference from the original C++ (spec §4.4, §9).
func setDifference(dst, a, b []character.Id) []character.Id {
	i, j := 0, 0
	for i < len(a) {
		if j >= len(b) || a[i] < b[j] {
			dst = append(dst, a[i])
			i++
		} else if a[i] == b[j] {
			i++
			j++
		} else {
			j++
		}
	}
	return dst
}
