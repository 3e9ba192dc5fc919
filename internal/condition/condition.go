// Package condition implements the boolean predicate algebra agents use to
// gate tree node execution (spec §4.3): composable And/Or/Not plus the
// True/False singletons, each able to render a stable, parameter-bearing
// name for the debug protocol.
package condition

import (
	"fmt"
	"strings"

	"github.com/zoneai/zoneai/internal/aicore"
)

// trueCondition and falseCondition are singletons per spec §4.3.
type trueCondition struct{}

func (trueCondition) Evaluate(aicore.Agent) bool { return true }
func (trueCondition) NameWithConditions(aicore.Agent) string { return "True" }

type falseCondition struct{}

func (falseCondition) Evaluate(aicore.Agent) bool { return false }
func (falseCondition) NameWithConditions(aicore.Agent) string { return "False" }

// True returns the singleton always-true condition.
func True() aicore.Condition { return trueCondition{} }

// False returns the singleton always-false condition.
func False() aicore.Condition { return falseCondition{} }

// and short-circuits in declaration order.
type and struct {
	children []aicore.Condition
}

// And returns a composite that is true iff every child is true, evaluated
// in declaration order with short-circuiting.
func And(children ...aicore.Condition) aicore.Condition {
	return and{children: children}
}

func (a and) Evaluate(agent aicore.Agent) bool {
	for _, c := range a.children {
		if !c.Evaluate(agent) {
			return false
		}
	}
	return true
}

func (a and) NameWithConditions(agent aicore.Agent) string {
	return renderComposite("And", a.children, agent)
}

// or short-circuits in declaration order.
type or struct {
	children []aicore.Condition
}

// Or returns a composite that is true iff any child is true, evaluated in
// declaration order with short-circuiting.
func Or(children ...aicore.Condition) aicore.Condition {
	return or{children: children}
}

func (o or) Evaluate(agent aicore.Agent) bool {
	for _, c := range o.children {
		if c.Evaluate(agent) {
			return true
		}
	}
	return false
}

func (o or) NameWithConditions(agent aicore.Agent) string {
	return renderComposite("Or", o.children, agent)
}

// not negates a single child.
type not struct {
	child aicore.Condition
}

// Not returns a composite negating child.
func Not(child aicore.Condition) aicore.Condition {
	return not{child: child}
}

func (n not) Evaluate(agent aicore.Agent) bool {
	return !n.child.Evaluate(agent)
}

func (n not) NameWithConditions(agent aicore.Agent) string {
	return renderComposite("Not", []aicore.Condition{n.child}, agent)
}

func renderComposite(name string, children []aicore.Condition, agent aicore.Agent) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.NameWithConditions(agent)
	}
	return fmt.Sprintf("%s{%s}", name, strings.Join(parts, ", "))
}
