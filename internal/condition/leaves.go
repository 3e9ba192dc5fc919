package condition

import (
	"fmt"

	"github.com/zoneai/zoneai/internal/aicore"
)

// hasAggro is true iff the agent's aggro manager currently holds any entry.
type hasAggro struct{}

// HasAggro returns a condition that is true when the agent has aggro on at
// least one target.
func HasAggro() aicore.Condition { return hasAggro{} }

func (hasAggro) Evaluate(agent aicore.Agent) bool {
	_, ok := agent.AggroManager().GetHighestEntry()
	return ok
}

func (hasAggro) NameWithConditions(aicore.Agent) string { return "HasAggro{}" }

// attributeEquals is true iff the agent's character has the given key set
// to the given value.
type attributeEquals struct {
	key, value string
}

// AttributeEquals returns a leaf condition comparing a character attribute.
func AttributeEquals(key, value string) aicore.Condition {
	return attributeEquals{key: key, value: value}
}

func (a attributeEquals) Evaluate(agent aicore.Agent) bool {
	return agent.Character().Attributes()[a.key] == a.value
}

func (a attributeEquals) NameWithConditions(aicore.Agent) string {
	return fmt.Sprintf("AttributeEquals{%s=%s}", a.key, a.value)
}
