// Package treedef loads a declarative YAML document describing
// conditions, filters, behaviour trees, and zones, wiring each into the
// process-wide registries from spec §6 so a deployment can be assembled
// without recompiling (SPEC_FULL.md §2.4).
package treedef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zoneai/zoneai/internal/agent"
	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/behavior"
	"github.com/zoneai/zoneai/internal/character"
	"github.com/zoneai/zoneai/internal/condition"
	"github.com/zoneai/zoneai/internal/filter"
	"github.com/zoneai/zoneai/internal/zone"
)

// NodeDef describes a single named condition or filter: a registered kind
// plus its raw parameter string (spec §6).
type NodeDef struct {
	Type       string `yaml:"type"`
	Parameters string `yaml:"parameters"`
}

// TreeDef describes a single named tree node. Children reference other
// tree entries by name, letting subtrees be shared/reused. For a "steer"
// node, Parameters names a filter entry instead of a raw parameter string,
// since Steer takes a Filter rather than a string (spec §4.5).
type TreeDef struct {
	Type       string   `yaml:"type"`
	Condition  string   `yaml:"condition"`
	Parameters string   `yaml:"parameters"`
	Children   []string `yaml:"children"`
}

// AgentDef describes one zone member: its character id, spawn position,
// and the named tree it runs.
type AgentDef struct {
	Id   uint64  `yaml:"id"`
	Root string  `yaml:"root"`
	X    float32 `yaml:"x"`
	Y    float32 `yaml:"y"`
	Z    float32 `yaml:"z"`
}

// ZoneDef describes one zone: its name, initial debug flag, and members.
type ZoneDef struct {
	Name   string     `yaml:"name"`
	Debug  bool       `yaml:"debug"`
	Agents []AgentDef `yaml:"agents"`
}

// Document is the full declarative definition file (SPEC_FULL.md §2.4).
type Document struct {
	Conditions map[string]NodeDef `yaml:"conditions"`
	Filters    map[string]NodeDef `yaml:"filters"`
	Trees      map[string]TreeDef `yaml:"trees"`
	Zones      []ZoneDef          `yaml:"zones"`
}

// Load reads and parses a definition document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("treedef: reading %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("treedef: parsing %s: %w", path, err)
	}
	return &doc, nil
}

// Registries bundles the three process-wide registration-API registries
// (spec §6) a document is built against.
type Registries struct {
	Conditions *condition.Registry
	Filters    *filter.Registry
	Trees      *behavior.Registry
}

// NewRegistries builds a Registries pre-populated with each package's
// built-in kinds.
func NewRegistries() *Registries {
	return &Registries{
		Conditions: condition.NewRegistry(),
		Filters:    filter.NewRegistry(),
		Trees:      behavior.NewRegistry(),
	}
}

// Builder resolves a Document's named entries into live condition/filter/
// tree-node instances, memoizing each by name so shared subtrees are built
// once (spec §9 "shared-tree").
type Builder struct {
	doc  *Document
	regs *Registries

	conditions map[string]aicore.Condition
	filters    map[string]aicore.Filter
	trees      map[string]behavior.TreeNode
}

// NewBuilder returns a Builder for doc against regs.
func NewBuilder(doc *Document, regs *Registries) *Builder {
	return &Builder{
		doc:        doc,
		regs:       regs,
		conditions: make(map[string]aicore.Condition),
		filters:    make(map[string]aicore.Filter),
		trees:      make(map[string]behavior.TreeNode),
	}
}

// Condition resolves (building and memoizing if needed) the named
// condition entry.
func (b *Builder) Condition(name string) (aicore.Condition, error) {
	if name == "" {
		return nil, nil
	}
	if c, ok := b.conditions[name]; ok {
		return c, nil
	}
	def, ok := b.doc.Conditions[name]
	if !ok {
		return nil, fmt.Errorf("treedef: undefined condition %q: %w", name, condition.ErrConfiguration)
	}
	c, err := b.regs.Conditions.Build(def.Type, def.Parameters)
	if err != nil {
		return nil, fmt.Errorf("treedef: building condition %q: %w", name, err)
	}
	b.conditions[name] = c
	return c, nil
}

// Filter resolves (building and memoizing if needed) the named filter
// entry.
func (b *Builder) Filter(name string) (aicore.Filter, error) {
	if f, ok := b.filters[name]; ok {
		return f, nil
	}
	def, ok := b.doc.Filters[name]
	if !ok {
		return nil, fmt.Errorf("treedef: undefined filter %q: %w", name, filter.ErrConfiguration)
	}
	f, err := b.regs.Filters.Build(def.Type, def.Parameters)
	if err != nil {
		return nil, fmt.Errorf("treedef: building filter %q: %w", name, err)
	}
	b.filters[name] = f
	return f, nil
}

// Tree resolves (building and memoizing if needed) the named tree entry,
// recursively resolving its children and condition.
func (b *Builder) Tree(name string) (behavior.TreeNode, error) {
	if n, ok := b.trees[name]; ok {
		return n, nil
	}
	def, ok := b.doc.Trees[name]
	if !ok {
		return nil, fmt.Errorf("treedef: undefined tree node %q: %w", name, behavior.ErrConfiguration)
	}

	cond, err := b.Condition(def.Condition)
	if err != nil {
		return nil, err
	}

	// Steer is special-cased here rather than through behavior.Registry:
	// it takes a Filter, which the generic Factory signature (a raw
	// parameter string) cannot carry.
	if def.Type == "steer" {
		target, err := b.Filter(def.Parameters)
		if err != nil {
			return nil, fmt.Errorf("treedef: tree %q steer target: %w", name, err)
		}
		node := behavior.NewSteer(name, cond, target)
		b.trees[name] = node
		return node, nil
	}

	children := make([]behavior.TreeNode, 0, len(def.Children))
	for _, childName := range def.Children {
		child, err := b.Tree(childName)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	node, err := b.regs.Trees.Build(def.Type, name, def.Parameters, cond, children)
	if err != nil {
		return nil, fmt.Errorf("treedef: building tree %q: %w", name, err)
	}
	b.trees[name] = node
	return node, nil
}

// BuildZones constructs every zone.Zone in the document, with each agent's
// character, aggro manager, and behaviour root wired up and applied (one
// Update(0) per zone so membership is populated synchronously on load).
func (b *Builder) BuildZones(aggroPolicy aggro.Policy, aggroThreshold float32) (map[string]*zone.Zone, error) {
	zones := make(map[string]*zone.Zone, len(b.doc.Zones))
	for _, zd := range b.doc.Zones {
		z := zone.New(zd.Name)
		for _, ad := range zd.Agents {
			root, err := b.Tree(ad.Root)
			if err != nil {
				return nil, fmt.Errorf("treedef: zone %q agent %d: %w", zd.Name, ad.Id, err)
			}
			char := character.NewBasic(character.Id(ad.Id), ad.X, ad.Y, ad.Z)
			ai := agent.New(char, aggroPolicy, aggroThreshold)
			ai.SetRoot(root)
			if !z.AddAI(ai) {
				return nil, fmt.Errorf("treedef: zone %q duplicate agent id %d", zd.Name, ad.Id)
			}
		}
		z.Update(0)
		z.SetDebug(zd.Debug)
		zones[zd.Name] = z
	}
	return zones, nil
}
