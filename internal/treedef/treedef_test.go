package treedef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/aggro"
)

const sampleDoc = `
conditions:
  alwaysTrue:
    type: "true"
filters:
  highestAggro:
    type: selectHighestAggro
trees:
  idle-then-done:
    type: idle
    parameters: "10"
  patrol:
    type: prioritySelector
    condition: alwaysTrue
    children:
      - idle-then-done
zones:
  - name: forest
    debug: true
    agents:
      - id: 1
        root: patrol
      - id: 2
        root: patrol
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))
	return path
}

func TestLoadAndBuildZones(t *testing.T) {
	path := writeSample(t)
	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Zones, 1)

	builder := NewBuilder(doc, NewRegistries())
	zones, err := builder.BuildZones(aggro.DecrementPerSecond(1), 0)
	require.NoError(t, err)

	forest, ok := zones["forest"]
	require.True(t, ok)
	require.Equal(t, 2, forest.Size())
	require.True(t, forest.Debug())
}

func TestTreeUndefinedReferenceErrors(t *testing.T) {
	doc := &Document{
		Trees: map[string]TreeDef{
			"root": {Type: "prioritySelector", Children: []string{"missing"}},
		},
	}
	builder := NewBuilder(doc, NewRegistries())
	_, err := builder.Tree("root")
	require.Error(t, err)
}

func TestSharedSubtreeBuiltOnce(t *testing.T) {
	doc := &Document{
		Trees: map[string]TreeDef{
			"leaf": {Type: "idle", Parameters: "5"},
			"a":    {Type: "prioritySelector", Children: []string{"leaf"}},
			"b":    {Type: "selector", Children: []string{"leaf"}},
		},
	}
	builder := NewBuilder(doc, NewRegistries())

	a, err := builder.Tree("a")
	require.NoError(t, err)
	b, err := builder.Tree("b")
	require.NoError(t, err)

	require.Equal(t, a.Children()[0].ID(), b.Children()[0].ID(), "the same named leaf must resolve to the same node instance")
}
