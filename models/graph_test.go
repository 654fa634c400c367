package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *Graph {
	return NewGraph(
		Node{ID: "flows", DataType: "flow", DataSource: "cap1"},
		Node{ID: "alerts", DataType: "alert", DataSource: "cap1"},
		Node{ID: "more", DataType: "flow", DataSource: "cap2"},
		Node{ID: "filter", Type: "f", Children: []string{"flows", "more"}},
		Node{ID: "view", Type: "v", Children: []string{"filter", "alerts"}},
	)
}

func TestGraphWithIsImmutable(t *testing.T) {
	g := sampleGraph()
	next := g.With(Node{ID: "extra", DataType: "flow"})

	_, ok := g.NodeByID("extra")
	assert.False(t, ok)
	_, ok = next.NodeByID("extra")
	assert.True(t, ok)
	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 6, next.Len())
}

func TestGraphCopiesNodes(t *testing.T) {
	n := Node{ID: "a", Children: []string{"b"}, Filters: map[string]FilterValue{"k": {FieldValues: []string{"v"}}}}
	g := NewGraph(n)
	n.Children[0] = "changed"
	n.Filters["k"].FieldValues[0] = "changed"

	got, ok := g.NodeByID("a")
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, got.Children)
	assert.Equal(t, []string{"v"}, got.Filters["k"].FieldValues)
}

func TestGraphWithout(t *testing.T) {
	g := sampleGraph()
	next := g.Without("alerts")

	_, ok := next.NodeByID("alerts")
	assert.False(t, ok)
	view, _ := next.NodeByID("view")
	assert.Equal(t, []string{"filter"}, view.Children)

	before, _ := g.NodeByID("view")
	assert.Equal(t, []string{"filter", "alerts"}, before.Children)
	_, ok = g.NodeByID("alerts")
	assert.True(t, ok)
}

func TestGraphLeavesAndDataTypes(t *testing.T) {
	g := sampleGraph()
	leaves := g.Leaves("view")
	ids := make([]string, len(leaves))
	for i, l := range leaves {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"flows", "more", "alerts"}, ids)
	assert.Equal(t, []string{"flow", "alert"}, g.UnderlyingDataTypes("view"))
	assert.Equal(t, []string{"flow"}, g.UnderlyingDataTypes("flows"))
	assert.Nil(t, g.UnderlyingDataTypes("missing"))
}

func TestNilGraph(t *testing.T) {
	var g *Graph
	_, ok := g.NodeByID("a")
	assert.False(t, ok)
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 1, g.With(Node{ID: "a"}).Len())
}
