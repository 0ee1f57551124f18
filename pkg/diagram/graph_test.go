package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Graph {
	t.Helper()
	g := New(nil)
	require.NoError(t, g.AddNode(Node{ID: "main", Label: "main", Kind: NodeKindAnchor}))
	require.NoError(t, g.AddNode(Node{ID: "main/0", Label: "Listener", Kind: NodeKindStep, Group: "main"}))
	require.NoError(t, g.AddNode(Node{ID: "main/1", Label: "flow-ref", Kind: NodeKindStep, Group: "main"}))
	require.NoError(t, g.AddNode(Node{ID: "sub", Label: "sub", Kind: NodeKindAnchor}))
	require.NoError(t, g.AddEdge(Edge{From: "main", To: "main/0"}))
	require.NoError(t, g.AddEdge(Edge{From: "main/0", To: "main/1"}))
	require.NoError(t, g.AddEdge(Edge{From: "main/1", To: "sub", Kind: EdgeKindReference}))
	return g
}

func TestGraph_AddNode(t *testing.T) {
	g := New(nil)
	assert.ErrorIs(t, g.AddNode(Node{}), ErrInvalidNodeID)

	require.NoError(t, g.AddNode(Node{ID: "a"}))
	assert.ErrorIs(t, g.AddNode(Node{ID: "a"}), ErrDuplicateNodeID)

	n, ok := g.Node("a")
	require.True(t, ok)
	assert.NotNil(t, n.Meta)
}

func TestGraph_AddEdge(t *testing.T) {
	g := New(nil)
	require.NoError(t, g.AddNode(Node{ID: "a"}))
	assert.ErrorIs(t, g.AddEdge(Edge{From: "x", To: "a"}), ErrUnknownSourceNode)
	assert.ErrorIs(t, g.AddEdge(Edge{From: "a", To: "x"}), ErrUnknownTargetNode)
	assert.Zero(t, g.EdgeCount())

	require.NoError(t, g.AddEdge(Edge{From: "a", To: "a", Kind: EdgeKindReference}))
	assert.True(t, g.HasEdge("a", "a"), "self references are allowed")
	assert.NotNil(t, g.Edges()[0].Meta)
}

func TestGraph_Accessors(t *testing.T) {
	g := sample(t)

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []string{"main", "main/0", "main/1", "sub"}, NodeIDs(g.Nodes()))
	assert.Equal(t, []string{"main", "sub"}, NodeIDs(g.Anchors()))
	assert.Equal(t, []string{"main/0", "main/1"}, NodeIDs(g.Members("main")))
	assert.Empty(t, g.Members("sub"))
	assert.Equal(t, []string{"main/1"}, g.Parents("sub"))
	assert.Equal(t, []string{"main/1"}, g.Children("main/0"))

	refs := g.EdgesOfKind(EdgeKindReference)
	require.Len(t, refs, 1)
	assert.Equal(t, "sub", refs[0].To)
	assert.Len(t, g.EdgesOfKind(EdgeKindSequence), 2)
}

func TestGraph_EdgesReturnsCopy(t *testing.T) {
	g := sample(t)
	edges := g.Edges()
	edges[0].To = "changed"
	assert.Equal(t, "main/0", g.Edges()[0].To)
}

func TestGraph_Validate(t *testing.T) {
	g := sample(t)
	require.NoError(t, g.Validate())

	require.NoError(t, g.AddNode(Node{ID: "orphan", Kind: NodeKindStep, Group: "missing"}))
	assert.ErrorIs(t, g.Validate(), ErrUnknownGroup)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "anchor", NodeKindAnchor.String())
	assert.Equal(t, "step", NodeKindStep.String())
	assert.Equal(t, "sequence", EdgeKindSequence.String())
	assert.Equal(t, "reference", EdgeKindReference.String())
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"", TypeGraph, false},
		{"graph", TypeGraph, false},
		{"Compact", TypeCompact, false},
		{" sequence ", TypeSequence, false},
		{"tower", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
