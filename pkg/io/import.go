package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/muleflow/pkg/diagram"
)

var nodeKinds = map[string]diagram.NodeKind{
	"":       diagram.NodeKindAnchor,
	"anchor": diagram.NodeKindAnchor,
	"step":   diagram.NodeKindStep,
}

var edgeKinds = map[string]diagram.EdgeKind{
	"":          diagram.EdgeKindSequence,
	"sequence":  diagram.EdgeKindSequence,
	"reference": diagram.EdgeKindReference,
}

// ReadJSON decodes a diagram written by [WriteJSON].
//
// ReadJSON returns an error if the JSON is malformed, a node or edge has an
// unknown kind, a node ID is duplicated, an edge references an unknown node,
// or a step names a group that is not an anchor. Errors are wrapped with the
// offending node or edge.
func ReadJSON(r io.Reader) (*diagram.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := diagram.New(data.Meta)
	for _, n := range data.Nodes {
		kind, ok := nodeKinds[n.Kind]
		if !ok {
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		nd := diagram.Node{ID: n.ID, Label: label, Kind: kind, Group: n.Group, Meta: n.Meta}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		kind, ok := edgeKinds[e.Kind]
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: unknown kind %q", e.From, e.To, e.Kind)
		}
		if err := g.AddEdge(diagram.Edge{From: e.From, To: e.To, Kind: kind, Meta: e.Meta}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ImportJSON reads a JSON file at path and returns the decoded diagram.
func ImportJSON(path string) (*diagram.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
