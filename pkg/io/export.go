package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/muleflow/pkg/diagram"
)

type graph struct {
	Meta  diagram.Metadata `json:"meta,omitempty"`
	Nodes []node           `json:"nodes"`
	Edges []edge           `json:"edges"`
}

type node struct {
	ID    string           `json:"id"`
	Label string           `json:"label,omitempty"`
	Kind  string           `json:"kind,omitempty"`
	Group string           `json:"group,omitempty"`
	Meta  diagram.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From string           `json:"from"`
	To   string           `json:"to"`
	Kind string           `json:"kind,omitempty"`
	Meta diagram.Metadata `json:"meta,omitempty"`
}

// WriteJSON encodes a diagram as indented JSON and writes it to w.
func WriteJSON(g *diagram.Graph, w io.Writer) error {
	nodes := g.Nodes()
	edges := g.Edges()
	out := graph{
		Meta:  g.Meta(),
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}

	for i, n := range nodes {
		out.Nodes[i] = node{
			ID:    n.ID,
			Label: n.Label,
			Kind:  n.Kind.String(),
			Group: n.Group,
			Meta:  n.Meta,
		}
	}
	for i, e := range edges {
		out.Edges[i] = edge{From: e.From, To: e.To, Kind: e.Kind.String(), Meta: e.Meta}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON returns the encoding produced by [WriteJSON].
func MarshalJSON(g *diagram.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSON writes a diagram to a JSON file at path.
func ExportJSON(g *diagram.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
