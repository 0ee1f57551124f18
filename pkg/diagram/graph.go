package diagram

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrUnknownGroup is returned by [Graph.Validate] when a step node names a
	// group that is not an anchor node.
	ErrUnknownGroup = errors.New("unknown node group")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Metadata maps are never nil once added to a Graph.
type Metadata map[string]any

// NodeKind distinguishes flow anchors from processing steps.
type NodeKind int

const (
	// NodeKindAnchor represents a flow container (flow, sub-flow, error handler).
	NodeKindAnchor NodeKind = iota
	// NodeKindStep represents one processing step inside a container.
	NodeKindStep
)

// String returns "anchor" or "step".
func (k NodeKind) String() string {
	if k == NodeKindStep {
		return "step"
	}
	return "anchor"
}

// EdgeKind distinguishes sequential flow edges from flow references.
type EdgeKind int

const (
	// EdgeKindSequence connects a step to the step executed after it, or an
	// anchor/scope to its first step.
	EdgeKindSequence EdgeKind = iota
	// EdgeKindReference connects a flow-ref step to the anchor of the flow it
	// invokes.
	EdgeKindReference
)

// String returns "sequence" or "reference".
func (k EdgeKind) String() string {
	if k == EdgeKindReference {
		return "reference"
	}
	return "sequence"
}

// Node is a vertex of the diagram.
type Node struct {
	ID    string   // Deterministic identifier, see AnchorID and StepID
	Label string   // Display text
	Kind  NodeKind // Anchor or step
	Group string   // Anchor ID of the owning container; "" for anchors
	Meta  Metadata // Display hints and model attributes
}

// IsAnchor reports whether the node represents a flow container.
func (n Node) IsAnchor() bool { return n.Kind == NodeKindAnchor }

// Edge is a directed connection between two nodes.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
	Meta Metadata
}

// Graph is the abstract diagram handed to render backends. It preserves
// insertion order for nodes and edges so that identical build inputs produce
// identical output.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// mutation.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	meta     Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID or
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Returns
// ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is missing.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's nodes.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// Anchors returns the anchor nodes in insertion order.
func (g *Graph) Anchors() []*Node {
	var anchors []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.IsAnchor() {
			anchors = append(anchors, n)
		}
	}
	return anchors
}

// Members returns the step nodes belonging to the anchor, in insertion order.
func (g *Graph) Members(anchorID string) []*Node {
	var members []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Group == anchorID && !n.IsAnchor() {
			members = append(members, n)
		}
	}
	return members
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EdgesOfKind returns the edges of one kind in insertion order.
func (g *Graph) EdgesOfKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// HasEdge reports whether an edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return slices.Contains(g.outgoing[from], to)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the targets of the node's outgoing edges.
// The returned slice should not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the sources of the node's incoming edges.
// The returned slice should not be modified.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// Validate checks that every edge endpoint exists and that every step node
// belongs to an existing anchor.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	for _, n := range g.nodes {
		if n.IsAnchor() {
			continue
		}
		anchor, ok := g.nodes[n.Group]
		if !ok || !anchor.IsAnchor() {
			return ErrUnknownGroup
		}
	}
	return nil
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
