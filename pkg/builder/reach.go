package builder

import (
	"errors"
	"maps"

	"github.com/dominikbraun/graph"

	"github.com/matzehuels/muleflow/pkg/diagram"
	mferrors "github.com/matzehuels/muleflow/pkg/errors"
	"github.com/matzehuels/muleflow/pkg/model"
)

// ReferenceGraph returns the container-level call graph of g: one vertex per
// anchor ID and an edge from every container holding a reference step to each
// container it references.
func ReferenceGraph(g *diagram.Graph) (graph.Graph[string, string], error) {
	rg := graph.New(graph.StringHash, graph.Directed())
	for _, a := range g.Anchors() {
		if err := rg.AddVertex(a.ID); err != nil {
			return nil, err
		}
	}
	for _, e := range g.EdgesOfKind(diagram.EdgeKindReference) {
		from, ok := g.Node(e.From)
		if !ok {
			continue
		}
		src := from.Group
		if from.IsAnchor() {
			src = from.ID
		}
		if err := rg.AddEdge(src, e.To); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, err
		}
	}
	return rg, nil
}

// markUnused flags sub-flows that no step references.
func (b *builder) markUnused() {
	rg, err := ReferenceGraph(b.g)
	if err != nil {
		return
	}
	preds, err := rg.PredecessorMap()
	if err != nil {
		return
	}
	for _, a := range b.g.Anchors() {
		if a.Meta[diagram.MetaKind] == model.KindSubFlow && len(preds[a.ID]) == 0 {
			a.Meta[diagram.MetaUnused] = true
		}
	}
}

// Subgraph returns the part of g reachable from the containers named flow:
// those containers, every container they reference directly or indirectly,
// and all their steps. Edges between kept nodes are preserved in order.
// Returns a FLOW_NOT_FOUND error when no container has that name.
func Subgraph(g *diagram.Graph, flow string) (*diagram.Graph, error) {
	var roots []string
	for _, a := range g.Anchors() {
		if flow != "" && anchorName(a) == flow && a.Meta[diagram.MetaKind] != model.KindErrorHandler {
			roots = append(roots, a.ID)
		}
	}
	if len(roots) == 0 {
		return nil, mferrors.New(mferrors.ErrCodeFlowNotFound, "flow %q not found", flow)
	}

	rg, err := ReferenceGraph(g)
	if err != nil {
		return nil, mferrors.Wrap(mferrors.ErrCodeInternal, err, "build reference graph")
	}
	keep := make(map[string]bool)
	for _, root := range roots {
		err := graph.BFS(rg, root, func(id string) bool {
			keep[id] = true
			return false
		})
		if err != nil {
			return nil, mferrors.Wrap(mferrors.ErrCodeInternal, err, "traverse from %s", root)
		}
	}

	out := diagram.New(maps.Clone(g.Meta()))
	for _, n := range g.Nodes() {
		owner := n.Group
		if n.IsAnchor() {
			owner = n.ID
		}
		if !keep[owner] {
			continue
		}
		cp := *n
		cp.Meta = maps.Clone(n.Meta)
		if err := out.AddNode(cp); err != nil {
			return nil, mferrors.Wrap(mferrors.ErrCodeInternal, err, "copy node %s", n.ID)
		}
	}
	for _, e := range g.Edges() {
		if _, ok := out.Node(e.From); !ok {
			continue
		}
		if _, ok := out.Node(e.To); !ok {
			continue
		}
		e.Meta = maps.Clone(e.Meta)
		if err := out.AddEdge(e); err != nil {
			return nil, mferrors.Wrap(mferrors.ErrCodeInternal, err, "copy edge %s -> %s", e.From, e.To)
		}
	}
	return out, nil
}

// FlowNames returns the distinct names of top-level flows in g, in build
// order. Unnamed flows are left out.
func FlowNames(g *diagram.Graph) []string {
	var names []string
	seen := make(map[string]bool)
	for _, a := range g.Anchors() {
		name := anchorName(a)
		if a.Meta[diagram.MetaKind] == model.KindFlow && name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// anchorName returns the container name recorded on an anchor. Graphs
// imported without it fall back to the label.
func anchorName(a *diagram.Node) string {
	if name, ok := a.Meta[diagram.MetaName].(string); ok {
		return name
	}
	return a.Label
}
