// Package builder turns aggregated flow containers into a [diagram.Graph].
//
// Building runs in two phases. The first adds an anchor node for every
// container and a node for every step, linked by sequential edges. The second
// links flow references by name once all containers are known, so a flow may
// reference one defined later or in another file. References that cannot be
// resolved are reported as [Diagnostic]s instead of failing the build.
//
// Node IDs are derived from the container's source file, its name and the
// step's position in the step tree, so building the same input twice yields
// identical graphs.
package builder

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/muleflow/pkg/catalog"
	"github.com/matzehuels/muleflow/pkg/diagram"
	"github.com/matzehuels/muleflow/pkg/model"
)

// Options configures Build.
type Options struct {
	// Catalog provides categories and colours. Nil uses an empty catalog, in
	// which every step is unknown.
	Catalog *catalog.Catalog
	// Type selects the style hints. Empty means diagram.DefaultType.
	Type diagram.Type
}

// branchKinds are elements whose siblings are alternatives rather than a
// sequence. Each branch hangs off the parent instead of the previous sibling.
var branchKinds = map[string]bool{
	"when":                        true,
	"otherwise":                   true,
	"route":                       true,
	"error-handler":               true,
	"on-error-propagate":          true,
	"on-error-continue":           true,
	"catch-exception-strategy":    true,
	"rollback-exception-strategy": true,
}

// AnchorID returns the base node ID of a container. Build appends a suffix
// when two containers share file and name.
func AnchorID(sourceFile, name string) string {
	return filepath.ToSlash(sourceFile) + "#" + name
}

// StepID returns the node ID of the step at path below anchor.
func StepID(anchor string, path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return anchor + "/" + strings.Join(parts, ".")
}

// Build converts containers into a diagram graph. Containers are never
// deduplicated: equally named containers become distinct anchors. The
// returned diagnostics list dangling and ambiguous references in document
// order.
func Build(containers []*model.FlowContainer, opts Options) (*diagram.Graph, []Diagnostic) {
	b := newBuilder(opts)
	for _, c := range containers {
		b.addContainer(c)
	}
	b.link()
	b.markUnused()
	return b.g, b.diags
}

type pendingRef struct {
	node      string
	step      *model.Step
	container *model.FlowContainer
}

type builder struct {
	g       *diagram.Graph
	catalog *catalog.Catalog
	typ     diagram.Type
	index   map[string][]string // containerKey -> anchor IDs in build order
	pending []pendingRef
	diags   []Diagnostic
}

func newBuilder(opts Options) *builder {
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.New()
	}
	typ := opts.Type
	if typ == "" {
		typ = diagram.DefaultType
	}
	return &builder{
		g:       diagram.New(diagram.Metadata{diagram.MetaDiagramType: string(typ)}),
		catalog: cat,
		typ:     typ,
		index:   make(map[string][]string),
	}
}

func (b *builder) addContainer(c *model.FlowContainer) {
	id := b.uniqueID(AnchorID(c.SourceFile, c.Name))
	label := c.Name
	if label == "" {
		label = c.Type
	}
	meta := diagram.Metadata{
		diagram.MetaKind:       c.Type,
		diagram.MetaName:       c.Name,
		diagram.MetaCategory:   catalog.CategoryFlow,
		diagram.MetaColor:      b.catalog.Color(catalog.CategoryFlow),
		diagram.MetaSourceFile: c.SourceFile,
	}
	if c.Description != "" {
		meta[diagram.MetaDescription] = c.Description
	}
	b.style(meta, true)

	b.mustAddNode(diagram.Node{ID: id, Label: label, Kind: diagram.NodeKindAnchor, Meta: meta})
	if c.Name != "" {
		key := containerKey(c.Type, c.Name)
		b.index[key] = append(b.index[key], id)
	}
	b.chain(c, id, id, c.Processors, nil)
}

// chain adds steps below parent. Ordinary steps follow each other; branch
// steps all start at parent.
func (b *builder) chain(c *model.FlowContainer, anchor, parent string, steps []*model.Step, path []int) {
	prev := parent
	for i, s := range steps {
		p := append(path[:len(path):len(path)], i)
		id := b.addStep(c, anchor, s, p)
		if s.Prefix() == "" && branchKinds[s.Kind] {
			b.sequence(parent, id)
		} else {
			b.sequence(prev, id)
			prev = id
		}
		b.chain(c, anchor, id, s.Children, p)
	}
}

func (b *builder) addStep(c *model.FlowContainer, anchor string, s *model.Step, path []int) string {
	comp := b.catalog.Lookup(s.Kind)
	meta := diagram.Metadata{
		diagram.MetaKind:     s.Kind,
		diagram.MetaCategory: comp.Category,
		diagram.MetaColor:    b.catalog.Color(comp.Category),
		diagram.MetaDepth:    len(path) - 1,
	}
	if s.ConfigRef != "" {
		meta[diagram.MetaConfigRef] = s.ConfigRef
	}
	if s.Reference != "" {
		meta[diagram.MetaReference] = s.Reference
	}
	if s.Dynamic {
		meta[diagram.MetaDynamic] = true
	}
	if comp.Async {
		meta[diagram.MetaAsync] = true
	}
	if comp.Source && len(path) == 1 && path[0] == 0 {
		meta[diagram.MetaSource] = true
	}
	b.style(meta, false)

	label := s.Label
	if label == "" {
		label = s.Kind
	}
	id := b.uniqueID(StepID(anchor, path))
	b.mustAddNode(diagram.Node{ID: id, Label: label, Kind: diagram.NodeKindStep, Group: anchor, Meta: meta})
	if s.IsReference() {
		b.pending = append(b.pending, pendingRef{node: id, step: s, container: c})
	}
	return id
}

// link resolves references recorded during the first phase.
func (b *builder) link() {
	for _, ref := range b.pending {
		targets := b.index[referenceKey(ref.step)]
		diag := Diagnostic{
			Node:       ref.node,
			Container:  ref.container.Name,
			SourceFile: ref.container.SourceFile,
			Reference:  ref.step.Reference,
			Dynamic:    ref.step.Dynamic,
		}
		switch len(targets) {
		case 0:
			diag.Kind = DanglingReference
			b.diags = append(b.diags, diag)
			continue
		case 1:
		default:
			diag.Kind = AmbiguousReference
			diag.Targets = targets
			b.diags = append(b.diags, diag)
		}
		for _, t := range targets {
			b.mustAddEdge(diagram.Edge{From: ref.node, To: t, Kind: diagram.EdgeKindReference})
		}
	}
}

// style records the hints backends need for the diagram type.
func (b *builder) style(meta diagram.Metadata, anchor bool) {
	meta[diagram.MetaStyle] = string(b.typ)
	meta[diagram.MetaCollapsed] = b.typ == diagram.TypeCompact
	if anchor {
		meta[diagram.MetaGroup] = b.typ != diagram.TypeSequence
	}
}

func (b *builder) sequence(from, to string) {
	b.mustAddEdge(diagram.Edge{From: from, To: to, Kind: diagram.EdgeKindSequence})
}

func (b *builder) uniqueID(base string) string {
	if _, taken := b.g.Node(base); !taken {
		return base
	}
	for n := 2; ; n++ {
		id := base + "~" + strconv.Itoa(n)
		if _, taken := b.g.Node(id); !taken {
			return id
		}
	}
}

// Node and edge insertion cannot fail for IDs this package generates;
// a failure is a programming error.
func (b *builder) mustAddNode(n diagram.Node) {
	if err := b.g.AddNode(n); err != nil {
		panic(fmt.Sprintf("builder: add node %s: %v", n.ID, err))
	}
}

func (b *builder) mustAddEdge(e diagram.Edge) {
	if err := b.g.AddEdge(e); err != nil {
		panic(fmt.Sprintf("builder: add edge %s -> %s: %v", e.From, e.To, err))
	}
}

// containerKey namespaces container names: flows and sub-flows share one
// namespace, global error handlers another.
func containerKey(kind, name string) string {
	if kind == model.KindErrorHandler {
		return "handler:" + name
	}
	return "flow:" + name
}

func referenceKey(s *model.Step) string {
	if s.Kind == model.KindErrorHandler {
		return containerKey(model.KindErrorHandler, s.Reference)
	}
	return containerKey(model.KindFlow, s.Reference)
}
