package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/muleflow/pkg/diagram"
	"github.com/matzehuels/muleflow/pkg/model"
	"github.com/matzehuels/muleflow/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed appends the element kind and connector configuration to step
	// labels.
	Detailed bool
	// RankDir is the Graphviz layout direction. Empty means "TB".
	RankDir string
}

// Backend renders diagrams with Graphviz. It implements [render.Backend].
type Backend struct {
	opts Options
}

// New creates a Graphviz backend.
func New(opts Options) *Backend {
	return &Backend{opts: opts}
}

// Render draws g as PNG, SVG or DOT. Sequence diagrams and other formats
// are reported as UNSUPPORTED.
func (b *Backend) Render(ctx context.Context, g *diagram.Graph, req render.Request) ([]byte, error) {
	if err := render.RequireType(req.Type, diagram.TypeGraph, diagram.TypeCompact); err != nil {
		return nil, err
	}
	dot := ToDOT(g, req.Title, b.opts)

	switch req.Format {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatSVG:
		return RenderSVG(ctx, dot)
	case render.FormatPNG:
		return RenderPNG(ctx, dot)
	}
	return nil, render.Unsupported("format %q", req.Format)
}

var _ render.Backend = (*Backend)(nil)

// ToDOT converts a diagram to Graphviz DOT source.
//
// Anchors whose Meta marks them as grouped become clusters holding their
// steps. Collapsed anchors are drawn as a single node listing their steps,
// and reference edges are lifted to the anchors. Unused sub-flows are drawn
// dashed.
func ToDOT(g *diagram.Graph, title string, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  fontname=\"Helvetica\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if title != "" {
		fmt.Fprintf(&buf, "  label=%s;\n  labelloc=t;\n  fontsize=18;\n", quote(title))
	}
	buf.WriteString("\n")

	collapsed := make(map[string]bool)
	for i, a := range g.Anchors() {
		switch {
		case metaBool(a.Meta, diagram.MetaCollapsed):
			collapsed[a.ID] = true
			fmt.Fprintf(&buf, "  %s [%s];\n", quote(a.ID), strings.Join(collapsedAttrs(g, a), ", "))
		case metaBool(a.Meta, diagram.MetaGroup):
			writeCluster(&buf, g, a, i, opts)
		default:
			fmt.Fprintf(&buf, "  %s [%s];\n", quote(a.ID), strings.Join(anchorAttrs(a), ", "))
			for _, n := range g.Members(a.ID) {
				fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(stepAttrs(n, opts.Detailed), ", "))
			}
		}
	}

	buf.WriteString("\n")
	seen := make(map[[2]string]bool)
	for _, e := range g.Edges() {
		from, to := e.From, e.To
		if n, ok := g.Node(from); ok && collapsed[n.Group] {
			from = n.Group
		}
		if n, ok := g.Node(to); ok && collapsed[n.Group] {
			to = n.Group
		}
		if e.Kind == diagram.EdgeKindSequence && (collapsed[from] || collapsed[to]) {
			continue
		}
		if seen[[2]string{from, to}] && e.Kind == diagram.EdgeKindReference {
			continue
		}
		seen[[2]string{from, to}] = true

		if e.Kind == diagram.EdgeKindReference {
			fmt.Fprintf(&buf, "  %s -> %s [style=dashed, color=\"#4a6fa5\", arrowhead=empty];\n", quote(from), quote(to))
		} else {
			fmt.Fprintf(&buf, "  %s -> %s;\n", quote(from), quote(to))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeCluster(buf *bytes.Buffer, g *diagram.Graph, a *diagram.Node, index int, opts Options) {
	style := "rounded"
	if metaBool(a.Meta, diagram.MetaUnused) {
		style = "rounded,dashed"
	}
	fmt.Fprintf(buf, "  subgraph \"cluster_%d\" {\n", index)
	fmt.Fprintf(buf, "    label=%s;\n", quote(clusterLabel(a)))
	fmt.Fprintf(buf, "    style=%s;\n", quote(style))
	buf.WriteString("    color=\"#9aa5b1\";\n")
	fmt.Fprintf(buf, "    %s [%s];\n", quote(a.ID), strings.Join(anchorAttrs(a), ", "))
	for _, n := range g.Members(a.ID) {
		fmt.Fprintf(buf, "    %s [%s];\n", quote(n.ID), strings.Join(stepAttrs(n, opts.Detailed), ", "))
	}
	buf.WriteString("  }\n")
}

func clusterLabel(a *diagram.Node) string {
	kind, _ := a.Meta[diagram.MetaKind].(string)
	if file, ok := a.Meta[diagram.MetaSourceFile].(string); ok && file != "" {
		return kind + " · " + baseName(file)
	}
	return kind
}

func anchorAttrs(a *diagram.Node) []string {
	style := "filled"
	if metaBool(a.Meta, diagram.MetaUnused) {
		style = "filled,dashed"
	}
	attrs := []string{
		"label=" + quote(a.Label),
		"shape=" + anchorShape(a),
		"style=" + quote(style),
		"fontsize=14",
	}
	if c, ok := a.Meta[diagram.MetaColor].(string); ok && c != "" {
		attrs = append(attrs, "fillcolor="+quote(c))
	}
	if d, ok := a.Meta[diagram.MetaDescription].(string); ok && d != "" {
		attrs = append(attrs, "tooltip="+quote(d))
	}
	return attrs
}

func anchorShape(a *diagram.Node) string {
	switch a.Meta[diagram.MetaKind] {
	case model.KindSubFlow:
		return "component"
	case model.KindErrorHandler:
		return "octagon"
	}
	return "box3d"
}

func stepAttrs(n *diagram.Node, detailed bool) []string {
	attrs := []string{"label=" + quote(stepLabel(n, detailed))}
	if c, ok := n.Meta[diagram.MetaColor].(string); ok && c != "" {
		attrs = append(attrs, "fillcolor="+quote(c))
	}
	switch {
	case metaBool(n.Meta, diagram.MetaSource):
		attrs = append(attrs, "shape=cds")
	case metaBool(n.Meta, diagram.MetaAsync):
		attrs = append(attrs, "style=\"rounded,filled,bold\"")
	}
	if metaBool(n.Meta, diagram.MetaDynamic) {
		attrs = append(attrs, "fontcolor=\"#b23b3b\"")
	}
	return attrs
}

func stepLabel(n *diagram.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	kind, _ := n.Meta[diagram.MetaKind].(string)
	lines := []string{n.Label}
	if kind != "" && kind != n.Label {
		lines = append(lines, "<"+kind+">")
	}
	if ref, ok := n.Meta[diagram.MetaConfigRef].(string); ok && ref != "" {
		lines = append(lines, "config: "+ref)
	}
	return strings.Join(lines, "\n")
}

// collapsedAttrs folds the anchor's steps into a left-aligned listing.
func collapsedAttrs(g *diagram.Graph, a *diagram.Node) []string {
	var label strings.Builder
	label.WriteString(escape(a.Label))
	label.WriteString(`\n`)
	for _, n := range g.Members(a.ID) {
		depth := metaInt(n.Meta, diagram.MetaDepth)
		label.WriteString(strings.Repeat("  ", depth+1))
		label.WriteString(escape(n.Label))
		label.WriteString(`\l`)
	}

	style := "filled"
	if metaBool(a.Meta, diagram.MetaUnused) {
		style = "filled,dashed"
	}
	attrs := []string{
		`label="` + label.String() + `"`,
		"shape=note",
		"style=" + quote(style),
	}
	if c, ok := a.Meta[diagram.MetaColor].(string); ok && c != "" {
		attrs = append(attrs, "fillcolor="+quote(c))
	}
	return attrs
}

// quote returns s as a DOT string literal.
func quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\n`)
	return r.Replace(s)
}

func metaBool(m diagram.Metadata, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func metaInt(m diagram.Metadata, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
