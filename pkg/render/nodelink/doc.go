// Package nodelink renders flow diagrams as Graphviz node-link diagrams.
//
// # Overview
//
// Each flow container becomes a cluster headed by its anchor node, with one
// box per processing step. Solid arrows follow execution order; dashed
// arrows with hollow heads are flow references.
//
// # Usage
//
// Convert a diagram to DOT, then render it:
//
//	dot := nodelink.ToDOT(g, "orders-api", nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// Or use the [Backend], which picks the output by request format:
//
//	b := nodelink.New(nodelink.Options{Detailed: true})
//	data, err := b.Render(ctx, g, render.Request{Type: diagram.TypeGraph, Format: render.FormatSVG})
//
// # Diagram Types
//
// The graph builder stores presentation hints in node metadata; this package
// only reads them:
//
//   - group: draw the anchor and its steps as a cluster
//   - collapsed: draw the anchor as one note listing its steps (compact type)
//   - unused: dashed outline for sub-flows nobody references
//   - source: message sources use the "cds" shape
//
// Sequence diagrams are rejected with an UNSUPPORTED error.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering; no Graphviz installation is required.
package nodelink
