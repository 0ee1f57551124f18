// Package render defines how diagram graphs become artifacts.
//
// # Overview
//
// A [Backend] turns a [diagram.Graph] into bytes for one [Request]. The
// pipeline holds a single backend and never inspects the graph's layout
// itself, so backends can be swapped or stubbed in tests.
//
// Two backends ship with muleflow:
//
//   - [nodelink]: Graphviz node-link diagrams as PNG, SVG or DOT
//   - [JSON]: the diagram structure, for external tools
//
// [Mux] combines backends by output format:
//
//	b := render.Mux{
//	    render.FormatPNG:  nodelink.New(nodelink.Options{}),
//	    render.FormatJSON: render.JSON,
//	}
//	data, err := b.Render(ctx, g, render.Request{Type: diagram.TypeGraph, Format: "png"})
//
// # Errors
//
// Unknown formats and diagram types a backend cannot draw yield
// UNSUPPORTED errors from [Unsupported]; failures inside a backend are
// returned as-is and classified by the caller.
//
// [nodelink]: github.com/matzehuels/muleflow/pkg/render/nodelink
package render
