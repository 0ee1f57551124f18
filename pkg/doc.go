// Package pkg provides the core libraries for muleflow, which turns Mule
// flow configuration XML into diagrams.
//
// # Overview
//
// A Mule application wires its integration logic as flows, sub-flows and
// error handlers spread over many XML files. muleflow reads those files,
// links flow references across them, and draws the result. The pkg
// directory is organized into these areas:
//
//  1. [source] - Locate configuration files from a file, project or folder
//  2. [catalog] - Classify XML elements (source, processor, scope, router)
//  3. [parser] - Read configuration files into flow containers
//  4. [builder] - Link containers into a [diagram] graph
//  5. [render] - Draw the graph (Graphviz node-link, JSON)
//  6. [pipeline] - Orchestration (resolve → parse → build → render)
//
// # Architecture
//
// The typical data flow:
//
//	file / project directory
//	         ↓
//	    [source] (convention table, file list)
//	         ↓
//	    [parser] (one worker per file, merged in file order)
//	         ↓
//	    [builder] (nodes, sequence and reference edges, diagnostics)
//	         ↓
//	    [render] backend
//	         ↓
//	    PNG/SVG/DOT/JSON output
//
// # Quick Start
//
//	desc := source.Resolve("./orders-api", logger)
//	containers, _ := parser.Aggregate(ctx, desc.Files, parser.Options{Logger: logger})
//
//	cat, _ := catalog.Default()
//	g, diags := builder.Build(containers, builder.Options{Catalog: cat, Type: diagram.TypeGraph})
//
//	dot := nodelink.ToDOT(g, "Orders API", nodelink.Options{})
//	svg, _ := nodelink.RenderSVG(ctx, dot)
//
// Most callers use the pipeline instead:
//
//	r := pipeline.NewRenderer(pipeline.Options{Source: "./orders-api", Format: "svg"})
//	result, err := r.Execute(ctx)
//
// # Supporting Packages
//
// [model] holds the parsed flow containers and steps. [io] exports and
// imports diagram graphs as JSON. [cache] stores rendered artifacts in a
// file, memory or Redis cache. [errors] carries the error codes shown to
// users. [observability] exposes stage hooks for metrics and tracing.
//
// [source]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/source
// [catalog]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/catalog
// [parser]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/parser
// [builder]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/builder
// [diagram]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/diagram
// [render]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/pipeline
// [model]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/model
// [io]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/muleflow/pkg/observability
package pkg
