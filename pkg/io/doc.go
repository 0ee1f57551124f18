// Package io provides JSON import and export for flow diagrams.
//
// # JSON Format
//
// The format has three top-level members:
//
//	{
//	  "meta": {"diagram_type": "graph"},
//	  "nodes": [
//	    {"id": "app.xml#main", "label": "main", "kind": "anchor", "meta": {"kind": "flow"}},
//	    {"id": "app.xml#main/0", "label": "Listener", "kind": "step", "group": "app.xml#main"}
//	  ],
//	  "edges": [
//	    {"from": "app.xml#main", "to": "app.xml#main/0"}
//	  ]
//	}
//
// # Node Fields
//
// Required:
//   - id: Unique string identifier
//
// Optional:
//   - label: Display text (defaults to the id on import)
//   - kind: "anchor" or "step" (defaults to anchor)
//   - group: Anchor id of the owning container, steps only
//   - meta: Display hints written by the graph builder
//
// # Edge Fields
//
// Edges carry "from" and "to" node ids and an optional "kind" of
// "sequence" (default) or "reference".
//
// # Round Trip
//
// [WriteJSON] preserves node and edge order, so [ReadJSON] of its output
// yields a graph that renders identically. Numbers in meta decode as
// float64, as with any encoding/json map.
package io
