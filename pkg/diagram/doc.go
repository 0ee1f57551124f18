// Package diagram defines the abstract diagram produced by the graph builder
// and consumed by render backends.
//
// # Structure
//
// A [Graph] holds two kinds of nodes. Anchor nodes stand for flow
// containers (flows, sub-flows and global error handlers); step nodes stand
// for the processors inside them and carry the anchor ID in [Node.Group].
// Edges are either sequential ([EdgeKindSequence]), following execution
// order inside a container, or references ([EdgeKindReference]), linking a
// flow-ref step to the anchor it invokes.
//
// Unlike a dependency graph, a diagram may contain cycles: a flow can
// reference itself directly or through other flows.
//
// # Determinism
//
// Nodes and edges are kept in insertion order, and the builder derives node
// IDs from the source file, container name and step position. Building the
// same model twice therefore yields graphs that compare equal node by node
// and edge by edge.
//
// # Display hints
//
// Backends read presentation hints from [Node.Meta] using the Meta* keys.
// The diagram [Type] only changes these hints, never the topology.
package diagram
