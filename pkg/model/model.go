// Package model defines the structural model extracted from Mule
// configuration files: named flow containers holding ordered, possibly
// nested processing steps.
//
// Values in this package are created by the parser and never mutated
// afterwards. Flow references are stored by name only; resolving them is the
// graph builder's job, since a reference may point to a flow defined in a
// file parsed later.
package model

import "strings"

// Container kinds.
const (
	KindFlow         = "flow"
	KindSubFlow      = "sub-flow"
	KindErrorHandler = "error-handler"
)

// FlowContainer is one named flow, sub-flow or global error handler.
type FlowContainer struct {
	Type        string  // KindFlow, KindSubFlow or KindErrorHandler
	Name        string  // Unique within SourceFile, not globally
	Description string  // doc:description, if any
	Processors  []*Step // Document order; may be empty
	SourceFile  string  // File the container was read from
}

// IsFlow reports whether the container is a top-level flow.
func (c *FlowContainer) IsFlow() bool { return c.Type == KindFlow }

// IsSubFlow reports whether the container is a sub-flow.
func (c *FlowContainer) IsSubFlow() bool { return c.Type == KindSubFlow }

// References returns the names referenced by any step of the container,
// in document order, including nested steps. Duplicates are kept.
func (c *FlowContainer) References() []string {
	var refs []string
	Walk(c.Processors, func(s *Step, _ []int) {
		if s.Reference != "" {
			refs = append(refs, s.Reference)
		}
	})
	return refs
}

// Step is one element inside a flow. Steps form a tree: scopes such as
// choice, try or foreach carry their nested elements in Children.
type Step struct {
	Kind      string  // Element key, "prefix:name" or bare core name ("logger")
	Label     string  // doc:name or a generated label
	Children  []*Step // Nested steps in document order
	Reference string  // Target flow name for flow-ref, "" otherwise
	Dynamic   bool    // Reference is an expression (#[...])
	ConfigRef string  // config-ref attribute, if any
}

// Prefix returns the namespace prefix of the step kind ("http" for
// "http:listener"), or "" for core elements.
func (s *Step) Prefix() string {
	if i := strings.IndexByte(s.Kind, ':'); i >= 0 {
		return s.Kind[:i]
	}
	return ""
}

// Operation returns the local element name ("listener" for "http:listener").
func (s *Step) Operation() string {
	if i := strings.IndexByte(s.Kind, ':'); i >= 0 {
		return s.Kind[i+1:]
	}
	return s.Kind
}

// IsReference reports whether the step invokes another flow by name.
func (s *Step) IsReference() bool { return s.Reference != "" }

// Walk visits steps depth-first in document order. The path argument holds
// the index of each step within its parent, outermost first; visitors must
// not retain it.
func Walk(steps []*Step, visit func(s *Step, path []int)) {
	walk(steps, nil, visit)
}

func walk(steps []*Step, prefix []int, visit func(*Step, []int)) {
	for i, s := range steps {
		path := append(prefix, i)
		visit(s, path)
		walk(s.Children, path, visit)
	}
}

// Count returns the total number of steps in the tree, including nested ones.
func Count(steps []*Step) int {
	n := 0
	Walk(steps, func(*Step, []int) { n++ })
	return n
}
