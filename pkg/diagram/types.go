package diagram

import (
	"fmt"
	"strings"
)

// Type selects the visual form of a diagram.
type Type string

const (
	// TypeGraph draws every step as its own node, grouped per flow.
	TypeGraph Type = "graph"
	// TypeCompact folds the steps of each flow into a single record node.
	TypeCompact Type = "compact"
	// TypeSequence is recognised on the command line but no backend draws
	// it yet.
	TypeSequence Type = "sequence"
)

// DefaultType is used when no diagram type is requested.
const DefaultType = TypeGraph

// Types lists every recognised diagram type.
var Types = []Type{TypeGraph, TypeCompact, TypeSequence}

// ParseType converts a user-supplied name into a Type. Matching ignores case;
// the empty string yields DefaultType.
func ParseType(s string) (Type, error) {
	if s == "" {
		return DefaultType, nil
	}
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown diagram type %q (must be one of: graph, compact, sequence)", s)
}

// Metadata keys set by the graph builder and read by render backends.
const (
	MetaCategory    = "category"     // Catalog category of a step or "flow" kind of an anchor
	MetaColor       = "color"        // Fill colour as #rrggbb
	MetaKind        = "kind"         // Element key of a step, container type of an anchor
	MetaName        = "name"         // Container name of an anchor, "" when unnamed
	MetaSourceFile  = "source_file"  // Configuration file the container came from
	MetaDescription = "description"  // Container description
	MetaConfigRef   = "config_ref"   // Step connector configuration
	MetaReference   = "reference"    // flow-ref target name
	MetaDynamic     = "dynamic"      // flow-ref target is an expression
	MetaAsync       = "async"        // Step runs asynchronously
	MetaSource      = "source"       // Step is the message source of its flow
	MetaUnused      = "unused"       // Sub-flow never referenced
	MetaStyle       = "style"        // Diagram type the hints were computed for
	MetaGroup       = "group"        // Draw members as one cluster
	MetaCollapsed   = "collapsed"    // Fold members into the anchor node
	MetaDepth       = "depth"        // Nesting depth of a step below its anchor
	MetaDiagramType = "diagram_type" // Graph-level: Type the graph was built for
)
