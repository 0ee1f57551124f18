package builder

import (
	"fmt"
	"strings"

	"github.com/matzehuels/muleflow/pkg/errors"
)

// DiagnosticKind classifies a problem found while linking references.
type DiagnosticKind int

const (
	// DanglingReference is a reference whose target container does not exist.
	// The edge is omitted.
	DanglingReference DiagnosticKind = iota
	// AmbiguousReference is a reference whose name matches containers in more
	// than one file. An edge is drawn to every match.
	AmbiguousReference
)

// String returns a short name for the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case DanglingReference:
		return "dangling reference"
	case AmbiguousReference:
		return "ambiguous reference"
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// Diagnostic describes a non-fatal linking problem.
type Diagnostic struct {
	Kind       DiagnosticKind
	Node       string   // ID of the referencing step node
	Container  string   // Name of the container holding the step
	SourceFile string   // File of the container holding the step
	Reference  string   // Referenced name as written
	Dynamic    bool     // Reference is an expression
	Targets    []string // Anchor IDs the reference resolved to
}

// String formats the diagnostic for log output.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q in %s", d.Kind, d.Reference, d.Container)
	if d.Dynamic {
		b.WriteString(" (expression)")
	}
	if len(d.Targets) > 0 {
		fmt.Fprintf(&b, " -> %s", strings.Join(d.Targets, ", "))
	}
	return b.String()
}

// Err converts the diagnostic to a coded error. Dangling references map to
// DANGLING_REFERENCE; ambiguous ones are not errors and return nil.
func (d Diagnostic) Err() error {
	if d.Kind != DanglingReference {
		return nil
	}
	return errors.New(errors.ErrCodeDanglingReference,
		"%s references unknown flow %q (%s)", d.Container, d.Reference, d.SourceFile)
}

// Count returns how many diagnostics have the given kind.
func Count(diags []Diagnostic, kind DiagnosticKind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
