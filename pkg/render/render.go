package render

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/muleflow/pkg/diagram"
	"github.com/matzehuels/muleflow/pkg/errors"
	mfio "github.com/matzehuels/muleflow/pkg/io"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatPNG

// Formats lists every supported output format.
var Formats = []string{FormatPNG, FormatSVG, FormatDOT, FormatJSON}

// ParseFormat normalises a user-supplied format name. The empty string yields
// DefaultFormat.
func ParseFormat(s string) (string, error) {
	if s == "" {
		return DefaultFormat, nil
	}
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if !slices.Contains(Formats, f) {
		return "", errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", s, strings.Join(Formats, ", "))
	}
	return f, nil
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	return "." + format
}

// Request describes one artifact to draw.
type Request struct {
	Type   diagram.Type // Diagram type the graph was built for
	Format string       // One of the Format* constants
	Title  string       // Optional caption
}

// Backend draws a diagram graph into an artifact. Implementations report
// diagram types or formats they cannot draw with an UNSUPPORTED error.
type Backend interface {
	Render(ctx context.Context, g *diagram.Graph, req Request) ([]byte, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, g *diagram.Graph, req Request) ([]byte, error)

// Render calls f.
func (f BackendFunc) Render(ctx context.Context, g *diagram.Graph, req Request) ([]byte, error) {
	return f(ctx, g, req)
}

// Mux dispatches requests to a backend by format.
type Mux map[string]Backend

// Render forwards to the backend registered for req.Format.
func (m Mux) Render(ctx context.Context, g *diagram.Graph, req Request) ([]byte, error) {
	b, ok := m[req.Format]
	if !ok {
		return nil, Unsupported("format %q", req.Format)
	}
	return b.Render(ctx, g, req)
}

// Unsupported returns an UNSUPPORTED error naming what could not be drawn.
func Unsupported(format string, args ...any) error {
	return errors.New(errors.ErrCodeUnsupported, "unsupported "+format, args...)
}

// RequireType returns an UNSUPPORTED error unless t is one of supported.
func RequireType(t diagram.Type, supported ...diagram.Type) error {
	if slices.Contains(supported, t) {
		return nil
	}
	return Unsupported("diagram type %q", t)
}

// JSON writes the diagram structure as JSON. Sequence diagrams are
// rejected like in every other backend.
var JSON Backend = BackendFunc(func(ctx context.Context, g *diagram.Graph, req Request) ([]byte, error) {
	if err := RequireType(req.Type, diagram.TypeGraph, diagram.TypeCompact); err != nil {
		return nil, err
	}
	data, err := mfio.MarshalJSON(g)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return data, nil
})
