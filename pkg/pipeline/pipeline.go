// Package pipeline turns a Mule project into a diagram file.
//
// # Architecture
//
// A [Renderer] moves through four stages, each feeding the next:
//
//  1. Resolve: locate the configuration root and list its files
//  2. Parse: read every file into flow containers
//  3. Build: link the containers into a diagram graph
//  4. Render: hand the graph to a render backend and write the artifact
//
// Parse problems and dangling references are logged and never stop a run.
// A project without any flow container fails with NO_FLOWS before the
// backend is called; backend and write failures fail the run.
//
// # Usage
//
//	r := pipeline.NewRenderer(pipeline.Options{
//	    Source:         "./orders-api",
//	    TargetDir:      "./out",
//	    OutputFilename: "orders",
//	    Format:         "svg",
//	    Logger:         logger,
//	})
//	result, err := r.Execute(ctx)
//
// [Renderer.Render] is the boolean form used by the CLI: it logs the error
// and reports success.
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/muleflow/pkg/builder"
	"github.com/matzehuels/muleflow/pkg/cache"
	"github.com/matzehuels/muleflow/pkg/catalog"
	"github.com/matzehuels/muleflow/pkg/diagram"
	"github.com/matzehuels/muleflow/pkg/errors"
	"github.com/matzehuels/muleflow/pkg/model"
	"github.com/matzehuels/muleflow/pkg/render"
	"github.com/matzehuels/muleflow/pkg/render/nodelink"
	"github.com/matzehuels/muleflow/pkg/source"
)

// Default values shared by the CLI and library callers.
const (
	// DefaultTargetDir is where artifacts are written when no target is given.
	DefaultTargetDir = "."

	// DefaultOutputFilename is the artifact base name when none is given.
	DefaultOutputFilename = "mule-flows"
)

// Options contains all configuration for one pipeline run.
type Options struct {
	Source         string       // Project directory or configuration file
	TargetDir      string       // Directory receiving the artifact
	OutputFilename string       // Artifact base name, extension optional
	DiagramType    diagram.Type // graph, compact or sequence
	Format         string       // png, svg, dot or json
	Flow           string       // Only draw this flow and what it references
	Singles        bool         // Also draw one artifact per flow
	Workers        int          // Concurrent file parsing and single-flow rendering
	Title          string       // Diagram caption
	Detailed       bool         // Show element kinds and configs on steps

	// Runtime collaborators. Nil values get defaults.
	Logger  *log.Logger
	Catalog *catalog.Catalog
	Backend render.Backend
	Cache   cache.Cache
	Keyer   cache.Keyer

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source path is required")
	}
	if o.TargetDir == "" {
		o.TargetDir = DefaultTargetDir
	}
	if o.OutputFilename == "" {
		o.OutputFilename = DefaultOutputFilename
	}
	if err := errors.ValidateOutputFilename(o.OutputFilename); err != nil {
		return err
	}

	t, err := diagram.ParseType(string(o.DiagramType))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDiagramType, err, "invalid diagram type")
	}
	o.DiagramType = t

	f, err := render.ParseFormat(o.Format)
	if err != nil {
		return err
	}
	o.Format = f

	if o.Flow != "" {
		if err := errors.ValidateFlowName(o.Flow); err != nil {
			return err
		}
	}

	if o.Catalog == nil {
		cat, err := catalog.Default()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "load component catalog")
		}
		o.Catalog = cat
	}
	if o.Backend == nil {
		o.Backend = DefaultBackend(o.Detailed)
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	o.validated = true
	return nil
}

// DefaultBackend draws png, svg and dot with Graphviz and json with the
// structural exporter.
func DefaultBackend(detailed bool) render.Backend {
	gv := nodelink.New(nodelink.Options{Detailed: detailed})
	return render.Mux{
		render.FormatPNG:  gv,
		render.FormatSVG:  gv,
		render.FormatDOT:  gv,
		render.FormatJSON: render.JSON,
	}
}

// ArtifactKeyOpts returns cache key options for artifacts drawn with o.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      o.Format,
		DiagramType: string(o.DiagramType),
		Title:       o.Title,
		Detailed:    o.Detailed,
	}
}

// DrawingContext is what the backend needs to know about the artifact.
type DrawingContext struct {
	DiagramType diagram.Type
	OutputFile  string // TargetDir joined with OutputFilename
	Format      string
	FlowName    string // Empty for the whole project
}

// DrawingContext derives the drawing context of the main artifact.
func (o *Options) DrawingContext() DrawingContext {
	return DrawingContext{
		DiagramType: o.DiagramType,
		OutputFile:  filepath.Join(o.TargetDir, o.OutputFilename),
		Format:      o.Format,
		FlowName:    o.Flow,
	}
}

// ArtifactPath is OutputFile with the format extension appended unless the
// file name already ends in it. Other dots are part of the name.
func (d DrawingContext) ArtifactPath() string {
	return d.stem() + render.Extension(d.Format)
}

// SinglePath returns the artifact path of one flow: the output name followed
// by "-" and suffix, then the format extension.
func (d DrawingContext) SinglePath(suffix string) string {
	return d.stem() + "-" + suffix + render.Extension(d.Format)
}

// stem is OutputFile without a trailing format extension.
func (d DrawingContext) stem() string {
	ext := render.Extension(d.Format)
	if n := len(d.OutputFile) - len(ext); n > 0 && strings.EqualFold(d.OutputFile[n:], ext) {
		return d.OutputFile[:n]
	}
	return d.OutputFile
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Descriptor  source.Descriptor
	Containers  []*model.FlowContainer
	Graph       *diagram.Graph
	Diagnostics []builder.Diagnostic

	// Artifacts lists written files. The main artifact comes first,
	// followed by single-flow artifacts in flow order.
	Artifacts []Artifact

	Stats     Stats
	CacheInfo CacheInfo
}

// OutputFile returns the path of the main artifact, or "" if none was written.
func (r *Result) OutputFile() string {
	if len(r.Artifacts) == 0 {
		return ""
	}
	return r.Artifacts[0].Path
}

// Artifact is one written diagram file.
type Artifact struct {
	Path   string
	Flow   string // Empty for the whole project
	Size   int
	Cached bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FileCount      int
	ContainerCount int
	NodeCount      int
	EdgeCount      int
	ResolveTime    time.Duration
	ParseTime      time.Duration
	BuildTime      time.Duration
	RenderTime     time.Duration
}

// CacheInfo counts artifact cache lookups.
type CacheInfo struct {
	Hits   int
	Misses int
}
