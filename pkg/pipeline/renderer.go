package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/muleflow/pkg/builder"
	"github.com/matzehuels/muleflow/pkg/cache"
	"github.com/matzehuels/muleflow/pkg/diagram"
	"github.com/matzehuels/muleflow/pkg/errors"
	mfio "github.com/matzehuels/muleflow/pkg/io"
	"github.com/matzehuels/muleflow/pkg/observability"
	"github.com/matzehuels/muleflow/pkg/parser"
	"github.com/matzehuels/muleflow/pkg/render"
	"github.com/matzehuels/muleflow/pkg/source"
)

// Renderer runs the pipeline for one set of options. It keeps no state
// between runs; running it twice overwrites the artifact.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer. Options are validated on first use.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render runs the pipeline and reports whether an artifact was written.
// Failures are logged with their cause.
func (r *Renderer) Render(ctx context.Context) bool {
	result, err := r.Execute(ctx)
	if err != nil {
		r.opts.Logger.Error("Diagram generation failed", "code", errors.GetCode(err), "err", errors.UserMessage(err))
		return false
	}
	r.opts.Logger.Info("Diagram written", "file", result.OutputFile(), "artifacts", len(result.Artifacts))
	return true
}

// Execute runs the full resolve → parse → build → render pipeline. The
// result is returned alongside an error whenever stages before the failing
// one completed.
func (r *Renderer) Execute(ctx context.Context) (*Result, error) {
	opts := &r.opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	hooks := observability.Pipeline()
	result := &Result{}

	// Stage 1: Resolve
	start := time.Now()
	hooks.OnResolveStart(ctx, opts.Source)
	desc := source.Resolve(opts.Source, logger)
	result.Descriptor = desc
	result.Stats.FileCount = len(desc.Files)
	result.Stats.ResolveTime = time.Since(start)
	hooks.OnResolveComplete(ctx, desc.Root, desc.Convention, len(desc.Files), result.Stats.ResolveTime)

	// Stage 2: Parse
	start = time.Now()
	hooks.OnParseStart(ctx, len(desc.Files))
	containers, err := parser.Aggregate(ctx, desc.Files, parser.Options{
		Catalog: opts.Catalog,
		Logger:  logger,
		Workers: opts.Workers,
	})
	result.Stats.ParseTime = time.Since(start)
	hooks.OnParseComplete(ctx, len(desc.Files), len(containers), result.Stats.ParseTime, err)
	if err != nil {
		return result, errors.Wrap(errors.ErrCodeInternal, err, "parse cancelled")
	}
	result.Containers = containers
	result.Stats.ContainerCount = len(containers)

	logger.Debug("Parsed configuration",
		"files", len(desc.Files),
		"containers", len(containers),
		"duration", result.Stats.ParseTime)

	if len(containers) == 0 {
		return result, errors.New(errors.ErrCodeNoFlows, "no flows found in %s", desc.Input)
	}

	// Stage 3: Build
	start = time.Now()
	hooks.OnBuildStart(ctx, string(opts.DiagramType), len(containers))
	g, diags := builder.Build(containers, builder.Options{Catalog: opts.Catalog, Type: opts.DiagramType})
	result.Graph = g
	result.Diagnostics = diags
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.BuildTime = time.Since(start)
	hooks.OnBuildComplete(ctx, string(opts.DiagramType), g.NodeCount(), len(diags), result.Stats.BuildTime)

	for _, d := range diags {
		logger.Warn(d.String(), "file", d.SourceFile)
	}
	logger.Debug("Built diagram graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"diagnostics", len(diags))

	drawn := g
	if opts.Flow != "" {
		drawn, err = builder.Subgraph(g, opts.Flow)
		if err != nil {
			return result, err
		}
	}

	// Stage 4: Render
	start = time.Now()
	dc := opts.DrawingContext()
	art, err := r.draw(ctx, drawn, dc.ArtifactPath(), opts.Flow, &result.CacheInfo)
	if err != nil {
		result.Stats.RenderTime = time.Since(start)
		return result, err
	}
	result.Artifacts = append(result.Artifacts, art)

	if opts.Singles {
		singles, err := r.drawSingles(ctx, drawn, dc, &result.CacheInfo)
		result.Artifacts = append(result.Artifacts, singles...)
		if err != nil {
			result.Stats.RenderTime = time.Since(start)
			return result, err
		}
	}
	result.Stats.RenderTime = time.Since(start)

	logger.Debug("Rendered diagram",
		"artifacts", len(result.Artifacts),
		"cache_hits", result.CacheInfo.Hits,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// drawSingles writes one artifact per flow, named "<output>-<flow>".
func (r *Renderer) drawSingles(ctx context.Context, g *diagram.Graph, dc DrawingContext, info *CacheInfo) ([]Artifact, error) {
	names := builder.FlowNames(g)
	arts := make([]Artifact, len(names))
	suffixes := singleSuffixes(names)

	var mu sync.Mutex
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(r.opts.Workers, 1))
	for i, name := range names {
		eg.Go(func() error {
			sub, err := builder.Subgraph(g, name)
			if err != nil {
				return err
			}
			var local CacheInfo
			art, err := r.draw(egctx, sub, dc.SinglePath(suffixes[i]), name, &local)
			if err != nil {
				return err
			}
			arts[i] = art
			mu.Lock()
			info.Hits += local.Hits
			info.Misses += local.Misses
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return arts, nil
}

// draw renders g, consulting the artifact cache, and writes it to path.
func (r *Renderer) draw(ctx context.Context, g *diagram.Graph, path, flow string, info *CacheInfo) (Artifact, error) {
	opts := &r.opts
	hooks := observability.Pipeline()
	req := render.Request{Type: opts.DiagramType, Format: opts.Format, Title: opts.Title}

	key := ""
	if content, err := mfio.MarshalJSON(g); err == nil {
		key = opts.Keyer.ArtifactKey(cache.Hash(content), opts.ArtifactKeyOpts())
	}

	art := Artifact{Path: path, Flow: flow}
	var data []byte
	if key != "" {
		if cached, hit, err := opts.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			info.Hits++
			data, art.Cached = cached, true
		} else {
			if err != nil {
				opts.Logger.Debug("Artifact cache lookup failed", "err", err)
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
			info.Misses++
		}
	}

	if !art.Cached {
		start := time.Now()
		hooks.OnRenderStart(ctx, opts.Format)
		out, err := opts.Backend.Render(ctx, g, req)
		hooks.OnRenderComplete(ctx, opts.Format, len(out), time.Since(start), err)
		if err != nil {
			if errors.Is(err, errors.ErrCodeUnsupported) {
				return art, err
			}
			return art, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s diagram", opts.Format)
		}
		data = out

		if key != "" {
			if err := opts.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
				opts.Logger.Debug("Artifact cache write failed", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}

	if err := writeFile(path, data); err != nil {
		return art, errors.Wrap(errors.ErrCodeRenderFailed, err, "write %s", path)
	}
	art.Size = len(data)
	return art, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileSafe turns a flow name into a file name fragment.
func fileSafe(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// singleSuffixes maps flow names to distinct file name fragments. Names that
// sanitise to a fragment already taken get "-2", "-3", ... in flow order.
// Fragments are compared case-insensitively for case-folding file systems.
func singleSuffixes(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for i, name := range names {
		base := fileSafe(name)
		frag := base
		for n := 2; taken[strings.ToLower(frag)]; n++ {
			frag = base + "-" + strconv.Itoa(n)
		}
		taken[strings.ToLower(frag)] = true
		out[i] = frag
	}
	return out
}
