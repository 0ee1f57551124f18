package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/muleflow/pkg/builder"
	"github.com/matzehuels/muleflow/pkg/catalog"
	"github.com/matzehuels/muleflow/pkg/diagram"
	mferrors "github.com/matzehuels/muleflow/pkg/errors"
	"github.com/matzehuels/muleflow/pkg/model"
	"github.com/matzehuels/muleflow/pkg/parser"
	"github.com/matzehuels/muleflow/pkg/pipeline"
	"github.com/matzehuels/muleflow/pkg/source"
)

// ErrFailed is returned by commands whose failure has already been logged.
var ErrFailed = errors.New("muleflow: command failed")

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	target     string // directory receiving the artifact
	output     string // artifact base name
	diagram    string // graph, compact or sequence
	format     string // png, svg, dot or json
	flow       string // draw only this flow and what it references
	title      string // diagram caption
	components string // catalog overrides file
	config     string // project config file
	workers    int    // concurrent parsing
	singles    bool   // one extra artifact per flow
	pick       bool   // choose the flow interactively
	noCache    bool   // bypass the artifact cache
	detailed   bool   // show element kinds and configs
}

func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate SOURCE",
		Short: "Draw the flows of a Mule project or configuration file",
		Long: `Generate reads every flow configuration file of a Mule project and draws
its flows, sub-flows and flow references.

SOURCE may be a project directory or a single configuration file. Standard
project layouts are detected: src/main/mule (Mule 4) and src/main/app
(Mule 3). Any other directory is scanned for XML files as is.`,
		Example: `  muleflow generate ./orders-api
  muleflow generate ./orders-api -t docs -o orders -f svg -d compact
  muleflow generate ./orders-api --flow orders-main --detailed
  muleflow generate src/main/mule/orders.xml --singles -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.config)
			if err != nil {
				return err
			}
			opts.applyConfig(cmd.Flags(), cfg)
			return c.runGenerate(cmd.Context(), args[0], opts, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.target, "target", "t", "", "target directory (default \".\")")
	f.StringVarP(&opts.output, "output", "o", "", "output filename (default \""+pipeline.DefaultOutputFilename+"\")")
	f.StringVarP(&opts.diagram, "diagram", "d", "", "diagram type: graph (default), compact, sequence")
	f.StringVarP(&opts.format, "format", "f", "", "output format: png (default), svg, dot, json")
	f.StringVar(&opts.flow, "flow", "", "draw only this flow and the flows it references")
	f.BoolVar(&opts.singles, "singles", false, "also write one diagram per flow")
	f.BoolVar(&opts.pick, "pick", false, "choose the flow to draw interactively")
	f.IntVar(&opts.workers, "workers", 0, "parse files concurrently with this many workers")
	f.StringVar(&opts.components, "components", "", "TOML file extending the component catalog")
	f.StringVar(&opts.config, "config", "", "project config file (default \""+configFileName+"\" if present)")
	f.BoolVar(&opts.noCache, "no-cache", false, "always re-render, bypassing the artifact cache")
	f.BoolVar(&opts.detailed, "detailed", false, "show element kinds and connector configs")
	f.StringVar(&opts.title, "title", "", "diagram title")

	return cmd
}

// applyConfig fills every flag the user did not set from cfg.
func (o *generateOpts) applyConfig(flags *pflag.FlagSet, cfg Config) {
	str := func(name string, dst *string, v string) {
		if !flags.Changed(name) && v != "" {
			*dst = v
		}
	}
	str("target", &o.target, cfg.Target)
	str("output", &o.output, cfg.Output)
	str("diagram", &o.diagram, cfg.Diagram)
	str("format", &o.format, cfg.Format)
	str("title", &o.title, cfg.Title)
	str("components", &o.components, cfg.Components)
	if !flags.Changed("workers") && cfg.Workers > 0 {
		o.workers = cfg.Workers
	}
	if !flags.Changed("detailed") && cfg.Detailed {
		o.detailed = true
	}
}

func (c *CLI) runGenerate(ctx context.Context, src string, opts generateOpts, cfg Config) error {
	cat, err := loadCatalog(opts.components)
	if err != nil {
		return err
	}

	if opts.pick {
		flow, err := c.pickFlow(ctx, src, cat, opts.workers)
		if err != nil {
			return err
		}
		if flow == "" {
			printInfo("No flow selected")
			return nil
		}
		opts.flow = flow
	}

	store, keyer := c.newCache(ctx, cfg, opts.noCache)
	defer store.Close()

	r := pipeline.NewRenderer(pipeline.Options{
		Source:         src,
		TargetDir:      opts.target,
		OutputFilename: opts.output,
		DiagramType:    diagram.Type(opts.diagram),
		Format:         opts.format,
		Flow:           opts.flow,
		Singles:        opts.singles,
		Workers:        opts.workers,
		Title:          opts.title,
		Detailed:       opts.detailed,
		Logger:         c.Logger,
		Catalog:        cat,
		Cache:          store,
		Keyer:          keyer,
	})

	prog := newProgress(c.Logger)
	result, err := r.Execute(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.Logger.Error("Diagram generation failed", "code", mferrors.GetCode(err), "err", mferrors.UserMessage(err))
		return ErrFailed
	}
	prog.done(fmt.Sprintf("Drew %d flow containers from %d files", result.Stats.ContainerCount, result.Stats.FileCount))

	printResult(result)
	return nil
}

func printResult(result *pipeline.Result) {
	primary := result.Artifacts[0]
	if p := result.Descriptor.Project; p != nil && p.DisplayName() != "" {
		printDetail("Project: %s %s", p.DisplayName(), p.Version)
	}
	printSuccess("Generated %s", primary.Path)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, primary.Cached)
	for _, a := range result.Artifacts[1:] {
		printFile(a.Path)
	}

	if n := builder.Count(result.Diagnostics, builder.DanglingReference); n > 0 {
		printWarning("%d flow references could not be resolved", n)
	}
	if n := builder.Count(result.Diagnostics, builder.AmbiguousReference); n > 0 {
		printWarning("%d flow references match more than one flow", n)
	}
}

func loadCatalog(overrides string) (*catalog.Catalog, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	if overrides == "" {
		return cat, nil
	}
	return cat.WithOverrides(overrides)
}

// pickFlow parses src and lets the user choose one of its flows. An empty
// name means the user quit without choosing.
func (c *CLI) pickFlow(ctx context.Context, src string, cat *catalog.Catalog, workers int) (string, error) {
	spinner := newSpinnerWithContext(ctx, "Scanning flows...")
	spinner.Start()
	desc := source.Resolve(src, nil)
	containers, err := parser.Aggregate(ctx, desc.Files, parser.Options{Catalog: cat, Workers: workers})
	if err != nil {
		spinner.StopWithError("Scan interrupted")
		return "", err
	}
	spinner.Stop()

	names := flowNames(containers)
	if len(names) == 0 {
		return "", mferrors.New(mferrors.ErrCodeNoFlows, "no flows found in %s", desc.Input)
	}

	final, err := tea.NewProgram(NewFlowPickerModel(names), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", fmt.Errorf("flow picker: %w", err)
	}
	return final.(FlowPickerModel).Selected, nil
}

// flowNames returns the distinct names of top-level flows in order. Unnamed
// flows cannot be selected and are left out.
func flowNames(containers []*model.FlowContainer) []string {
	var names []string
	seen := make(map[string]bool)
	for _, fc := range containers {
		if fc.IsFlow() && fc.Name != "" && !seen[fc.Name] {
			seen[fc.Name] = true
			names = append(names, fc.Name)
		}
	}
	return names
}
