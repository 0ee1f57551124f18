package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/muleflow/pkg/diagram"
	mfio "github.com/matzehuels/muleflow/pkg/io"
	"github.com/matzehuels/muleflow/pkg/pipeline"
	"github.com/matzehuels/muleflow/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file, derived from the input when empty
	format   string // png, svg or dot
	title    string // diagram caption
	detailed bool   // show element kinds and configs
}

// renderCommand redraws a diagram exported with "generate --format json",
// which lets the JSON be edited or filtered by other tools in between.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render GRAPH.json",
		Short: "Render a diagram exported as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png (default), svg, dot")
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show element kinds and connector configs")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	g, err := mfio.ImportJSON(input)
	if err != nil {
		return err
	}
	typ, err := graphType(g)
	if err != nil {
		return err
	}
	c.Logger.Infof("Loaded diagram: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	data, err := pipeline.DefaultBackend(opts.detailed).Render(ctx, g, render.Request{
		Type:   typ,
		Format: format,
		Title:  opts.title,
	})
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + render.Extension(format)
	}
	if out == input {
		return fmt.Errorf("refusing to overwrite input %s", input)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	printSuccess("Rendered %s", out)
	return nil
}

// graphType returns the diagram type recorded in the graph, or the default
// for graphs without one.
func graphType(g *diagram.Graph) (diagram.Type, error) {
	s, _ := g.Meta()[diagram.MetaDiagramType].(string)
	return diagram.ParseType(s)
}
