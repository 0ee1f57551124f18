package nodelink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/muleflow/pkg/builder"
	"github.com/matzehuels/muleflow/pkg/catalog"
	"github.com/matzehuels/muleflow/pkg/diagram"
	"github.com/matzehuels/muleflow/pkg/errors"
	"github.com/matzehuels/muleflow/pkg/model"
	"github.com/matzehuels/muleflow/pkg/render"
)

func build(t *testing.T, typ diagram.Type) *diagram.Graph {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	containers := []*model.FlowContainer{
		{Type: model.KindFlow, Name: "main", SourceFile: "app.xml", Processors: []*model.Step{
			{Kind: "http:listener", Label: "Listener", ConfigRef: "HTTP_Config"},
			{Kind: "flow-ref", Label: "Call \"sub\"", Reference: "sub"},
		}},
		{Type: model.KindSubFlow, Name: "sub", SourceFile: "app.xml", Processors: []*model.Step{
			{Kind: "logger", Label: "Log"},
		}},
		{Type: model.KindSubFlow, Name: "orphan", SourceFile: "app.xml"},
	}
	g, _ := builder.Build(containers, builder.Options{Catalog: cat, Type: typ})
	return g
}

func TestToDOT_Graph(t *testing.T) {
	dot := ToDOT(build(t, diagram.TypeGraph), "", Options{})

	for _, want := range []string{
		"digraph G",
		`subgraph "cluster_0"`,
		`"app.xml#main" -> "app.xml#main/0";`,
		`"app.xml#main/0" -> "app.xml#main/1";`,
		`"app.xml#main/1" -> "app.xml#sub" [style=dashed`,
		`label="Call \"sub\""`,
		"shape=cds",
		"shape=component",
	} {
		assert.Contains(t, dot, want)
	}
	assert.NotContains(t, dot, "labelloc", "no title, no graph label")
}

func TestToDOT_UnusedDashed(t *testing.T) {
	dot := ToDOT(build(t, diagram.TypeGraph), "", Options{})
	assert.Contains(t, dot, `style="rounded,dashed"`)
}

func TestToDOT_Compact(t *testing.T) {
	dot := ToDOT(build(t, diagram.TypeCompact), "Orders", Options{})

	assert.NotContains(t, dot, "subgraph", "compact diagrams have no clusters")
	assert.NotContains(t, dot, `"app.xml#main/0"`, "steps fold into the anchor")
	assert.Contains(t, dot, `"app.xml#main" -> "app.xml#sub" [style=dashed`)
	assert.Contains(t, dot, `Listener\l`)
	assert.Contains(t, dot, `label="Orders"`)
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(build(t, diagram.TypeGraph), "", Options{Detailed: true})
	assert.Contains(t, dot, `Listener\n<http:listener>\nconfig: HTTP_Config`)
}

func TestToDOT_RankDir(t *testing.T) {
	assert.Contains(t, ToDOT(diagram.New(nil), "", Options{RankDir: "LR"}), "rankdir=LR;")
}

func TestEscape(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{`a "b"`, `a \"b\"`},
		{`back\slash`, `back\\slash`},
		{"two\nlines", `two\nlines`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escape(tt.in), tt.in)
	}
}

func TestBackend_DOT(t *testing.T) {
	b := New(Options{})
	g := build(t, diagram.TypeGraph)
	out, err := b.Render(context.Background(), g, render.Request{Type: diagram.TypeGraph, Format: render.FormatDOT})
	require.NoError(t, err)
	assert.Equal(t, ToDOT(g, "", Options{}), string(out))
}

func TestBackend_Unsupported(t *testing.T) {
	b := New(Options{})
	g := build(t, diagram.TypeGraph)

	_, err := b.Render(context.Background(), g, render.Request{Type: diagram.TypeSequence, Format: render.FormatPNG})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "sequence: %v", err)

	_, err = b.Render(context.Background(), g, render.Request{Type: diagram.TypeGraph, Format: render.FormatJSON})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "json: %v", err)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	assert.Contains(t, string(normalizeViewBox(in)), `viewBox="0 0 100.00 50.00" width="100" height="50"`)

	plain := []byte(`<svg><g/></svg>`)
	assert.Equal(t, string(plain), string(normalizeViewBox(plain)))
}
