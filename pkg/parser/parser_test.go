package parser

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/muleflow/pkg/catalog"
	"github.com/matzehuels/muleflow/pkg/model"
)

func testOptions(t *testing.T) (Options, *bytes.Buffer) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	var buf bytes.Buffer
	return Options{
		Catalog: cat,
		Logger:  log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}),
	}, &buf
}

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func kinds(steps []*model.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Kind
	}
	return out
}

func TestParse_SingleFlow(t *testing.T) {
	opts, _ := testOptions(t)
	containers, err := Parse(fixture("example-config.xml"), opts)
	require.NoError(t, err)
	require.Len(t, containers, 1)

	c := containers[0]
	assert.Equal(t, "flow", c.Type)
	assert.Equal(t, "test-hello-appFlow", c.Name)
	assert.Equal(t, fixture("example-config.xml"), c.SourceFile)
	assert.Equal(t, []string{"http:listener", "set-payload"}, kinds(c.Processors))
	assert.Equal(t, "Listener", c.Processors[0].Label)
	assert.Equal(t, "HTTP_Listener_config", c.Processors[0].ConfigRef)
}

func TestParse_NonMuleFile(t *testing.T) {
	opts, buf := testOptions(t)
	path := fixture("non-mule-file.xml")

	containers, err := Parse(path, opts)
	require.NoError(t, err)
	assert.Empty(t, containers)
	assert.Contains(t, buf.String(), "Not a mule configuration file: "+path)
}

func TestParse_MalformedFile(t *testing.T) {
	opts, buf := testOptions(t)
	containers, err := Parse(fixture("malformed.xml"), opts)
	require.NoError(t, err)
	assert.Empty(t, containers)
	assert.Contains(t, buf.String(), "Skipping malformed configuration file")
}

func TestParse_MissingFile(t *testing.T) {
	opts, _ := testOptions(t)
	_, err := Parse(fixture("nope.xml"), opts)
	require.Error(t, err)
}

func TestParse_NestedScopes(t *testing.T) {
	opts, _ := testOptions(t)
	containers, err := Parse(fixture("mule4-nested.xml"), opts)
	require.NoError(t, err)

	var names []string
	for _, c := range containers {
		names = append(names, c.Type+"/"+c.Name)
	}
	assert.Equal(t, []string{
		"flow/orders-main",
		"sub-flow/express-sub",
		"flow/empty-flow",
		"error-handler/global-handler",
	}, names)

	main := containers[0]
	assert.Equal(t, "Entry point for orders", main.Description)
	assert.Equal(t, []string{
		"http:listener", "choice", "ee:transform", "acme:frobnicate", "flow-ref", "error-handler",
	}, kinds(main.Processors))

	choice := main.Processors[1]
	assert.Equal(t, []string{"when", "otherwise"}, kinds(choice.Children))
	when := choice.Children[0]
	require.Len(t, when.Children, 1)
	assert.Equal(t, "express-sub", when.Children[0].Reference)
	assert.False(t, when.Children[0].Dynamic)
	assert.Equal(t, "Express", when.Children[0].Label)

	otherwise := choice.Children[1]
	assert.Equal(t, []string{"db:select"}, kinds(otherwise.Children))
	assert.Empty(t, otherwise.Children[0].Children, "connector configuration is not a processor")

	transform := main.Processors[2]
	assert.Equal(t, "Transform Message", transform.Label)
	assert.Empty(t, transform.Children)

	unknown := main.Processors[3]
	assert.Equal(t, "Custom", unknown.Label)

	dynamic := main.Processors[4]
	assert.True(t, dynamic.Dynamic)
	assert.Equal(t, "#[vars.target]", dynamic.Reference)
	assert.Equal(t, "flow-ref", dynamic.Label)

	handler := main.Processors[5]
	assert.Equal(t, []string{"on-error-propagate"}, kinds(handler.Children))
	assert.Equal(t, []string{"logger"}, kinds(handler.Children[0].Children))

	assert.Empty(t, containers[2].Processors, "empty flows are valid")
}

func TestParse_Mule3(t *testing.T) {
	opts, _ := testOptions(t)
	containers, err := Parse(fixture("mule3-flow.xml"), opts)
	require.NoError(t, err)
	require.Len(t, containers, 2)

	flow := containers[0]
	assert.Equal(t, "Legacy Mule 3 flow", flow.Description)
	assert.Equal(t, []string{"http:inbound-endpoint", "flow-ref", "catch-exception-strategy"}, kinds(flow.Processors))
	assert.Equal(t, "HTTP_Connector", flow.Processors[0].ConfigRef)
	assert.Equal(t, "legacy-sub", flow.Processors[1].Reference)
	assert.Equal(t, []string{"logger"}, kinds(flow.Processors[2].Children))
	assert.Equal(t, "sub-flow", containers[1].Type)
}

func TestRead_NilCatalogKeepsStructure(t *testing.T) {
	doc := `<mule xmlns="http://www.mulesoft.org/schema/mule/core">
		<flow name="f"><choice><when><logger/></when></choice></flow>
	</mule>`
	containers, err := Read(strings.NewReader(doc), "inline.xml", Options{})
	require.NoError(t, err)
	require.Len(t, containers, 1)
	require.Len(t, containers[0].Processors, 1)
	choice := containers[0].Processors[0]
	require.Equal(t, []string{"when"}, kinds(choice.Children))
	assert.Equal(t, []string{"logger"}, kinds(choice.Children[0].Children))
}

func TestRead_ReferencesInsideUncataloguedScopes(t *testing.T) {
	doc := `<mule xmlns="http://www.mulesoft.org/schema/mule/core"
	      xmlns:acme="http://example.com/schema/acme"
	      xmlns:validation="http://www.mulesoft.org/schema/mule/validation">
		<flow name="main">
			<acme:retry-scope><flow-ref name="target"/></acme:retry-scope>
			<enricher target="#[flowVars.x]"><flow-ref name="other"/></enricher>
			<validation:all>
				<validation:is-not-null value="#[payload]"/>
				<flow-ref name="v"/>
			</validation:all>
			<request-reply><flow-ref name="#[vars.dyn]"/></request-reply>
		</flow>
	</mule>`
	opts, _ := testOptions(t)
	containers, err := Read(strings.NewReader(doc), "inline.xml", opts)
	require.NoError(t, err)
	require.Len(t, containers, 1)

	steps := containers[0].Processors
	require.Equal(t, []string{"acme:retry-scope", "enricher", "validation:all", "request-reply"}, kinds(steps))
	assert.Equal(t, "target", steps[0].Children[0].Reference)
	assert.Equal(t, "other", steps[1].Children[0].Reference)
	assert.Equal(t, []string{"validation:is-not-null", "flow-ref"}, kinds(steps[2].Children))
	assert.Equal(t, "v", steps[2].Children[1].Reference)
	assert.True(t, steps[3].Children[0].Dynamic)

	var refs []string
	model.Walk(steps, func(s *model.Step, _ []int) {
		if s.IsReference() {
			refs = append(refs, s.Reference)
		}
	})
	assert.Equal(t, []string{"target", "other", "v", "#[vars.dyn]"}, refs)
}

func TestRead_DropsOperationConfiguration(t *testing.T) {
	doc := `<mule xmlns="http://www.mulesoft.org/schema/mule/core"
	      xmlns:http="http://www.mulesoft.org/schema/mule/http"
	      xmlns:db="http://www.mulesoft.org/schema/mule/db"
	      xmlns:ee="http://www.mulesoft.org/schema/mule/ee/core">
		<flow name="main">
			<scheduler><scheduling-strategy><fixed-frequency frequency="1000"/></scheduling-strategy></scheduler>
			<http:request method="GET" path="/x">
				<http:request-builder><http:header headerName="a" value="b"/></http:request-builder>
				<http:headers>#[{'a': 'b'}]</http:headers>
				<reconnect count="3"/>
			</http:request>
			<db:insert><db:sql><![CDATA[INSERT INTO t VALUES (1)]]></db:sql></db:insert>
			<acme:custom xmlns:acme="http://example.com/schema/acme"><acme:query>SELECT 1</acme:query></acme:custom>
			<ee:transform><ee:message><ee:set-payload>payload</ee:set-payload></ee:message></ee:transform>
			<expression-component>flowVars.x = 1</expression-component>
		</flow>
	</mule>`
	opts, _ := testOptions(t)
	containers, err := Read(strings.NewReader(doc), "inline.xml", opts)
	require.NoError(t, err)
	require.Len(t, containers, 1)

	steps := containers[0].Processors
	require.Equal(t, []string{
		"scheduler", "http:request", "db:insert", "acme:custom", "ee:transform", "expression-component",
	}, kinds(steps))
	for _, s := range steps {
		assert.Empty(t, s.Children, s.Kind)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"wrong namespace", `<mule xmlns="http://example.com/other"><flow name="x"/></mule>`},
		{"no namespace", `<mule><flow name="x"/></mule>`},
		{"truncated", `<mule xmlns="http://www.mulesoft.org/schema/mule/core"><flow name="x">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc), "inline.xml", Options{})
			require.Error(t, err)
		})
	}
}

func TestAggregate_PreservesOrder(t *testing.T) {
	files := []string{
		fixture("mule3-flow.xml"),
		fixture("non-mule-file.xml"),
		fixture("example-config.xml"),
		fixture("missing.xml"),
		fixture("mule4-nested.xml"),
	}

	for _, workers := range []int{0, 1, 4} {
		opts, buf := testOptions(t)
		opts.Workers = workers

		containers, err := Aggregate(context.Background(), files, opts)
		require.NoError(t, err)

		var names []string
		for _, c := range containers {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{
			"legacy-flow", "legacy-sub",
			"test-hello-appFlow",
			"orders-main", "express-sub", "empty-flow", "global-handler",
		}, names, "workers=%d", workers)
		assert.Contains(t, buf.String(), "Skipping unreadable configuration file")
	}
}

func TestAggregate_NoDeduplication(t *testing.T) {
	opts, _ := testOptions(t)
	files := []string{fixture("example-config.xml"), fixture("example-config.xml")}

	containers, err := Aggregate(context.Background(), files, opts)
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, containers[0].Name, containers[1].Name)
	assert.NotSame(t, containers[0], containers[1])
}

func TestAggregate_Empty(t *testing.T) {
	opts, _ := testOptions(t)
	containers, err := Aggregate(context.Background(), nil, opts)
	require.NoError(t, err)
	assert.Empty(t, containers)
}

func TestAggregate_Cancelled(t *testing.T) {
	opts, _ := testOptions(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Aggregate(ctx, []string{fixture("example-config.xml")}, opts)
	require.ErrorIs(t, err, context.Canceled)
}
