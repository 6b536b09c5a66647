package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/ensworks/prodgraph/pkg/common/errors"
	"github.com/ensworks/prodgraph/pkg/graph"
	"github.com/ensworks/prodgraph/pkg/neo"
)

const testProduction = `Class Demo.Hospital Extends Ens.Production
{

XData ProductionDefinition
{
<Production Name="Demo.Hospital" Description="Test production">
  <Item Name="TestService" ClassName="Test.Service">
    <Setting Target="Host" Name="TargetConfigNames">Router</Setting>
  </Item>
  <Item Name="Router" ClassName="EnsLib.HL7.MsgRouter.RoutingEngine">
    <Setting Target="Host" Name="BusinessRuleName">Demo.RoutingRule</Setting>
  </Item>
  <Item Name="TestOperation" ClassName="Test.Operation">
  </Item>
</Production>
}

}
`

const testRules = `Class Demo.RoutingRule Extends Ens.Rule.Definition
{

XData RuleDefinition
{
<ruleDefinition>
  <rule name="RouteToTest" condition="1" source="TestService">
    <send target="TestOperation"/>
  </rule>
</ruleDefinition>
}

}
`

func writeTestFiles(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()

	prodPath := filepath.Join(dir, "production.cls")
	require.NoError(t, os.WriteFile(prodPath, []byte(testProduction), 0644))

	rulePath := filepath.Join(dir, "rules.cls")
	require.NoError(t, os.WriteFile(rulePath, []byte(testRules), 0644))

	return Options{ProductionFile: prodPath, RuleFiles: []string{rulePath}}
}

func TestBuildDocument(t *testing.T) {
	opts := writeTestFiles(t)

	doc, err := BuildDocument(opts)
	require.NoError(t, err)

	assert.Equal(t, "Demo.Hospital", doc.Metadata.Production)
	assert.Len(t, doc.Nodes, 3)
	assert.Len(t, doc.Relationships, 2)
	assert.Len(t, doc.Metadata.SourceFiles, 2)

	var sendsTo *graph.Relationship
	for i := range doc.Relationships {
		if doc.Relationships[i].Type == graph.RelSendsTo {
			sendsTo = &doc.Relationships[i]
		}
	}
	require.NotNil(t, sendsTo)
	assert.Equal(t, "TestService", sendsTo.Source)
	assert.Equal(t, "TestOperation", sendsTo.Target)
	assert.Equal(t, "RouteToTest", sendsTo.Properties[graph.PropRuleName])
}

func TestBuildDocumentAnnotatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	badPath := filepath.Join(dir, "bad.cls")
	require.NoError(t, os.WriteFile(badPath, []byte("Class X Extends Y\n{\n}\n"), 0644))

	_, err := BuildDocument(Options{ProductionFile: badPath})
	require.Error(t, err)

	var pe *commonerrors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, badPath, pe.Path)
	assert.Equal(t, commonerrors.MissingSegment, pe.Kind)
}

func TestBuildDocumentMissingFile(t *testing.T) {
	_, err := BuildDocument(Options{ProductionFile: "/nonexistent/production.cls"})
	assert.Error(t, err)
}

func TestRunEndToEnd(t *testing.T) {
	opts := writeTestFiles(t)
	store := neo.NewMemoryStore()

	res, err := Run(context.Background(), store, nil, opts)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Statistics.NodesCreated)
	assert.Equal(t, 2, res.Statistics.RelationshipsCreated)
	assert.Equal(t, int64(3), res.Verification.NodesImported)
	assert.Equal(t, int64(2), res.Verification.RelationshipsImported)
}
