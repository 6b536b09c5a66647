package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensworks/prodgraph/pkg/classdef"
)

func TestBuildRoutesToFromSettings(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{
				Name: "ServiceA",
				Type: "Test.Service",
				Settings: []classdef.Setting{
					{Name: "TargetConfigNames", Value: "ServiceB"},
				},
			},
			{Name: "ServiceB", Type: "Test.Operation"},
		},
	}

	doc := Build(prod, nil)

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "ServiceA", doc.Nodes[0].Name)
	assert.Equal(t, "Test.Service", doc.Nodes[0].Type)
	assert.Equal(t, "production", doc.Nodes[0].Properties[PropSource])
	assert.Equal(t, "ServiceB", doc.Nodes[0].Properties["TargetConfigNames"])

	require.Len(t, doc.Relationships, 1)
	rel := doc.Relationships[0]
	assert.Equal(t, "ServiceA", rel.Source)
	assert.Equal(t, "ServiceB", rel.Target)
	assert.Equal(t, RelRoutesTo, rel.Type)

	assert.Equal(t, 2, doc.Metadata.Counts.Nodes)
	assert.Equal(t, 1, doc.Metadata.Counts.Relationships)
}

func TestBuildSendsToFromRule(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{Name: "TestService", Type: "Test.Service"},
			{Name: "TestOperation", Type: "Test.Operation"},
		},
	}
	sets := []*classdef.RuleSet{{
		ClassName: "Test.Rules",
		Rules: []classdef.RoutingRule{{
			Name:      "RouteToTest",
			Condition: "1",
			Source:    "TestService",
			Actions:   []classdef.Action{{Kind: "send", Target: "TestOperation"}},
		}},
	}}

	doc := Build(prod, sets)

	require.Len(t, doc.Relationships, 1)
	rel := doc.Relationships[0]
	assert.Equal(t, "TestService", rel.Source)
	assert.Equal(t, "TestOperation", rel.Target)
	assert.Equal(t, RelSendsTo, rel.Type)
	assert.Equal(t, "RouteToTest", rel.Properties[PropRuleName])
}

func TestBuildUnconstrainedRuleUsesOwningRouter(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{
				Name: "Router",
				Type: "EnsLib.HL7.MsgRouter.RoutingEngine",
				Settings: []classdef.Setting{
					{Name: BusinessRuleSetting, Value: "Test.Rules"},
				},
			},
			{Name: "Out", Type: "Test.Operation"},
		},
	}
	sets := []*classdef.RuleSet{{
		ClassName: "Test.Rules",
		Rules: []classdef.RoutingRule{{
			Name:    "Forward",
			Actions: []classdef.Action{{Kind: "send", Target: "Out"}},
		}},
	}}

	doc := Build(prod, sets)

	require.Len(t, doc.Relationships, 1)
	assert.Equal(t, "Router", doc.Relationships[0].Source)
}

func TestBuildZeroActionRule(t *testing.T) {
	prod := &classdef.Production{
		Name:       "Test.Production",
		Components: []classdef.Component{{Name: "A", Type: "T"}},
	}
	sets := []*classdef.RuleSet{{
		ClassName: "Test.Rules",
		Rules:     []classdef.RoutingRule{{Name: "NoOp", Condition: "0"}},
	}}

	doc := Build(prod, sets)

	assert.Empty(t, doc.Relationships)
	assert.Empty(t, doc.Metadata.Warnings)
}

func TestBuildDuplicateNameLastWins(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{Name: "A", Type: "Test.Service"},
			{Name: "A", Type: "Test.Operation"},
		},
	}

	doc := Build(prod, nil)

	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "Test.Operation", doc.Nodes[0].Type)
	require.Len(t, doc.Metadata.Warnings, 1)
	assert.Contains(t, doc.Metadata.Warnings[0], `component "A" redeclared`)
}

func TestBuildDanglingTargetStillEmitted(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{
				Name: "A",
				Type: "Test.Service",
				Settings: []classdef.Setting{
					{Name: "TargetConfigNames", Value: "Ghost, B"},
				},
			},
			{Name: "B", Type: "Test.Operation"},
		},
	}

	doc := Build(prod, nil)

	require.Len(t, doc.Relationships, 2)
	targets := []string{doc.Relationships[0].Target, doc.Relationships[1].Target}
	assert.Contains(t, targets, "Ghost")
	assert.Contains(t, targets, "B")
}

// Completeness: every send action in every rule yields exactly one SENDS_TO
// relationship with a matching rule_name.
func TestBuildCompleteness(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{Name: "S", Type: "Test.Service"},
		},
	}
	sets := []*classdef.RuleSet{{
		ClassName: "Test.Rules",
		Rules: []classdef.RoutingRule{
			{
				Name:   "R1",
				Source: "S",
				Actions: []classdef.Action{
					{Kind: "send", Target: "X"},
					{Kind: "send", Target: "Y"},
					{Kind: "delete"},
				},
			},
			{
				Name:    "R2",
				Source:  "S",
				Actions: []classdef.Action{{Kind: "send", Target: "X"}},
			},
		},
	}}

	doc := Build(prod, sets)

	sends := make(map[string]int)
	for _, rel := range doc.Relationships {
		require.Equal(t, RelSendsTo, rel.Type)
		sends[rel.RuleName()+"->"+rel.Target]++
	}
	assert.Equal(t, map[string]int{
		"R1->X": 1,
		"R1->Y": 1,
		"R2->X": 1,
	}, sends)
}

// Uniqueness: no two nodes share the same (name, type) pair.
func TestBuildNodeUniqueness(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{Name: "A", Type: "T1"},
			{Name: "A", Type: "T1"},
			{Name: "B", Type: "T1"},
		},
	}

	doc := Build(prod, nil)

	seen := make(map[[2]string]bool)
	for _, n := range doc.Nodes {
		key := [2]string{n.Name, n.Type}
		assert.False(t, seen[key], "duplicate node %v", key)
		seen[key] = true
	}
	assert.Len(t, doc.Nodes, 2)
}

func TestBuildIsDeterministic(t *testing.T) {
	prod := &classdef.Production{
		Name: "Test.Production",
		Components: []classdef.Component{
			{
				Name: "A",
				Type: "T",
				Settings: []classdef.Setting{
					{Name: "TargetConfigNames", Value: "B,C"},
				},
			},
			{Name: "B", Type: "T"},
			{Name: "C", Type: "T"},
		},
	}

	first := Build(prod, nil, "prod.cls")
	second := Build(prod, nil, "prod.cls")
	assert.True(t, first.Equal(second))
}
