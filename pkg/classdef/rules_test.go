package classdef

import (
	"testing"

	"github.com/ensworks/prodgraph/pkg/common/errors"
)

const ruleClass = `Class Demo.RoutingRule Extends Ens.Rule.Definition
{

XData RuleDefinition
{
<ruleDefinition alias="Demo">
  <rule name="RouteToTest" condition="HL7.{MSH:9.1}=&quot;ADT&quot;" source="TestService" disabled="false">
    <send transform="Demo.ADTTransform" target="TestOperation"/>
  </rule>
  <rule name="NoOp" condition="0">
  </rule>
</ruleDefinition>
}

}
`

func TestParseRoutingRules(t *testing.T) {
	set, err := ParseRoutingRules(ruleClass)
	if err != nil {
		t.Fatalf("ParseRoutingRules failed: %v", err)
	}

	if set.ClassName != "Demo.RoutingRule" {
		t.Errorf("ClassName = %q", set.ClassName)
	}
	if len(set.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(set.Rules))
	}

	r := set.Rules[0]
	if r.Name != "RouteToTest" {
		t.Errorf("Name = %q", r.Name)
	}
	if r.Condition != `HL7.{MSH:9.1}="ADT"` {
		t.Errorf("Condition = %q", r.Condition)
	}
	if r.Source != "TestService" {
		t.Errorf("Source = %q", r.Source)
	}
	if len(r.Actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(r.Actions))
	}
	a := r.Actions[0]
	if a.Kind != "send" || a.Target != "TestOperation" {
		t.Errorf("action = %s/%s", a.Kind, a.Target)
	}
	if a.Params["transform"] != "Demo.ADTTransform" {
		t.Errorf("transform param missing: %v", a.Params)
	}

	// A rule with zero actions is retained, not an error.
	if set.Rules[1].Name != "NoOp" || len(set.Rules[1].Actions) != 0 {
		t.Errorf("zero-action rule not retained: %+v", set.Rules[1])
	}
}

func TestParseRoutingRulesNestedRuleSet(t *testing.T) {
	text := `Class Demo.Nested Extends Ens.Rule.Definition
{
XData RuleDefinition
{
<ruleDefinition>
  <ruleSet name="default">
    <rule name="Inner" condition="1">
      <send target="Out"/>
    </rule>
  </ruleSet>
</ruleDefinition>
}
}
`
	set, err := ParseRoutingRules(text)
	if err != nil {
		t.Fatalf("ParseRoutingRules failed: %v", err)
	}
	if len(set.Rules) != 1 || set.Rules[0].Name != "Inner" {
		t.Fatalf("ruleSet rules not collected: %+v", set.Rules)
	}
}

func TestParseRoutingRulesMalformed(t *testing.T) {
	text := "Class X Extends Y\n{\nXData RuleDefinition\n{\n<ruleDefinition><rule name=\"R\">\n}\n}\n"
	_, err := ParseRoutingRules(text)
	if !errors.IsParseKind(err, errors.InvalidStructure) {
		t.Errorf("expected InvalidStructure, got %v", err)
	}
}
