package classdef

import (
	"encoding/xml"

	"github.com/ensworks/prodgraph/pkg/common/errors"
)

// RuleBlock is the XData block name carrying the routing rule definition.
const RuleBlock = "RuleDefinition"

type xmlRuleDefinition struct {
	XMLName  xml.Name
	Rules    []xmlRule    `xml:"rule"`
	RuleSets []xmlRuleSet `xml:"ruleSet"`
}

type xmlRuleSet struct {
	Rules []xmlRule `xml:"rule"`
}

type xmlRule struct {
	Name       string         `xml:"name,attr"`
	Condition  string         `xml:"condition,attr"`
	Source     string         `xml:"source,attr"`
	Directives []xmlDirective `xml:",any"`
}

// xmlDirective captures any nested directive element (send, return, delete,
// ...) along with all of its attributes.
type xmlDirective struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

// ParseRoutingRules parses raw class-definition text declaring one routing
// rule set. The condition expression is carried verbatim; a rule with zero
// actions is retained. Rules may sit directly under the root element or be
// grouped in ruleSet elements.
func ParseRoutingRules(text string) (*RuleSet, error) {
	segment, err := ExtractXData(text, RuleBlock)
	if err != nil {
		return nil, err
	}

	var root xmlRuleDefinition
	if err := xml.Unmarshal([]byte(segment), &root); err != nil {
		return nil, errors.NewParseError(errors.InvalidStructure,
			"rule definition is not well-formed markup", err)
	}

	set := &RuleSet{ClassName: ClassName(text)}

	raw := root.Rules
	for _, rs := range root.RuleSets {
		raw = append(raw, rs.Rules...)
	}

	for _, r := range raw {
		rule := RoutingRule{
			Name:      r.Name,
			Condition: r.Condition,
			Source:    r.Source,
		}
		for _, d := range r.Directives {
			action := Action{Kind: d.XMLName.Local}
			for _, attr := range d.Attrs {
				if attr.Name.Local == "target" {
					action.Target = attr.Value
					continue
				}
				if attr.Value == "" {
					continue
				}
				if action.Params == nil {
					action.Params = make(map[string]string)
				}
				action.Params[attr.Name.Local] = attr.Value
			}
			rule.Actions = append(rule.Actions, action)
		}
		set.Rules = append(set.Rules, rule)
	}

	return set, nil
}
