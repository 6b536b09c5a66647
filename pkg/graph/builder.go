package graph

import (
	"fmt"
	"strings"

	"github.com/ensworks/prodgraph/pkg/classdef"
)

// Settings whose value is a comma-separated list of target component names.
var targetListSettings = map[string]bool{
	"TargetConfigNames": true,
	"TargetConfigName":  true,
}

// BusinessRuleSetting is the router setting that names the rule-definition
// class driving the router.
const BusinessRuleSetting = "BusinessRuleName"

// Build deterministically maps a parsed production and its routing rule sets
// into a graph document. The transformation is pure: the same inputs always
// produce an equal document.
//
// Edges are never dropped here. A relationship whose target names no known
// component is still emitted; resolving or failing it is the importer's job.
func Build(prod *classdef.Production, ruleSets []*classdef.RuleSet, sourceFiles ...string) *Document {
	doc := &Document{
		Metadata: Metadata{
			Production:  prod.Name,
			SourceFiles: sourceFiles,
		},
	}

	// One node per component, keyed by name. Identity is (name, type); a
	// redeclared name with a different type is resolved last-write-wins with
	// a recorded warning.
	index := make(map[string]int)
	for _, comp := range prod.Components {
		node := Node{
			Name:       comp.Name,
			Type:       comp.Type,
			Properties: nodeProperties(comp),
		}
		if i, ok := index[comp.Name]; ok {
			if doc.Nodes[i].Type != comp.Type {
				doc.Metadata.Warnings = append(doc.Metadata.Warnings,
					fmt.Sprintf("component %q redeclared with type %s (was %s); keeping last declaration",
						comp.Name, comp.Type, doc.Nodes[i].Type))
			}
			doc.Nodes[i] = node
			continue
		}
		index[comp.Name] = len(doc.Nodes)
		doc.Nodes = append(doc.Nodes, node)
	}

	// ROUTES_TO edges from declared target-list settings.
	for _, comp := range prod.Components {
		for _, s := range comp.Settings {
			if !targetListSettings[s.Name] {
				continue
			}
			for _, target := range splitTargets(s.Value) {
				doc.Relationships = append(doc.Relationships, Relationship{
					Source: comp.Name,
					Target: target,
					Type:   RelRoutesTo,
				})
			}
		}
	}

	// SENDS_TO edges from rule send actions.
	for _, set := range ruleSets {
		owner := owningRouter(prod, set.ClassName)
		for _, rule := range set.Rules {
			source := rule.Source
			if source == "" {
				source = owner
			}
			for _, action := range rule.Actions {
				if action.Kind != "send" {
					continue
				}
				props := map[string]string{PropRuleName: rule.Name}
				for k, v := range action.Params {
					if k == PropRuleName {
						continue
					}
					props[k] = v
				}
				doc.Relationships = append(doc.Relationships, Relationship{
					Source:     source,
					Target:     action.Target,
					Type:       RelSendsTo,
					Properties: props,
				})
			}
		}
	}

	doc.Metadata.Counts = Counts{
		Nodes:         len(doc.Nodes),
		Relationships: len(doc.Relationships),
	}
	return doc
}

func nodeProperties(comp classdef.Component) map[string]string {
	props := make(map[string]string, len(comp.Settings)+1)
	for _, s := range comp.Settings {
		props[s.Name] = s.Value
	}
	props[PropSource] = "production"
	return props
}

// owningRouter finds the component whose BusinessRuleName setting names the
// given rule class. Returns "" when no router references the class.
func owningRouter(prod *classdef.Production, ruleClass string) string {
	if ruleClass == "" {
		return ""
	}
	for _, comp := range prod.Components {
		if v, ok := comp.Setting(BusinessRuleSetting); ok && v == ruleClass {
			return comp.Name
		}
	}
	return ""
}

func splitTargets(value string) []string {
	var targets []string
	for _, part := range strings.Split(value, ",") {
		if t := strings.TrimSpace(part); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}
