package graph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Relationship types derived by the builder.
const (
	RelRoutesTo = "ROUTES_TO"
	RelSendsTo  = "SENDS_TO"
)

// Well-known property keys.
const (
	PropRuleName = "rule_name"
	PropSource   = "source"
	PropSetting  = "setting"
)

// Node is one graph node. Identity is the (Name, Type) pair.
type Node struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Relationship is one directed edge between nodes, referenced by name.
type Relationship struct {
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// RuleName returns the rule_name property, or "".
func (r Relationship) RuleName() string {
	return r.Properties[PropRuleName]
}

// Counts records how many nodes and relationships the builder produced.
type Counts struct {
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
}

// Metadata carries provenance for a built document.
type Metadata struct {
	Production  string   `json:"production"`
	SourceFiles []string `json:"source_files,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Counts      Counts   `json:"counts"`
}

// Document is the normalized node/relationship representation of one
// production. Node and relationship order carries no meaning.
type Document struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Metadata      Metadata       `json:"metadata"`
}

// Marshal serializes the document to indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal reconstructs a document from its serialized form.
func Unmarshal(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode graph document: %w", err)
	}
	return &d, nil
}

// NodeNames returns the set of node names present in the document.
func (d *Document) NodeNames() map[string]bool {
	names := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		names[n.Name] = true
	}
	return names
}

// Equal reports order-independent equality of nodes and relationships.
// Metadata is not compared.
func (d *Document) Equal(other *Document) bool {
	if other == nil {
		return d == nil
	}
	if len(d.Nodes) != len(other.Nodes) || len(d.Relationships) != len(other.Relationships) {
		return false
	}
	return nodeFingerprints(d.Nodes) == nodeFingerprints(other.Nodes) &&
		relFingerprints(d.Relationships) == relFingerprints(other.Relationships)
}

func nodeFingerprints(nodes []Node) string {
	keys := make([]string, 0, len(nodes))
	for _, n := range nodes {
		keys = append(keys, fmt.Sprintf("%s|%s|%s", n.Name, n.Type, sortedProps(n.Properties)))
	}
	sort.Strings(keys)
	return fmt.Sprint(keys)
}

func relFingerprints(rels []Relationship) string {
	keys := make([]string, 0, len(rels))
	for _, r := range rels {
		keys = append(keys, fmt.Sprintf("%s|%s|%s|%s", r.Source, r.Target, r.Type, sortedProps(r.Properties)))
	}
	sort.Strings(keys)
	return fmt.Sprint(keys)
}

func sortedProps(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + "=" + props[k] + ";"
	}
	return out
}
