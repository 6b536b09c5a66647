package export

import (
	"strings"

	"github.com/ensworks/prodgraph/pkg/graph"
)

// D3Node represents a node in the D3 force-directed graph.
type D3Node struct {
	ID       string            `json:"id"`              // Component name (unique identifier)
	Name     string            `json:"name"`            // Display name
	Kind     string            `json:"kind,omitempty"`  // e.g. "service", "router", "operation"
	Group    string            `json:"group,omitempty"` // Grouping for visualization (uses Kind)
	Metadata map[string]string `json:"metadata,omitempty"`
}

// D3Link represents a link/edge in the D3 force-directed graph.
type D3Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
	RuleName string `json:"rule_name,omitempty"`
}

// D3Graph represents the full graph structure for D3.js.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// FromDocument converts a graph document to the D3 force-graph format.
func FromDocument(doc *graph.Document) *D3Graph {
	out := &D3Graph{}

	for _, n := range doc.Nodes {
		out.Nodes = append(out.Nodes, D3Node{
			ID:       n.Name,
			Name:     n.Name,
			Kind:     kindOf(n.Type),
			Group:    kindOf(n.Type),
			Metadata: map[string]string{"type": n.Type},
		})
	}

	for _, r := range doc.Relationships {
		out.Links = append(out.Links, D3Link{
			Source:   r.Source,
			Target:   r.Target,
			Relation: r.Type,
			RuleName: r.RuleName(),
		})
	}

	return out
}

// kindOf buckets a component class name into a display group. The class name
// suffix is the usual convention (Foo.Service, Foo.Operation); routers use
// routing-engine classes.
func kindOf(componentType string) string {
	lower := strings.ToLower(componentType)
	switch {
	case strings.Contains(lower, "routingengine") || strings.Contains(lower, "router"):
		return "router"
	case strings.HasSuffix(lower, "service"):
		return "service"
	case strings.HasSuffix(lower, "operation"):
		return "operation"
	default:
		return "component"
	}
}
