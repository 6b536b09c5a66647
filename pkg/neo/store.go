// Package neo loads graph documents into a graph store with idempotent
// upsert semantics and verifies the load afterwards.
package neo

import (
	"context"

	"github.com/ensworks/prodgraph/pkg/graph"
)

// Store is the narrow capability interface the importer needs from a graph
// store. Any store that can merge nodes by (name, type), merge relationships
// by (source, target, type[, rule_name]), and answer aggregate count queries
// can back the pipeline.
type Store interface {
	// UpsertNode merges a node keyed by (name, type) and assigns its
	// properties. Re-applying the same node must not create a duplicate.
	UpsertNode(ctx context.Context, n graph.Node) error

	// UpsertRelationship merges an edge keyed by (source, target, type) plus
	// the rule_name property when present. It fails with
	// ImportError(DanglingReference) when either endpoint does not exist.
	UpsertRelationship(ctx context.Context, r graph.Relationship) error

	// NodeCount returns the total number of component nodes in the store.
	NodeCount(ctx context.Context) (int64, error)

	// RelationshipCount returns the total number of relationships.
	RelationshipCount(ctx context.Context) (int64, error)

	// RelationshipTypes returns the relationship count grouped by type.
	RelationshipTypes(ctx context.Context) (map[string]int64, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
