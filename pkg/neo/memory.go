package neo

import (
	"context"
	"fmt"
	"sync"

	"github.com/ensworks/prodgraph/pkg/common/errors"
	"github.com/ensworks/prodgraph/pkg/graph"
)

type nodeKey struct {
	name string
	typ  string
}

type relKey struct {
	source   string
	target   string
	relType  string
	ruleName string
}

// MemoryStore is an in-process Store with the same merge semantics as the
// Neo4j implementation. It backs tests and the verify harness, and doubles as
// the proof that the importer only depends on the Store capability surface.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[nodeKey]map[string]string
	rels  map[relKey]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[nodeKey]map[string]string),
		rels:  make(map[relKey]map[string]string),
	}
}

// UpsertNode merges the node by (name, type).
func (m *MemoryStore) UpsertNode(ctx context.Context, n graph.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := nodeKey{name: n.Name, typ: n.Type}
	props := m.nodes[key]
	if props == nil {
		props = make(map[string]string)
		m.nodes[key] = props
	}
	for k, v := range n.Properties {
		props[k] = v
	}
	return nil
}

// UpsertRelationship merges the edge by (source, target, type[, rule_name]).
// Endpoints are matched by node name, mirroring the cypher MATCH clauses.
func (m *MemoryStore) UpsertRelationship(ctx context.Context, r graph.Relationship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasNodeNamed(r.Source) || !m.hasNodeNamed(r.Target) {
		return errors.NewImportError(errors.DanglingReference,
			fmt.Sprintf("relationship %s-[%s]->%s references a missing node", r.Source, r.Type, r.Target), nil)
	}

	key := relKey{source: r.Source, target: r.Target, relType: r.Type, ruleName: r.RuleName()}
	props := m.rels[key]
	if props == nil {
		props = make(map[string]string)
		m.rels[key] = props
	}
	for k, v := range r.Properties {
		props[k] = v
	}
	return nil
}

func (m *MemoryStore) hasNodeNamed(name string) bool {
	for key := range m.nodes {
		if key.name == name {
			return true
		}
	}
	return false
}

// NodeCount returns the total number of nodes.
func (m *MemoryStore) NodeCount(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.nodes)), nil
}

// RelationshipCount returns the total number of relationships.
func (m *MemoryStore) RelationshipCount(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.rels)), nil
}

// RelationshipTypes returns the relationship count grouped by type.
func (m *MemoryStore) RelationshipTypes(ctx context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dist := make(map[string]int64)
	for key := range m.rels {
		dist[key.relType]++
	}
	return dist, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}
