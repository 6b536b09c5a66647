package neo

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/ensworks/prodgraph/pkg/common/errors"
	"github.com/ensworks/prodgraph/pkg/graph"
)

// ComponentLabel is the node label used for all production components.
const ComponentLabel = "Component"

// Cypher cannot parameterize relationship types, so derived types are spliced
// into the query text and must stay within a safe identifier alphabet.
var relTypeRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds the connection settings for a Neo4j store.
type Config struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Neo4jStore implements Store against a Neo4j server.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.Logger
}

// NewNeo4jStore connects to the store. Connectivity is verified up front; an
// unreachable server fails fast with a ConnectivityError and no Neo4jStore is
// returned.
func NewNeo4jStore(ctx context.Context, cfg Config, log *zap.Logger) (*Neo4jStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, &errors.ConnectivityError{URI: cfg.URI, Err: err}
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, &errors.ConnectivityError{URI: cfg.URI, Err: err}
	}

	log.Info("connected to graph store", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))
	return &Neo4jStore{driver: driver, database: cfg.Database, log: log}, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// UpsertNode merges the node by (name, type) and assigns its properties.
func (s *Neo4jStore) UpsertNode(ctx context.Context, n graph.Node) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MERGE (n:%s {name: $name, type: $type})
		SET n += $props
	`, ComponentLabel)

	_, err := session.Run(ctx, query, map[string]any{
		"name":  n.Name,
		"type":  n.Type,
		"props": propsParam(n.Properties),
	})
	if err != nil {
		return errors.NewImportError(errors.UpsertFailed,
			fmt.Sprintf("failed to upsert node %s", n.Name), err)
	}
	return nil
}

// UpsertRelationship merges the edge by (source, target, type) plus rule_name
// when present. A missing endpoint yields ImportError(DanglingReference).
func (s *Neo4jStore) UpsertRelationship(ctx context.Context, r graph.Relationship) error {
	if !relTypeRe.MatchString(r.Type) {
		return errors.NewImportError(errors.UpsertFailed,
			fmt.Sprintf("invalid relationship type %q", r.Type), nil)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	mergeKey := ""
	params := map[string]any{
		"source": r.Source,
		"target": r.Target,
		"props":  propsParam(r.Properties),
	}
	if rule := r.RuleName(); rule != "" {
		mergeKey = " {rule_name: $ruleName}"
		params["ruleName"] = rule
	}

	query := fmt.Sprintf(`
		MATCH (a:%[1]s {name: $source})
		MATCH (b:%[1]s {name: $target})
		MERGE (a)-[r:%[2]s%[3]s]->(b)
		SET r += $props
		RETURN count(r) AS merged
	`, ComponentLabel, r.Type, mergeKey)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return errors.NewImportError(errors.UpsertFailed,
			fmt.Sprintf("failed to upsert relationship %s-[%s]->%s", r.Source, r.Type, r.Target), err)
	}

	// No record means one of the MATCH clauses found nothing.
	if !result.Next(ctx) {
		return errors.NewImportError(errors.DanglingReference,
			fmt.Sprintf("relationship %s-[%s]->%s references a missing node", r.Source, r.Type, r.Target), nil)
	}
	return nil
}

// NodeCount returns the total number of component nodes.
func (s *Neo4jStore) NodeCount(ctx context.Context) (int64, error) {
	return s.count(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", ComponentLabel))
}

// RelationshipCount returns the total number of relationships between
// component nodes.
func (s *Neo4jStore) RelationshipCount(ctx context.Context) (int64, error) {
	return s.count(ctx, fmt.Sprintf("MATCH (:%[1]s)-[r]->(:%[1]s) RETURN count(r) AS c", ComponentLabel))
}

// RelationshipTypes returns the relationship count grouped by type.
func (s *Neo4jStore) RelationshipTypes(ctx context.Context) (map[string]int64, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := fmt.Sprintf("MATCH (:%[1]s)-[r]->(:%[1]s) RETURN type(r) AS t, count(*) AS c", ComponentLabel)
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("type distribution query failed: %w", err)
	}

	dist := make(map[string]int64)
	for result.Next(ctx) {
		record := result.Record()
		t, _ := record.Get("t")
		c, _ := record.Get("c")
		name, ok := t.(string)
		if !ok {
			continue
		}
		if count, ok := c.(int64); ok {
			dist[name] = count
		}
	}
	return dist, result.Err()
}

func (s *Neo4jStore) count(ctx context.Context, query string) (int64, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	if result.Next(ctx) {
		if c, ok := result.Record().Get("c"); ok {
			if count, ok := c.(int64); ok {
				return count, nil
			}
		}
	}
	return 0, result.Err()
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func propsParam(props map[string]string) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
