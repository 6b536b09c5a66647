package neo

import (
	"context"
	"fmt"
	"time"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ensworks/prodgraph/pkg/common/errors"
	"github.com/ensworks/prodgraph/pkg/graph"
)

// DefaultItemTimeout bounds each store round-trip. A timeout is a per-item
// failure, not a fatal pipeline error.
const DefaultItemTimeout = 30 * time.Second

// Statistics counts per-item outcomes of one import call.
type Statistics struct {
	NodesCreated         int `json:"nodes_created"`
	NodesFailed          int `json:"nodes_failed"`
	RelationshipsCreated int `json:"relationships_created"`
	RelationshipsFailed  int `json:"relationships_failed"`
}

// Verification is the post-load report re-queried from the store.
type Verification struct {
	NodesImported         int64            `json:"nodes_imported"`
	RelationshipsImported int64            `json:"relationships_imported"`
	TypeDistribution      map[string]int64 `json:"type_distribution,omitempty"`
}

// Result is produced once per import call and never mutated after return.
type Result struct {
	RunID        string       `json:"run_id"`
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	Statistics   Statistics   `json:"statistics"`
	Verification Verification `json:"verification"`
	Failures     []string     `json:"failures,omitempty"`
}

// Importer loads graph documents into a Store. Items are applied one by one;
// a failure on one item never aborts the batch.
type Importer struct {
	store   Store
	log     *zap.Logger
	timeout time.Duration
}

// ImporterOption customizes an Importer.
type ImporterOption func(*Importer)

// WithItemTimeout overrides the per-item network timeout.
func WithItemTimeout(d time.Duration) ImporterOption {
	return func(im *Importer) {
		im.timeout = d
	}
}

// NewImporter creates an importer over the given store.
func NewImporter(store Store, log *zap.Logger, opts ...ImporterOption) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	im := &Importer{store: store, log: log, timeout: DefaultItemTimeout}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import loads the document and verifies the load. Re-importing the same
// document is a no-op on store state: every write is a merge keyed by the
// item's identity tuple.
func (im *Importer) Import(ctx context.Context, doc *graph.Document) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	names := doc.NodeNames()

	for _, node := range doc.Nodes {
		if err := im.applyNode(ctx, node); err != nil {
			res.Statistics.NodesFailed++
			res.Failures = append(res.Failures, err.Error())
			im.log.Warn("node upsert failed", zap.String("node", node.Name), zap.Error(err))
			continue
		}
		res.Statistics.NodesCreated++
	}

	for _, rel := range doc.Relationships {
		if err := im.applyRelationship(ctx, rel); err != nil {
			if errors.IsImportKind(err, errors.DanglingReference) {
				if hint := closestName(rel, names); hint != "" {
					err = fmt.Errorf("%w (closest known component: %s)", err, hint)
				}
			}
			res.Statistics.RelationshipsFailed++
			res.Failures = append(res.Failures, err.Error())
			im.log.Warn("relationship upsert failed",
				zap.String("source", rel.Source),
				zap.String("target", rel.Target),
				zap.String("type", rel.Type),
				zap.Error(err))
			continue
		}
		res.Statistics.RelationshipsCreated++
	}

	res.Success = res.Statistics.NodesFailed == 0 && res.Statistics.RelationshipsFailed == 0
	res.Message = fmt.Sprintf("imported %d nodes and %d relationships (%d node failures, %d relationship failures)",
		res.Statistics.NodesCreated, res.Statistics.RelationshipsCreated,
		res.Statistics.NodesFailed, res.Statistics.RelationshipsFailed)

	im.verify(ctx, res)

	im.log.Info("import finished",
		zap.String("run_id", res.RunID),
		zap.Bool("success", res.Success),
		zap.Int("nodes_created", res.Statistics.NodesCreated),
		zap.Int("relationships_created", res.Statistics.RelationshipsCreated))

	return res, nil
}

func (im *Importer) applyNode(ctx context.Context, node graph.Node) error {
	cctx, cancel := context.WithTimeout(ctx, im.timeout)
	defer cancel()
	return im.store.UpsertNode(cctx, node)
}

func (im *Importer) applyRelationship(ctx context.Context, rel graph.Relationship) error {
	cctx, cancel := context.WithTimeout(ctx, im.timeout)
	defer cancel()
	return im.store.UpsertRelationship(cctx, rel)
}

// verify re-queries the store for aggregate counts. A verification failure or
// a count lower than the created count is reported, never fatal: an earlier
// partial run may legitimately have left the store ahead of or behind this
// document.
func (im *Importer) verify(ctx context.Context, res *Result) {
	cctx, cancel := context.WithTimeout(ctx, im.timeout)
	defer cancel()

	nodes, err := im.store.NodeCount(cctx)
	if err != nil {
		res.Message += fmt.Sprintf("; verification unavailable: %v", err)
		im.log.Warn("verification failed", zap.Error(err))
		return
	}
	rels, err := im.store.RelationshipCount(cctx)
	if err != nil {
		res.Message += fmt.Sprintf("; verification unavailable: %v", err)
		im.log.Warn("verification failed", zap.Error(err))
		return
	}
	dist, err := im.store.RelationshipTypes(cctx)
	if err != nil {
		res.Message += fmt.Sprintf("; verification unavailable: %v", err)
		im.log.Warn("verification failed", zap.Error(err))
		return
	}

	res.Verification = Verification{
		NodesImported:         nodes,
		RelationshipsImported: rels,
		TypeDistribution:      dist,
	}

	if nodes < int64(res.Statistics.NodesCreated) || rels < int64(res.Statistics.RelationshipsCreated) {
		res.Message += "; verification counts are lower than created counts"
	}
}

// closestName suggests the known component name nearest to the missing
// endpoint of a dangling relationship.
func closestName(rel graph.Relationship, names map[string]bool) string {
	missing := rel.Target
	if names[rel.Target] && !names[rel.Source] {
		missing = rel.Source
	}

	best := ""
	bestDist := -1
	for name := range names {
		d := levenshtein.Distance(missing, name, nil)
		if bestDist == -1 || d < bestDist {
			best, bestDist = name, d
		}
	}
	// A suggestion further than half the name length is noise.
	if best == "" || bestDist > len(missing)/2 {
		return ""
	}
	return best
}
