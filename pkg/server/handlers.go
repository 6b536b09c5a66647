package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ensworks/prodgraph/pkg/common/errors"
	"github.com/ensworks/prodgraph/pkg/export"
	"github.com/ensworks/prodgraph/pkg/ingest"
	"github.com/ensworks/prodgraph/pkg/neo"
)

// parseRequest carries raw class-definition file contents.
type parseRequest struct {
	Production   string   `json:"production"`
	RoutingRules []string `json:"routing_rules"`
}

func (s *Server) bindParseRequest(c *gin.Context) (*parseRequest, bool) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return nil, false
	}
	if strings.TrimSpace(req.Production) == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing production source", nil))
		return nil, false
	}
	return &req, true
}

// handleParse builds and returns the graph document without touching a store.
func (s *Server) handleParse(c *gin.Context) {
	req, ok := s.bindParseRequest(c)
	if !ok {
		return
	}

	doc, err := ingest.BuildFromSource(req.Production, req.RoutingRules)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// handleD3 builds the graph document and returns it in D3 force-graph shape.
func (s *Server) handleD3(c *gin.Context) {
	req, ok := s.bindParseRequest(c)
	if !ok {
		return
	}

	doc, err := ingest.BuildFromSource(req.Production, req.RoutingRules)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, export.FromDocument(doc))
}

// handleImport runs the full pipeline: parse, build, load, verify.
func (s *Server) handleImport(c *gin.Context) {
	req, ok := s.bindParseRequest(c)
	if !ok {
		return
	}

	doc, err := ingest.BuildFromSource(req.Production, req.RoutingRules)
	if err != nil {
		handleError(c, err)
		return
	}

	store, err := s.manager.GetStore(c.Request.Context(), s.storeConfig(c))
	if err != nil {
		handleError(c, err)
		return
	}

	importer := neo.NewImporter(store, s.log,
		neo.WithItemTimeout(time.Duration(s.cfg.Import.TimeoutSeconds)*time.Second))
	res, err := importer.Import(c.Request.Context(), doc)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleVerify returns the aggregate store counts without importing.
func (s *Server) handleVerify(c *gin.Context) {
	store, err := s.manager.GetStore(c.Request.Context(), s.storeConfig(c))
	if err != nil {
		handleError(c, err)
		return
	}

	ctx := c.Request.Context()
	nodes, err := store.NodeCount(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	rels, err := store.RelationshipCount(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	dist, err := store.RelationshipTypes(ctx)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, neo.Verification{
		NodesImported:         nodes,
		RelationshipsImported: rels,
		TypeDistribution:      dist,
	})
}

// storeConfig applies the optional ?database= override to the configured
// connection settings.
func (s *Server) storeConfig(c *gin.Context) neo.Config {
	cfg := s.cfg.Neo4j
	if db := c.Query("database"); db != "" {
		cfg.Database = db
	}
	return cfg
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
