// Package mcp exposes the extraction pipeline to MCP clients over Stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ensworks/prodgraph/internal/config"
	"github.com/ensworks/prodgraph/internal/manager"
	"github.com/ensworks/prodgraph/pkg/ingest"
	"github.com/ensworks/prodgraph/pkg/neo"
)

// MCPServer wraps the pipeline to expose it via MCP.
type MCPServer struct {
	manager *manager.StoreManager
	cfg     *config.Config
	log     *zap.Logger
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, mgr *manager.StoreManager, cfg *config.Config, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	s := server.NewMCPServer(
		"prodgraph",
		"0.1.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	ms := &MCPServer{manager: mgr, cfg: cfg, log: log}

	// --- Resources ---

	// Resource: Graph Summary
	s.AddResource(
		mcp.NewResource(
			"prodgraph://graph/summary",
			"Graph Summary",
			mcp.WithResourceDescription("Aggregate node/relationship counts of the graph store"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleGraphSummary,
	)

	// --- Tools ---

	// Tool: Parse Production
	s.AddTool(
		mcp.NewTool(
			"parse_production",
			mcp.WithDescription("Parse class-definition text into a graph document without importing it."),
			mcp.WithString("production", mcp.Required(), mcp.Description("Production class-definition file content")),
			mcp.WithString("routing_rules", mcp.Description("Routing rule class-definition file content")),
		),
		ms.handleParseProduction,
	)

	// Tool: Import Production
	s.AddTool(
		mcp.NewTool(
			"import_production",
			mcp.WithDescription("Parse class-definition text, load the graph into the store, and verify the load."),
			mcp.WithString("production", mcp.Required(), mcp.Description("Production class-definition file content")),
			mcp.WithString("routing_rules", mcp.Description("Routing rule class-definition file content")),
		),
		ms.handleImportProduction,
	)

	// Tool: Graph Summary
	s.AddTool(
		mcp.NewTool(
			"graph_summary",
			mcp.WithDescription("Return node count, relationship count, and relationship-type distribution from the store."),
		),
		ms.handleGraphSummaryTool,
	)

	log.Info("starting MCP server on stdio")
	return server.ServeStdio(s)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleGraphSummary(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	verification, err := ms.summary(ctx)
	if err != nil {
		return nil, err
	}

	jsonBytes, err := json.MarshalIndent(verification, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleParseProduction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	production, rules, errResult := ruleArgs(request)
	if errResult != nil {
		return errResult, nil
	}

	doc, err := ingest.BuildFromSource(production, rules)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
	}

	data, err := doc.Marshal()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize document: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (ms *MCPServer) handleImportProduction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	production, rules, errResult := ruleArgs(request)
	if errResult != nil {
		return errResult, nil
	}

	doc, err := ingest.BuildFromSource(production, rules)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
	}

	store, err := ms.manager.GetStore(ctx, ms.cfg.Neo4j)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("store unavailable: %v", err)), nil
	}

	importer := neo.NewImporter(store, ms.log,
		neo.WithItemTimeout(time.Duration(ms.cfg.Import.TimeoutSeconds)*time.Second))
	res, err := importer.Import(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (ms *MCPServer) handleGraphSummaryTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	verification, err := ms.summary(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(verification, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize summary: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (ms *MCPServer) summary(ctx context.Context) (*neo.Verification, error) {
	store, err := ms.manager.GetStore(ctx, ms.cfg.Neo4j)
	if err != nil {
		return nil, err
	}

	nodes, err := store.NodeCount(ctx)
	if err != nil {
		return nil, err
	}
	rels, err := store.RelationshipCount(ctx)
	if err != nil {
		return nil, err
	}
	dist, err := store.RelationshipTypes(ctx)
	if err != nil {
		return nil, err
	}

	return &neo.Verification{
		NodesImported:         nodes,
		RelationshipsImported: rels,
		TypeDistribution:      dist,
	}, nil
}

func ruleArgs(request mcp.CallToolRequest) (production string, rules []string, errResult *mcp.CallToolResult) {
	args := request.GetArguments()
	production, ok := args["production"].(string)
	if !ok || production == "" {
		return "", nil, mcp.NewToolResultError("production argument required")
	}
	if r, ok := args["routing_rules"].(string); ok && r != "" {
		rules = append(rules, r)
	}
	return production, rules, nil
}
