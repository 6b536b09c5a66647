package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ensworks/prodgraph/internal/config"
	"github.com/ensworks/prodgraph/internal/manager"
	"github.com/ensworks/prodgraph/pkg/export"
	"github.com/ensworks/prodgraph/pkg/graph"
	"github.com/ensworks/prodgraph/pkg/ingest"
	mcpserver "github.com/ensworks/prodgraph/pkg/mcp"
	"github.com/ensworks/prodgraph/pkg/neo"
	"github.com/ensworks/prodgraph/pkg/server"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

func main() {
	_ = godotenv.Load()

	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prodgraph",
		Short:         "Extract integration production topology into a graph store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			return err
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")

	root.AddCommand(importCmd(), exportCmd(), serveCmd(), mcpCmd())
	return root
}

func importCmd() *cobra.Command {
	var (
		productionFile string
		ruleFiles      []string
		output         string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse class-definition files and load the graph into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := ingest.Options{ProductionFile: productionFile, RuleFiles: ruleFiles}

			doc, err := ingest.BuildDocument(opts)
			if err != nil {
				return err
			}
			if output != "" {
				if err := writeDocument(doc, output); err != nil {
					return err
				}
			}

			store, err := neo.NewNeo4jStore(ctx, cfg.Neo4j, logger)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			importer := neo.NewImporter(store, logger,
				neo.WithItemTimeout(time.Duration(cfg.Import.TimeoutSeconds)*time.Second))
			res, err := importer.Import(ctx, doc)
			if err != nil {
				return err
			}

			printResult(res)
			if !res.Success {
				return fmt.Errorf("import finished with failures")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&productionFile, "production-file", "", "path to the production class-definition file")
	cmd.Flags().StringArrayVar(&ruleFiles, "routing-rule-file", nil, "path to a routing rule class-definition file (repeatable)")
	cmd.Flags().StringVar(&output, "output", "", "optional path to write the graph document JSON")
	_ = cmd.MarkFlagRequired("production-file")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		productionFile string
		ruleFiles      []string
		output         string
		format         string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Parse class-definition files and write the graph document without importing",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ingest.BuildDocument(ingest.Options{
				ProductionFile: productionFile,
				RuleFiles:      ruleFiles,
			})
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "document":
				data, err = doc.Marshal()
			case "d3":
				data, err = marshalD3(doc)
			default:
				return fmt.Errorf("unknown format %q (want document or d3)", format)
			}
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			return os.WriteFile(output, data, 0644)
		},
	}

	cmd.Flags().StringVar(&productionFile, "production-file", "", "path to the production class-definition file")
	cmd.Flags().StringArrayVar(&ruleFiles, "routing-rule-file", nil, "path to a routing rule class-definition file (repeatable)")
	cmd.Flags().StringVar(&output, "output", "", "output path (default stdout)")
	cmd.Flags().StringVar(&format, "format", "document", "output format: document or d3")
	_ = cmd.MarkFlagRequired("production-file")
	return cmd
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Server.Port = port
			}

			mgr := manager.NewStoreManager(logger)
			defer mgr.CloseAll()

			fmt.Printf("Starting REST API server on :%s\n", cfg.Server.Port)
			srv := server.NewServer(mgr, cfg, logger)
			return srv.Run(":" + cfg.Server.Port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides config)")
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := manager.NewStoreManager(logger)
			defer mgr.CloseAll()
			return mcpserver.Run(cmd.Context(), mgr, cfg, logger)
		},
	}
}

func writeDocument(doc *graph.Document, path string) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write graph document: %w", err)
	}
	fmt.Printf("Wrote graph document to %s\n", path)
	return nil
}

func marshalD3(doc *graph.Document) ([]byte, error) {
	return json.MarshalIndent(export.FromDocument(doc), "", "  ")
}

func printResult(res *neo.Result) {
	fmt.Printf("Import %s: %s\n", statusWord(res.Success), res.Message)
	fmt.Printf("Verification: %d nodes, %d relationships\n",
		res.Verification.NodesImported, res.Verification.RelationshipsImported)
	for relType, count := range res.Verification.TypeDistribution {
		fmt.Printf("  %s: %d\n", relType, count)
	}
	for _, failure := range res.Failures {
		fmt.Printf("  Failure: %s\n", failure)
	}
}

func statusWord(success bool) string {
	if success {
		return "succeeded"
	}
	return "finished with failures"
}
