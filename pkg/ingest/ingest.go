// Package ingest orchestrates the extraction pipeline: class-definition
// files in, graph document out, optionally loaded into a store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ensworks/prodgraph/pkg/classdef"
	commonerrors "github.com/ensworks/prodgraph/pkg/common/errors"
	"github.com/ensworks/prodgraph/pkg/graph"
	"github.com/ensworks/prodgraph/pkg/neo"
)

// Options names the input files for one pipeline run.
type Options struct {
	ProductionFile string
	RuleFiles      []string
}

// BuildDocument parses the input files and builds the graph document. Parse
// errors abort before any graph construction and carry the offending file
// path; no partial document is ever returned.
func BuildDocument(opts Options) (*graph.Document, error) {
	text, err := os.ReadFile(opts.ProductionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read production file: %w", err)
	}

	prod, err := classdef.ParseProduction(string(text))
	if err != nil {
		return nil, annotate(err, opts.ProductionFile)
	}

	sources := []string{opts.ProductionFile}
	var ruleSets []*classdef.RuleSet
	for _, path := range opts.RuleFiles {
		ruleText, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read routing rule file: %w", err)
		}
		set, err := classdef.ParseRoutingRules(string(ruleText))
		if err != nil {
			return nil, annotate(err, path)
		}
		ruleSets = append(ruleSets, set)
		sources = append(sources, path)
	}

	return graph.Build(prod, ruleSets, sources...), nil
}

// BuildFromSource builds the graph document from in-memory class-definition
// text instead of files. Used by the API layers, which receive file contents
// on the wire.
func BuildFromSource(production string, ruleSources []string) (*graph.Document, error) {
	prod, err := classdef.ParseProduction(production)
	if err != nil {
		return nil, err
	}

	var ruleSets []*classdef.RuleSet
	for _, src := range ruleSources {
		set, err := classdef.ParseRoutingRules(src)
		if err != nil {
			return nil, err
		}
		ruleSets = append(ruleSets, set)
	}

	return graph.Build(prod, ruleSets), nil
}

// Run executes the full pipeline against the given store: parse, build,
// import, verify.
func Run(ctx context.Context, store neo.Store, log *zap.Logger, opts Options) (*neo.Result, error) {
	doc, err := BuildDocument(opts)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Parsed production %s: %d components, %d relationships\n",
		doc.Metadata.Production, doc.Metadata.Counts.Nodes, doc.Metadata.Counts.Relationships)
	for _, w := range doc.Metadata.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}

	return neo.NewImporter(store, log).Import(ctx, doc)
}

func annotate(err error, path string) error {
	var pe *commonerrors.ParseError
	if errors.As(err, &pe) {
		return pe.WithPath(path)
	}
	return fmt.Errorf("%s: %w", path, err)
}
