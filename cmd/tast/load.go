package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tast-lang/tast/internal/graph"
	"github.com/tast-lang/tast/internal/importresolver"
	"github.com/tast-lang/tast/internal/ir"
	"github.com/tast-lang/tast/internal/lang/ast"
	"github.com/tast-lang/tast/internal/lang/lexer"
	"github.com/tast-lang/tast/internal/lang/parser"
)

// parseGraphFile reads path, tokenizes and parses it, and selects the
// graph named graphName (or the file's only graph if graphName is empty).
func parseGraphFile(path, graphName string) (ast.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return ast.Graph{}, fmt.Errorf("reading %s: %w", path, err)
	}

	toks, err := lexer.Tokenize(path, string(src))
	if err != nil {
		return ast.Graph{}, err
	}
	file, err := parser.Parse(path, toks)
	if err != nil {
		return ast.Graph{}, err
	}

	return selectGraph(file.Graphs, graphName, path)
}

// rewireImports resolves and splices ag's cross-graph references into
// irGraph, a no-op if ag declares no imports.
func rewireImports(path string, ag ast.Graph, irGraph *ir.Graph) error {
	if len(ag.Imports) == 0 {
		return nil
	}
	resolver := importresolver.New(filepath.Dir(path), os.ReadFile)
	resolved, err := resolver.Resolve(ag.Imports)
	if err != nil {
		return err
	}
	byAlias := make(map[string][]*ir.Graph, len(resolved))
	for _, r := range resolved {
		byAlias[r.Alias] = r.Graphs
	}
	return importresolver.Rewire(irGraph, byAlias)
}

// loadGraph compiles the named graph out of the scenario file at path all
// the way to a built, validated graph.Graph, ready for traversal and plan
// compilation.
func loadGraph(path, graphName string) (*graph.Graph, error) {
	ag, err := parseGraphFile(path, graphName)
	if err != nil {
		return nil, err
	}

	irGraph, err := ir.Lower(path, ag)
	if err != nil {
		return nil, err
	}
	if err := rewireImports(path, ag, irGraph); err != nil {
		return nil, err
	}
	if err := ir.Validate(path, irGraph); err != nil {
		return nil, err
	}

	return graph.Build(irGraph), nil
}

func selectGraph(graphs []ast.Graph, name, path string) (ast.Graph, error) {
	if len(graphs) == 0 {
		return ast.Graph{}, fmt.Errorf("%s declares no graphs", path)
	}
	if name == "" {
		if len(graphs) > 1 {
			return ast.Graph{}, fmt.Errorf("%s declares %d graphs; pass --graph to select one", path, len(graphs))
		}
		return graphs[0], nil
	}
	for _, g := range graphs {
		if g.Name == name {
			return g, nil
		}
	}
	return ast.Graph{}, fmt.Errorf("%s has no graph named %q", path, name)
}
