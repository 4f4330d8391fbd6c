//go:build cgo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/strata/internal/cluster"
	"github.com/dusk-indust/strata/internal/export"
	"github.com/dusk-indust/strata/internal/graph"
	"github.com/dusk-indust/strata/internal/scan"
)

func runDiagram(args []string) error {
	fs := flag.NewFlagSet("diagram", flag.ContinueOnError)
	root := fs.String("root", ".", "repository root")
	if err := fs.Parse(args); err != nil {
		return err
	}

	abs, err := filepath.Abs(*root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	graphPath := scan.DefaultGraphPath(abs)
	if _, err := os.Stat(graphPath); err != nil {
		return fmt.Errorf("no graph store at %s\nRun 'strata scan' with store: kuzu configured first", graphPath)
	}

	store, err := graph.NewKuzuFileStore(graphPath)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer store.Close()

	g, clusters, err := loadStoredGraph(context.Background(), store)
	if err != nil {
		return err
	}

	fmt.Print(export.GenerateMermaid(g, clusters))
	return nil
}

// loadStoredGraph reconstructs a diagram-ready graph from a store: every file
// node plus its depth-1 dependencies.
func loadStoredGraph(ctx context.Context, store graph.Store) (*graph.DependencyGraph, []cluster.Cluster, error) {
	files, err := store.GetAllFiles(ctx)
	if err != nil {
		return nil, nil, err
	}

	g := graph.NewDependencyGraph()
	for i := range files {
		g.Files[files[i].Path] = &files[i]
		g.Dependencies[files[i].Path] = []string{}
		g.Dependents[files[i].Path] = []string{}
	}
	for path := range g.Files {
		chains, err := store.GetDependencies(ctx, path, graph.DirectionDependencies, 1)
		if err != nil {
			return nil, nil, err
		}
		for _, chain := range chains {
			target := chain.Nodes[len(chain.Nodes)-1]
			g.Dependencies[path] = append(g.Dependencies[path], target)
			g.Dependents[target] = append(g.Dependents[target], path)
		}
	}

	nodes, err := store.GetClusters(ctx)
	if err != nil {
		return nil, nil, err
	}
	clusters := make([]cluster.Cluster, len(nodes))
	for i, n := range nodes {
		clusters[i] = cluster.Cluster{
			ID:    n.ID,
			Name:  n.Name,
			Files: n.Members,
			Layer: cluster.Layer(n.Layer),
		}
	}
	return g, clusters, nil
}
