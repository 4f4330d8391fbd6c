//go:build cgo

package main

import (
	"context"
	"os"

	"github.com/dusk-indust/strata/internal/graph"
	"github.com/dusk-indust/strata/internal/scan"
)

// persistKuzu replaces the on-disk graph store with the scan's result.
func persistKuzu(root string, result *scan.Result) error {
	path := scan.DefaultGraphPath(root)

	// Remove the old graph to avoid stale rows.
	os.RemoveAll(path)

	store, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return graph.SyncGraph(context.Background(), store, result.Graph, scan.StoreClusters(result.Clusters))
}
