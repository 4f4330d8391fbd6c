package graph

import (
	"context"
	"io"
)

// Store is the queryable backend a scan's graph is loaded into.
// Implementations: KuzuStore (persistent, cgo), MemStore (always available,
// used by tests and the MCP server's default mode).
type Store interface {
	io.Closer

	// InitSchema prepares the backend; called once before any write.
	InitSchema(ctx context.Context) error

	// Write operations.
	PutFile(ctx context.Context, node FileNode) error
	PutDependency(ctx context.Context, source, target string) error
	PutCluster(ctx context.Context, node ClusterNode) error

	// Read operations.
	GetFile(ctx context.Context, path string) (*FileNode, error)
	GetAllFiles(ctx context.Context) ([]FileNode, error)

	// GetDependencies walks dependency edges from path in the given
	// direction, up to maxDepth hops, returning each reachable file once.
	GetDependencies(ctx context.Context, path string, direction Direction, maxDepth int) ([]DependencyChain, error)

	GetClusters(ctx context.Context) ([]ClusterNode, error)

	// Stats reports graph-wide aggregates.
	Stats(ctx context.Context) (GraphStats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	// DirectionDependencies follows what a file imports.
	DirectionDependencies Direction = "dependencies"
	// DirectionDependents follows what imports a file.
	DirectionDependents Direction = "dependents"
)

// ClusterNode is the store-resident view of a cluster: identity, membership,
// and layer, without the authored metadata the YAML records carry.
type ClusterNode struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Layer      string   `json:"layer"`
	Confidence float64  `json:"confidence"`
	Members    []string `json:"members"`
}

// DependencyChain is one reachable file plus the path that reached it.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// SyncGraph loads a built graph and its clusters into a store. Files land
// first, then edges, then clusters, matching schema constraints on backends
// that enforce them. Edges pointing outside the node set are skipped; the
// graph keeps them for reporting, but a store row needs both endpoints.
func SyncGraph(ctx context.Context, store Store, g *DependencyGraph, clusters []ClusterNode) error {
	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	for _, node := range g.Files {
		if err := store.PutFile(ctx, *node); err != nil {
			return err
		}
	}
	for source, targets := range g.Dependencies {
		for _, target := range targets {
			if _, known := g.Files[target]; !known {
				continue
			}
			if err := store.PutDependency(ctx, source, target); err != nil {
				return err
			}
		}
	}
	for _, c := range clusters {
		if err := store.PutCluster(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
