package graph

import (
	"context"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// edge is one stored dependency. Edges keep multiplicity, mirroring the
// DependencyGraph they were loaded from.
type edge struct {
	source string
	target string
}

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	files    map[string]FileNode
	order    []string // insertion-order file paths, for deterministic reads
	edges    []edge
	clusters []ClusterNode
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		files: make(map[string]FileNode),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// PutFile stores a file node keyed by its path.
func (m *MemStore) PutFile(_ context.Context, node FileNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.files[node.Path]; !exists {
		m.order = append(m.order, node.Path)
	}
	m.files[node.Path] = node
	return nil
}

// PutDependency appends a dependency edge.
func (m *MemStore) PutDependency(_ context.Context, source, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, edge{source: source, target: target})
	return nil
}

// PutCluster appends a cluster node.
func (m *MemStore) PutCluster(_ context.Context, node ClusterNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusters = append(m.clusters, node)
	return nil
}

// GetFile returns the file node for the given path, or nil when not found.
func (m *MemStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// GetAllFiles returns every stored file node in insertion order.
func (m *MemStore) GetAllFiles(_ context.Context) ([]FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FileNode, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, m.files[p])
	}
	return out, nil
}

// GetDependencies performs a BFS over dependency edges from path in the given
// direction, up to maxDepth hops. Each reachable file appears once, with the
// path that first reached it.
func (m *MemStore) GetDependencies(_ context.Context, path string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{path: true}
	queue := []bfsEntry{{id: path, path: []string{path}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range m.neighbors(entry.id, direction) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{
					Nodes: newPath,
					Depth: len(newPath) - 1,
				})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}

	return chains, nil
}

// neighbors returns paths reachable from id in one hop along the direction.
func (m *MemStore) neighbors(id string, direction Direction) []string {
	var result []string
	seen := make(map[string]bool)
	for _, e := range m.edges {
		var nb string
		switch direction {
		case DirectionDependencies:
			if e.source != id {
				continue
			}
			nb = e.target
		case DirectionDependents:
			if e.target != id {
				continue
			}
			nb = e.source
		default:
			continue
		}
		// Edge multiplicity is stored but a BFS wants each neighbor once.
		if !seen[nb] {
			seen[nb] = true
			result = append(result, nb)
		}
	}
	return result
}

// GetClusters returns all stored clusters.
func (m *MemStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ClusterNode, len(m.clusters))
	copy(out, m.clusters)
	return out, nil
}

// GetAllEdges returns every stored dependency edge as source/target pairs, in
// insertion order, multiplicity intact.
func (m *MemStore) GetAllEdges(_ context.Context) ([][2]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][2]string, len(m.edges))
	for i, e := range m.edges {
		out[i] = [2]string{e.source, e.target}
	}
	return out, nil
}

// Stats aggregates totals over the stored graph.
func (m *MemStore) Stats(_ context.Context) (GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := GraphStats{
		TotalFiles:        len(m.files),
		TotalDependencies: len(m.edges),
	}
	for _, f := range m.files {
		stats.TotalExports += len(f.Exports)
	}
	if stats.TotalFiles > 0 {
		stats.AvgDependencies = float64(stats.TotalDependencies) / float64(stats.TotalFiles)
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
