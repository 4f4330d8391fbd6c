// Package mcptools exposes the scanner over the Model Context Protocol so
// agent tooling can scan repositories and query the resulting graph.
package mcptools

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/strata/internal/extract"
	"github.com/dusk-indust/strata/internal/graph"
	"github.com/dusk-indust/strata/internal/resolve"
	"github.com/dusk-indust/strata/internal/scan"
)

// Service holds the parser, the store the last scan was loaded into, and the
// resolver for that scan. Query tools answer from the last completed scan;
// calling them before scan_repository is an error.
type Service struct {
	parser extract.Parser

	mu       sync.Mutex
	store    graph.Store
	resolver *resolve.Resolver
	result   *scan.Result
	repo     string
}

// NewService creates a Service. store receives each scan's graph; MemStore is
// the usual choice, KuzuStore when the graph should persist.
func NewService(parser extract.Parser, store graph.Store) *Service {
	return &Service{parser: parser, store: store}
}

// --- MCP Tool Input/Output Types ---
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ScanRepositoryInput is the input for the scan_repository MCP tool.
type ScanRepositoryInput struct {
	Path        string `json:"path" jsonschema:"the absolute path to the repository to scan"`
	ClusterFile string `json:"clusterFile,omitempty" jsonschema:"override for the persisted cluster record path (default: .strata/clusters.yml under the repo)"`
}

// ScanRepositoryOutput is the result of the scan_repository MCP tool.
type ScanRepositoryOutput struct {
	Files      int    `json:"files"`
	Edges      int    `json:"edges"`
	Clusters   int    `json:"clusters"`
	Matched    int    `json:"matched"`
	Orphaned   int    `json:"orphaned"`
	DurationMS int64  `json:"durationMs"`
	Repo       string `json:"repo"`
}

// GetFileDependenciesInput is the input for the get_file_dependencies MCP tool.
type GetFileDependenciesInput struct {
	Path      string `json:"path" jsonschema:"repo-relative file path"`
	Direction string `json:"direction,omitempty" jsonschema:"dependencies (what it imports) or dependents (what imports it). Default: dependencies"`
	Depth     int    `json:"depth,omitempty" jsonschema:"maximum traversal depth (default: 1)"`
}

// GetFileDependenciesOutput is the result of the get_file_dependencies MCP tool.
type GetFileDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// GetClustersInput is the input for the get_clusters MCP tool.
type GetClustersInput struct{}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Clusters []graph.ClusterNode `json:"clusters"`
}

// ResolveImportInput is the input for the resolve_import MCP tool.
type ResolveImportInput struct {
	Specifier string `json:"specifier" jsonschema:"the import specifier to resolve"`
	FromFile  string `json:"fromFile" jsonschema:"repo-relative path of the importing file"`
}

// ResolveImportOutput is the result of the resolve_import MCP tool.
type ResolveImportOutput struct {
	Resolved bool   `json:"resolved"`
	Path     string `json:"path,omitempty"`
	Alias    bool   `json:"alias"`
}

// GetScanStatsInput is the input for the get_scan_stats MCP tool.
type GetScanStatsInput struct{}

// GetScanStatsOutput is the result of the get_scan_stats MCP tool.
type GetScanStatsOutput struct {
	Stats graph.GraphStats `json:"stats"`
}

// --- Handlers ---

// ScanRepository runs the full pipeline over a repository and loads the
// result into the service store.
func (s *Service) ScanRepository(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ScanRepositoryInput,
) (*mcp.CallToolResult, ScanRepositoryOutput, error) {
	if input.Path == "" {
		return nil, ScanRepositoryOutput{}, fmt.Errorf("path is required")
	}
	info, err := os.Stat(input.Path)
	if err != nil {
		return nil, ScanRepositoryOutput{}, fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return nil, ScanRepositoryOutput{}, fmt.Errorf("path is not a directory: %s", input.Path)
	}

	opts := scan.Options{ClusterFile: input.ClusterFile, Persist: true}
	scanner := scan.NewScanner(input.Path, s.parser, opts, nil)
	result, err := scanner.Run(ctx)
	if err != nil {
		return nil, ScanRepositoryOutput{}, fmt.Errorf("scan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := graph.SyncGraph(ctx, s.store, result.Graph, scan.StoreClusters(result.Clusters)); err != nil {
		return nil, ScanRepositoryOutput{}, fmt.Errorf("load store: %w", err)
	}

	paths := make([]string, 0, len(result.Graph.Files))
	for p := range result.Graph.Files {
		paths = append(paths, p)
	}
	s.resolver = resolve.NewResolver(input.Path, paths)
	s.result = result
	s.repo = input.Path

	return nil, ScanRepositoryOutput{
		Files:      result.Stats.TotalFiles,
		Edges:      result.Stats.TotalDependencies,
		Clusters:   len(result.Clusters),
		Matched:    len(result.Match.MatchedIDs),
		Orphaned:   len(result.Match.Orphaned),
		DurationMS: result.Duration.Milliseconds(),
		Repo:       input.Path,
	}, nil
}

// GetFileDependencies traverses the stored graph from one file.
func (s *Service) GetFileDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetFileDependenciesInput,
) (*mcp.CallToolResult, GetFileDependenciesOutput, error) {
	if err := s.requireScan(); err != nil {
		return nil, GetFileDependenciesOutput{}, err
	}
	if input.Path == "" {
		return nil, GetFileDependenciesOutput{}, fmt.Errorf("path is required")
	}

	direction := graph.DirectionDependencies
	switch input.Direction {
	case "", string(graph.DirectionDependencies):
	case string(graph.DirectionDependents):
		direction = graph.DirectionDependents
	default:
		return nil, GetFileDependenciesOutput{}, fmt.Errorf("unknown direction %q", input.Direction)
	}

	depth := input.Depth
	if depth <= 0 {
		depth = 1
	}

	chains, err := s.store.GetDependencies(ctx, input.Path, direction, depth)
	if err != nil {
		return nil, GetFileDependenciesOutput{}, err
	}
	return nil, GetFileDependenciesOutput{Chains: chains}, nil
}

// GetClusters returns the clusters of the last scan.
func (s *Service) GetClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetClustersInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	if err := s.requireScan(); err != nil {
		return nil, GetClustersOutput{}, err
	}
	clusters, err := s.store.GetClusters(ctx)
	if err != nil {
		return nil, GetClustersOutput{}, err
	}
	return nil, GetClustersOutput{Clusters: clusters}, nil
}

// ResolveImport resolves one import specifier against the last scan's file
// set, the way the graph builder would.
func (s *Service) ResolveImport(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ResolveImportInput,
) (*mcp.CallToolResult, ResolveImportOutput, error) {
	if err := s.requireScan(); err != nil {
		return nil, ResolveImportOutput{}, err
	}
	if input.Specifier == "" || input.FromFile == "" {
		return nil, ResolveImportOutput{}, fmt.Errorf("specifier and fromFile are required")
	}

	s.mu.Lock()
	resolver := s.resolver
	s.mu.Unlock()

	target := resolver.ResolveImport(input.Specifier, input.FromFile)
	return nil, ResolveImportOutput{
		Resolved: target != "",
		Path:     target,
		Alias:    resolver.IsAliasImport(input.Specifier, input.FromFile),
	}, nil
}

// GetScanStats returns graph-wide aggregates from the store.
func (s *Service) GetScanStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetScanStatsInput,
) (*mcp.CallToolResult, GetScanStatsOutput, error) {
	if err := s.requireScan(); err != nil {
		return nil, GetScanStatsOutput{}, err
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, GetScanStatsOutput{}, err
	}
	return nil, GetScanStatsOutput{Stats: stats}, nil
}

func (s *Service) requireScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return fmt.Errorf("no scan yet: call scan_repository first")
	}
	return nil
}
