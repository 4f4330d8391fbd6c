package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with all 5 scanner tools registered.
func NewMCPServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "strata",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_repository",
		Description: "Scan a repository: walk the tree, parse source files with tree-sitter, build the file dependency graph, group files into folder clusters, and reconcile cluster identities against the previous scan.",
	}, svc.ScanRepository)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_file_dependencies",
		Description: "Traverse the dependency graph from a file. Direction 'dependencies' follows what the file imports, 'dependents' follows what imports it, up to the given depth.",
	}, svc.GetFileDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clusters",
		Description: "Return the folder clusters of the last scan with their layer classification and confidence.",
	}, svc.GetClusters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_import",
		Description: "Resolve an import specifier from a given file against the last scan's file set, including tsconfig path aliases and Go module paths.",
	}, svc.ResolveImport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_scan_stats",
		Description: "Return aggregate statistics of the last scan: file, edge, and export counts.",
	}, svc.GetScanStats)

	return server
}

// RunStdio serves the MCP tools over stdio until ctx is done.
func RunStdio(ctx context.Context, svc *Service) error {
	return NewMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts an HTTP server exposing the MCP tools on addr.
func RunHTTP(ctx context.Context, svc *Service, addr string) error {
	server := NewMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
