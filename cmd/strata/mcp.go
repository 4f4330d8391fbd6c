package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/strata/internal/extract"
	"github.com/dusk-indust/strata/internal/graph"
	"github.com/dusk-indust/strata/internal/mcptools"
)

// runMCP serves the scanner tools over MCP, on stdio by default or over
// streamable HTTP with -http.
func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	httpAddr := fs.String("http", "", "serve MCP over HTTP on this address instead of stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := mcptools.NewService(extract.NewTreeSitterParser(), graph.NewMemStore())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *httpAddr != "" {
		fmt.Fprintf(os.Stderr, "strata mcp: listening on %s\n", *httpAddr)
		return mcptools.RunHTTP(ctx, svc, *httpAddr)
	}
	return mcptools.RunStdio(ctx, svc)
}
