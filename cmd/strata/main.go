// Command strata scans a repository into a file dependency graph, groups the
// files into folder clusters, and keeps cluster identities stable across
// scans.
package main

import (
	"fmt"
	"os"
)

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: strata <command> [flags]

commands:
  scan      scan a repository and persist the cluster record
  status    report the workspace's scan state
  export    scan and write the JSON report
  diagram   render the persisted graph as a Mermaid diagram
  serve     run the scan-job HTTP service
  jobs      talk to a running scan-job service
  init      write the default config and register the MCP server
  mcp       serve the MCP tools over stdio
  version   print the version
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "scan":
		return runScan(rest)
	case "status":
		return runStatus(rest)
	case "export":
		return runExport(rest)
	case "diagram":
		return runDiagram(rest)
	case "serve":
		return runServe(rest)
	case "jobs":
		return runJobs(rest)
	case "init":
		return runInit(rest)
	case "mcp":
		return runMCP(rest)
	case "version":
		fmt.Println(version)
		return nil
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}
