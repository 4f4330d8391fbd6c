package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/strata/internal/initdata"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// strataMCPEntry is the MCP server configuration for the strata binary.
var strataMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "strata",
  "args": ["mcp"]
}`)

// runInit writes a starter strata.yml and registers the strata MCP server
// in the project's .mcp.json.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	root := fs.String("root", ".", "project directory to initialize")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	abs, err := filepath.Abs(*root)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	cfgPath := filepath.Join(abs, "strata.yml")
	if _, err := os.Stat(cfgPath); err == nil && !*force {
		fmt.Printf("  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, cfgPath))
	} else {
		if err := os.WriteFile(cfgPath, initdata.DefaultConfig(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cfgPath, err)
		}
		fmt.Printf("  created %s\n", dotRelative(abs, cfgPath))
	}

	if err := mergeMCPConfig(filepath.Join(abs, ".mcp.json"), *force); err != nil {
		return err
	}

	fmt.Println("\nSetup complete. Run `strata scan` to build the dependency map.")
	return nil
}

// mergeMCPConfig creates or merges the strata entry into .mcp.json.
func mergeMCPConfig(mcpPath string, force bool) error {
	data, err := os.ReadFile(mcpPath)
	if err != nil {
		// No existing file: write the embedded snippet verbatim.
		if err := os.WriteFile(mcpPath, initdata.MCPSnippet(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", mcpPath, err)
		}
		fmt.Printf("  created .mcp.json with strata MCP server\n")
		return nil
	}

	var cfg mcpConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", mcpPath, err)
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["strata"]; exists && !force {
		fmt.Printf("  skipped .mcp.json strata entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["strata"] = strataMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	fmt.Printf("  updated .mcp.json with strata MCP server\n")
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
