// Package initdata embeds the workspace bootstrap files that `strata init`
// writes: the default strata.yml and the .mcp.json server registration
// snippet.
package initdata

import "embed"

//go:embed assets
var assetsFS embed.FS

// DefaultConfig returns the default strata.yml template.
func DefaultConfig() []byte {
	data, err := assetsFS.ReadFile("assets/strata.yml")
	if err != nil {
		panic("initdata: missing embedded strata.yml: " + err.Error())
	}
	return data
}

// MCPSnippet returns the .mcp.json registration for the strata MCP server.
func MCPSnippet() []byte {
	data, err := assetsFS.ReadFile("assets/mcp.json")
	if err != nil {
		panic("initdata: missing embedded mcp.json: " + err.Error())
	}
	return data
}
