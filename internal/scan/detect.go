package scan

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/dusk-indust/strata/internal/resolve"
)

// ProjectProfile records what resolution machinery a repository can engage.
// It is informational: the resolver degrades gracefully on its own, but the
// profile tells users and the jobs API what the scan will actually do.
type ProjectProfile struct {
	// HasModuleConfig is true when a tsconfig/jsconfig exists at the root.
	HasModuleConfig bool `json:"hasModuleConfig"`
	// GoModulePath is the module path from go.mod, or "".
	GoModulePath string `json:"goModulePath,omitempty"`
	// Workspaces holds package.json workspace globs, when declared.
	Workspaces []string `json:"workspaces,omitempty"`
}

// Detect probes the repository root for the configuration files that decide
// which resolvers engage. All probes are best-effort: a missing or malformed
// file just leaves its capability off.
func Detect(root string, resolver *resolve.Resolver) ProjectProfile {
	profile := ProjectProfile{
		GoModulePath: resolver.GoModulePath(),
	}

	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		if info, err := os.Stat(filepath.Join(root, name)); err == nil && !info.IsDir() {
			profile.HasModuleConfig = true
			break
		}
	}

	profile.Workspaces = readWorkspaces(filepath.Join(root, "package.json"))

	log.Printf("scan: profile moduleConfig=%v goModule=%q workspaces=%d",
		profile.HasModuleConfig, profile.GoModulePath, len(profile.Workspaces))
	return profile
}

// readWorkspaces pulls workspace globs out of a package.json. Both the plain
// array form and the object-with-packages form are accepted.
func readWorkspaces(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var pkg struct {
		Workspaces json.RawMessage `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || len(pkg.Workspaces) == 0 {
		return nil
	}

	var globs []string
	if err := json.Unmarshal(pkg.Workspaces, &globs); err == nil {
		return globs
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(pkg.Workspaces, &obj); err == nil {
		return obj.Packages
	}
	return nil
}
