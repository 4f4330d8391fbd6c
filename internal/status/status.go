// Package status reports the scan state of a workspace: configuration,
// persisted clusters, and when the last scan ran.
package status

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/strata/internal/persist"
)

// WorkspaceStatus describes the scan state of one repository root.
type WorkspaceStatus struct {
	Root string `json:"root"`
	// HasConfig is true when a strata.yml (or .strata.yml) exists.
	HasConfig bool `json:"hasConfig"`
	// ConfigPath is the config file found, when any.
	ConfigPath string `json:"configPath,omitempty"`
	// HasClusterFile is true when a persisted cluster record exists.
	HasClusterFile bool `json:"hasClusterFile"`
	// ClusterCount is the number of persisted clusters.
	ClusterCount int `json:"clusterCount"`
	// Layers counts persisted clusters per layer.
	Layers map[string]int `json:"layers,omitempty"`
	// LastScan is the cluster file's modification time, the closest thing to
	// a scan timestamp the workspace records.
	LastScan time.Time `json:"lastScan,omitzero"`
}

// Report inspects a repository root and returns its workspace status. A
// corrupt cluster file is reported as an error; everything merely absent is
// just reflected in the flags.
func Report(root string) (*WorkspaceStatus, error) {
	ws := &WorkspaceStatus{Root: root}

	for _, name := range []string{"strata.yml", ".strata.yml"} {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			ws.HasConfig = true
			ws.ConfigPath = path
			break
		}
	}

	clusterFile := persist.DefaultPath(root)
	info, err := os.Stat(clusterFile)
	if err != nil {
		return ws, nil
	}
	ws.HasClusterFile = true
	ws.LastScan = info.ModTime()

	clusters, err := persist.Load(clusterFile)
	if err != nil {
		return nil, err
	}
	ws.ClusterCount = len(clusters)
	ws.Layers = make(map[string]int)
	for _, c := range clusters {
		ws.Layers[string(c.Layer)]++
	}

	return ws, nil
}
