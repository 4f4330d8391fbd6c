// Package config loads project-level settings from strata.yml.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/strata/internal/cluster"
	"github.com/dusk-indust/strata/internal/scan"
)

// ProjectConfig holds project-level settings loaded from strata.yml.
type ProjectConfig struct {
	// IgnoreDirs adds directory names to the walk's skip list.
	IgnoreDirs []string `yaml:"ignore_dirs,omitempty"`
	// Workers bounds the parse fan-out; 0 means one per CPU.
	Workers int `yaml:"workers,omitempty"`
	// Cluster tunes the folder-grouping granularity.
	Cluster ClusterConfig `yaml:"cluster,omitempty"`
	// Match tunes cluster identity reconciliation.
	Match MatchConfig `yaml:"match,omitempty"`
	// Store selects the graph backend: "memory" (default) or "kuzu".
	Store string `yaml:"store,omitempty"`
	// Output sets export destinations.
	Output OutputConfig `yaml:"output,omitempty"`
}

// ClusterConfig mirrors cluster.Options in YAML form.
type ClusterConfig struct {
	MaxDepth int `yaml:"max_depth,omitempty"`
	MinFiles int `yaml:"min_files,omitempty"`
}

// MatchConfig tunes the identity matcher.
type MatchConfig struct {
	// MinOverlap is the Jaccard threshold below which clusters never match.
	MinOverlap float64 `yaml:"min_overlap,omitempty"`
}

// OutputConfig sets export destinations.
type OutputConfig struct {
	// Report is where `strata export` writes the JSON report.
	Report string `yaml:"report,omitempty"`
	// Diagram is where `strata export` writes the Mermaid diagram.
	Diagram string `yaml:"diagram,omitempty"`
}

// Load attempts to read strata.yml or .strata.yml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"strata.yml", ".strata.yml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// ScanOptions projects the config onto pipeline options.
func (c *ProjectConfig) ScanOptions() scan.Options {
	return scan.Options{
		IgnoreDirs: c.IgnoreDirs,
		Workers:    c.Workers,
		Cluster: cluster.Options{
			MaxDepth: c.Cluster.MaxDepth,
			MinFiles: c.Cluster.MinFiles,
		},
		MinOverlap: c.Match.MinOverlap,
	}
}
