package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/strata/internal/cluster"
	"github.com/dusk-indust/strata/internal/graph"
	"github.com/dusk-indust/strata/internal/identity"
	"github.com/dusk-indust/strata/internal/scan"
)

// ScanReport is the top-level JSON export of one completed scan.
type ScanReport struct {
	Repo        string              `json:"repo"`
	GeneratedAt string              `json:"generatedAt"`
	Profile     scan.ProjectProfile `json:"profile"`
	Stats       graph.GraphStats    `json:"stats"`
	Clusters    []cluster.Cluster   `json:"clusters"`
	Matches     []identity.Match    `json:"matches,omitempty"`
	Orphaned    []OrphanRecord      `json:"orphaned,omitempty"`
}

// OrphanRecord summarizes a persisted cluster no new cluster claimed.
type OrphanRecord struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// BuildReport assembles a ScanReport from a scan result.
func BuildReport(repo string, res *scan.Result) *ScanReport {
	report := &ScanReport{
		Repo:        repo,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     res.Profile,
		Stats:       res.Stats,
		Clusters:    res.Clusters,
	}
	if res.Match != nil {
		report.Matches = res.Match.Matches
		for _, o := range res.Match.Orphaned {
			report.Orphaned = append(report.Orphaned, OrphanRecord{
				ID:    o.ID,
				Name:  o.Name,
				Files: o.Files,
			})
		}
	}
	return report
}

// WriteReport marshals the report to path, creating parent directories.
func WriteReport(report *ScanReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("export: write report: %w", err)
	}
	return nil
}
