// Package persist reads and writes the cluster records that carry identity
// and user-authored metadata across scans.
package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/strata/internal/cluster"
)

// FileVersion is the cluster file format version this build writes.
const FileVersion = 1

// ClusterFile is the on-disk document: a version header plus every persisted
// cluster record.
type ClusterFile struct {
	Version  int               `yaml:"version"`
	Clusters []cluster.Cluster `yaml:"clusters"`
}

// DefaultPath returns the conventional cluster file location inside a
// repository.
func DefaultPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".strata", "clusters.yml")
}

// Load reads persisted clusters from path. A missing file is a first scan:
// it returns an empty record set, not an error. Malformed YAML is a boundary
// error, and every record is validated once here so downstream code never
// re-checks shapes.
func Load(path string) ([]cluster.Cluster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: read %s: %w", path, err)
	}

	var doc ClusterFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persist: parse %s: %w", path, err)
	}

	for i := range doc.Clusters {
		if err := Validate(&doc.Clusters[i]); err != nil {
			return nil, fmt.Errorf("persist: %s: cluster %d: %w", path, i, err)
		}
	}
	return doc.Clusters, nil
}

// Validate checks one cluster record at the persistence boundary.
func Validate(c *cluster.Cluster) error {
	if c.ID == "" {
		return errors.New("missing id")
	}
	if c.Name == "" {
		return errors.New("missing name")
	}
	if len(c.Files) == 0 {
		return fmt.Errorf("cluster %q has no files", c.ID)
	}
	if c.Layer != "" && !cluster.ValidLayer(c.Layer) {
		return fmt.Errorf("cluster %q has unknown layer %q", c.ID, c.Layer)
	}
	if conf := c.LayerDetection.Confidence; conf < 0 || conf > 1 {
		return fmt.Errorf("cluster %q confidence %f out of range", c.ID, conf)
	}
	return nil
}

// Save writes clusters to path atomically: the document lands in a temp file
// in the same directory and is renamed into place, so a crash never leaves a
// half-written cluster file behind.
func Save(path string, clusters []cluster.Cluster) error {
	doc := ClusterFile{Version: FileVersion, Clusters: clusters}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("persist: marshal clusters: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".clusters-*.yml")
	if err != nil {
		return fmt.Errorf("persist: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("persist: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: rename into %s: %w", path, err)
	}
	return nil
}

// SaveIfChanged rewrites the cluster file only when the new partition differs
// from the old one in a semantically meaningful field. It reports whether a
// write happened.
func SaveIfChanged(path string, old, updated []cluster.Cluster) (bool, error) {
	if !Changed(old, updated) {
		return false, nil
	}
	if err := Save(path, updated); err != nil {
		return false, err
	}
	return true, nil
}

// Changed reports whether the two partitions differ in identity, membership,
// layer, purpose hint, or entry points. Detection confidence wobble and
// metadata timestamps alone do not justify rewriting the file.
func Changed(old, updated []cluster.Cluster) bool {
	if len(old) != len(updated) {
		return true
	}
	oldByID := make(map[string]*cluster.Cluster, len(old))
	for i := range old {
		oldByID[old[i].ID] = &old[i]
	}
	for i := range updated {
		prev, ok := oldByID[updated[i].ID]
		if !ok {
			return true
		}
		if prev.CompositionHash != updated[i].CompositionHash ||
			prev.Layer != updated[i].Layer ||
			prev.PurposeHint != updated[i].PurposeHint ||
			!equalStrings(prev.EntryPoints, updated[i].EntryPoints) {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
