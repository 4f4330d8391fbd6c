// Package scan drives the full analysis pipeline: walk the tree, detect the
// project profile, parse files in parallel, build the dependency graph,
// partition it into folder clusters, and reconcile cluster identities against
// the previous scan.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/strata/internal/cluster"
	"github.com/dusk-indust/strata/internal/extract"
	"github.com/dusk-indust/strata/internal/graph"
	"github.com/dusk-indust/strata/internal/identity"
	"github.com/dusk-indust/strata/internal/persist"
	"github.com/dusk-indust/strata/internal/resolve"
)

// Options tune one scan invocation.
type Options struct {
	// IgnoreDirs adds directory names to the walk's skip list.
	IgnoreDirs []string
	// Workers bounds the parse fan-out; <= 0 means GOMAXPROCS.
	Workers int
	// Cluster sets the folder-grouping granularity.
	Cluster cluster.Options
	// MinOverlap is the identity matcher threshold; <= 0 means the default.
	MinOverlap float64
	// ClusterFile overrides the persisted cluster record location.
	ClusterFile string
	// Persist controls whether the reconciled partition is written back.
	Persist bool
}

// Result is everything one scan produces.
type Result struct {
	Profile  ProjectProfile
	Graph    *graph.DependencyGraph
	Stats    graph.GraphStats
	Clusters []cluster.Cluster
	Match    *identity.Result
	// Saved reports whether the cluster file was rewritten.
	Saved    bool
	Duration time.Duration
}

// Scanner runs scans over one repository root.
type Scanner struct {
	root     string
	parser   extract.Parser
	opts     Options
	progress *ProgressReporter
}

// NewScanner creates a Scanner for the given absolute repository root.
// parser may be shared across scans; a nil progress reporter disables events.
func NewScanner(root string, parser extract.Parser, opts Options, progress *ProgressReporter) *Scanner {
	return &Scanner{root: root, parser: parser, opts: opts, progress: progress}
}

// Run executes the whole pipeline once. Per-file parsing is parallel; every
// other phase is a sequential pass over already-materialized data. The only
// fatal condition is an unreadable file that the walk promised exists;
// everything else degrades into fewer edges or fresh cluster IDs.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	files, err := s.phaseWalk()
	if err != nil {
		return nil, err
	}

	s.working(PhaseDetect)
	resolver := resolve.NewResolver(s.root, RelPaths(files))
	res.Profile = Detect(s.root, resolver)
	s.complete(PhaseDetect, "")

	parsed, err := s.phaseParse(ctx, files)
	if err != nil {
		return nil, err
	}

	s.working(PhaseGraph)
	res.Graph = graph.NewBuilder(s.root, resolver).Build(parsed)
	res.Stats = res.Graph.Stats()
	s.complete(PhaseGraph, fmt.Sprintf("(%d files, %d edges)", res.Stats.TotalFiles, res.Stats.TotalDependencies))

	s.working(PhaseCluster)
	fresh := cluster.GroupByFolders(res.Graph, s.opts.Cluster)
	s.complete(PhaseCluster, fmt.Sprintf("(%d clusters)", len(fresh)))

	if err := s.phaseReconcile(res, fresh); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (s *Scanner) phaseWalk() ([]SourceFile, error) {
	s.working(PhaseWalk)
	files, err := Walk(s.root, s.opts.IgnoreDirs)
	if err != nil {
		s.failed(PhaseWalk, err)
		return nil, err
	}
	s.complete(PhaseWalk, fmt.Sprintf("(%d files)", len(files)))
	return files, nil
}

// phaseParse reads and parses every file with a bounded errgroup fan-out.
// Results land in an indexed slice so the merged order matches the walk order
// regardless of goroutine scheduling. A read failure cancels the group: the
// walk said the file exists, so not being able to read it breaks the scan's
// completeness invariant.
func (s *Scanner) phaseParse(ctx context.Context, files []SourceFile) ([]*graph.ParsedFile, error) {
	s.working(PhaseParse)

	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*graph.ParsedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(f.AbsPath)
			if err != nil {
				return fmt.Errorf("scan: read %s: %w", f.RelPath, err)
			}
			pf, err := s.parser.Parse(gctx, f.RelPath, source, f.Language)
			if err != nil {
				// An unparseable file still exists: index it as a bare node
				// rather than losing it from the graph.
				pf = &graph.ParsedFile{Path: f.RelPath, Language: f.Language}
			}
			results[i] = pf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.failed(PhaseParse, err)
		return nil, err
	}
	s.complete(PhaseParse, "")
	return results, nil
}

func (s *Scanner) phaseReconcile(res *Result, fresh []cluster.Cluster) error {
	s.working(PhaseReconcile)

	clusterFile := s.opts.ClusterFile
	if clusterFile == "" {
		clusterFile = persist.DefaultPath(s.root)
	}
	persisted, err := persist.Load(clusterFile)
	if err != nil {
		s.failed(PhaseReconcile, err)
		return err
	}

	res.Match = identity.NewMatcher(s.opts.MinOverlap).Match(fresh, persisted)
	res.Clusters = res.Match.Clusters
	s.complete(PhaseReconcile, fmt.Sprintf("(%d matched, %d orphaned)", len(res.Match.MatchedIDs), len(res.Match.Orphaned)))

	if !s.opts.Persist {
		return nil
	}

	s.working(PhasePersist)
	stamped := stampMetadata(res.Clusters)
	saved, err := persist.SaveIfChanged(clusterFile, persisted, stamped)
	if err != nil {
		s.failed(PhasePersist, err)
		return err
	}
	res.Clusters = stamped
	res.Saved = saved
	s.complete(PhasePersist, "")
	return nil
}

// stampMetadata fills creation/update timestamps on the reconciled partition.
// Matched clusters keep their created stamp; new ones get both.
func stampMetadata(clusters []cluster.Cluster) []cluster.Cluster {
	now := time.Now().UTC().Format(time.RFC3339)
	out := make([]cluster.Cluster, len(clusters))
	copy(out, clusters)
	for i := range out {
		md := make(map[string]string, len(out[i].Metadata)+2)
		for k, v := range out[i].Metadata {
			md[k] = v
		}
		if md["created"] == "" {
			md["created"] = now
		}
		md["updated"] = now
		out[i].Metadata = md
	}
	return out
}

// StoreClusters projects a reconciled partition to its store representation.
func StoreClusters(clusters []cluster.Cluster) []graph.ClusterNode {
	out := make([]graph.ClusterNode, len(clusters))
	for i, c := range clusters {
		out[i] = graph.ClusterNode{
			ID:         c.ID,
			Name:       c.Name,
			Layer:      string(c.Layer),
			Confidence: c.LayerDetection.Confidence,
			Members:    c.Files,
		}
	}
	return out
}

// DefaultGraphPath is the conventional on-disk KuzuDB location.
func DefaultGraphPath(root string) string {
	return filepath.Join(root, ".strata", "graph")
}

func (s *Scanner) working(p Phase) {
	if s.progress != nil {
		s.progress.Emit(ProgressEvent{Phase: p, Status: ProgressWorking})
	}
}

func (s *Scanner) complete(p Phase, msg string) {
	if s.progress != nil {
		s.progress.Emit(ProgressEvent{Phase: p, Status: ProgressComplete, Message: msg})
	}
}

func (s *Scanner) failed(p Phase, err error) {
	if s.progress != nil {
		s.progress.Emit(ProgressEvent{Phase: p, Status: ProgressFailed, Message: err.Error()})
	}
}
