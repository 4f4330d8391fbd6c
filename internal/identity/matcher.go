// Package identity reconciles a freshly computed cluster partition against
// the partition persisted by the previous scan, so cluster IDs and the
// user-authored metadata hanging off them survive code churn.
package identity

import (
	"sort"

	"github.com/dusk-indust/strata/internal/cluster"
)

// DefaultMinOverlap is the minimum Jaccard similarity a new/persisted pair
// must reach before the persisted identity is carried forward. Tunable via
// configuration; pairs below it are treated as unrelated.
const DefaultMinOverlap = 0.3

// Match records one accepted pairing for user-facing reporting.
type Match struct {
	// SuggestedID is the new cluster's provisional ID.
	SuggestedID string `json:"suggestedId"`
	// MatchedID is the persisted ID the cluster inherited.
	MatchedID string `json:"matchedId"`
	// Confidence is the Jaccard similarity of the two file sets, in [0,1].
	Confidence float64 `json:"confidence"`
}

// Result is the full outcome of a reconciliation pass.
type Result struct {
	// Clusters is the new partition with stable IDs and inherited metadata
	// applied. Order follows the input order of the new clusters.
	Clusters []cluster.Cluster
	// MatchedIDs lists the persisted IDs successfully carried forward.
	MatchedIDs []string
	// Matches records every accepted pairing with its confidence.
	Matches []Match
	// Orphaned holds persisted clusters with no acceptable match this scan.
	// They are reported, never deleted; retention is the caller's call.
	Orphaned []cluster.Cluster
}

// Matcher assigns stable identities to new clusters.
type Matcher struct {
	minOverlap float64
}

// NewMatcher creates a Matcher with the given minimum overlap threshold.
// A non-positive threshold falls back to DefaultMinOverlap.
func NewMatcher(minOverlap float64) *Matcher {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}
	return &Matcher{minOverlap: minOverlap}
}

// candidate is one scored new/persisted pair under consideration.
type candidate struct {
	newIdx int
	oldIdx int
	score  float64
}

// Match reconciles newClusters against persisted. Every accepted pairing is
// the globally highest-scoring one still available: candidates are sorted by
// score descending and consumed greedily, each persisted cluster and each new
// cluster used at most once. Ties at equal score go to the lexically smallest
// persisted ID, then the lexically smallest new provisional ID, which makes
// the assignment deterministic for identical inputs.
//
// On a match the new cluster inherits the persisted ID, purpose hint, entry
// points, and metadata; files, layer, detection, and composition hash stay as
// computed this scan. Unmatched new clusters get freshly minted IDs.
// An empty persisted list short-circuits to "everything is new".
func (m *Matcher) Match(newClusters, persisted []cluster.Cluster) *Result {
	res := &Result{Clusters: make([]cluster.Cluster, len(newClusters))}
	copy(res.Clusters, newClusters)

	if len(persisted) == 0 {
		for i := range res.Clusters {
			res.Clusters[i].ID = cluster.MintID()
		}
		return res
	}

	oldSets := make([]map[string]bool, len(persisted))
	for i, pc := range persisted {
		oldSets[i] = fileSet(pc.Files)
	}

	var candidates []candidate
	for ni, nc := range newClusters {
		newSet := fileSet(nc.Files)
		for oi := range persisted {
			score := jaccard(newSet, oldSets[oi])
			if score >= m.minOverlap {
				candidates = append(candidates, candidate{newIdx: ni, oldIdx: oi, score: score})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if persisted[a.oldIdx].ID != persisted[b.oldIdx].ID {
			return persisted[a.oldIdx].ID < persisted[b.oldIdx].ID
		}
		return newClusters[a.newIdx].ID < newClusters[b.newIdx].ID
	})

	newTaken := make([]bool, len(newClusters))
	oldTaken := make([]bool, len(persisted))

	for _, c := range candidates {
		if newTaken[c.newIdx] || oldTaken[c.oldIdx] {
			continue
		}
		newTaken[c.newIdx] = true
		oldTaken[c.oldIdx] = true

		old := persisted[c.oldIdx]
		nc := &res.Clusters[c.newIdx]
		suggested := nc.ID
		nc.ID = old.ID
		nc.PurposeHint = old.PurposeHint
		nc.EntryPoints = old.EntryPoints
		nc.Metadata = old.Metadata

		res.MatchedIDs = append(res.MatchedIDs, old.ID)
		res.Matches = append(res.Matches, Match{
			SuggestedID: suggested,
			MatchedID:   old.ID,
			Confidence:  c.score,
		})
	}

	for i := range res.Clusters {
		if !newTaken[i] {
			res.Clusters[i].ID = cluster.MintID()
		}
	}
	for i, pc := range persisted {
		if !oldTaken[i] {
			res.Orphaned = append(res.Orphaned, pc)
		}
	}
	return res
}

// jaccard is intersection over union of two file sets. Two empty sets score
// zero, not one: an empty cluster matches nothing.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for f := range a {
		if b[f] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func fileSet(files []string) map[string]bool {
	s := make(map[string]bool, len(files))
	for _, f := range files {
		s[f] = true
	}
	return s
}
