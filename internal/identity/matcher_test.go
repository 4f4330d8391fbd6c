package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/strata/internal/cluster"
)

func newCluster(id string, files ...string) cluster.Cluster {
	return cluster.Cluster{ID: id, Name: id, Files: files}
}

func TestMatchFirstScanEverythingIsNew(t *testing.T) {
	m := NewMatcher(0)
	res := m.Match([]cluster.Cluster{newCluster("new-a", "a.ts")}, nil)

	require.Len(t, res.Clusters, 1)
	assert.True(t, strings.HasPrefix(res.Clusters[0].ID, "c-"), "unmatched cluster gets a minted ID, got %q", res.Clusters[0].ID)
	assert.Empty(t, res.Matches)
	assert.Empty(t, res.Orphaned)
}

func TestMatchIdenticalFileSetPreservesIdentity(t *testing.T) {
	persisted := newCluster("auth-v1", "a.ts", "b.ts", "c.ts")
	persisted.PurposeHint = "authentication flows"
	persisted.EntryPoints = []string{"a.ts"}
	persisted.Metadata = map[string]string{"created": "2026-01-10"}

	m := NewMatcher(0)
	res := m.Match([]cluster.Cluster{newCluster("new-auth", "a.ts", "b.ts", "c.ts")}, []cluster.Cluster{persisted})

	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1.0, res.Matches[0].Confidence)
	assert.Equal(t, "auth-v1", res.Clusters[0].ID)
	assert.Equal(t, "authentication flows", res.Clusters[0].PurposeHint)
	assert.Equal(t, []string{"a.ts"}, res.Clusters[0].EntryPoints)
	assert.Equal(t, map[string]string{"created": "2026-01-10"}, res.Clusters[0].Metadata)
	assert.Empty(t, res.Orphaned)
}

func TestMatchGrownClusterConfidence(t *testing.T) {
	persisted := newCluster("auth-v1", "a.ts", "b.ts", "c.ts")
	fresh := newCluster("new-auth", "a.ts", "b.ts", "c.ts", "d.ts")

	m := NewMatcher(0)
	res := m.Match([]cluster.Cluster{fresh}, []cluster.Cluster{persisted})

	require.Len(t, res.Matches, 1)
	assert.Equal(t, 0.75, res.Matches[0].Confidence)
	assert.Equal(t, "auth-v1", res.Clusters[0].ID)
	assert.Equal(t, []string{"a.ts", "b.ts", "c.ts", "d.ts"}, res.Clusters[0].Files)
}

func TestMatchBelowThresholdIsNew(t *testing.T) {
	persisted := newCluster("old", "a.ts", "b.ts", "c.ts", "d.ts", "e.ts")
	fresh := newCluster("new-x", "a.ts", "x.ts", "y.ts", "z.ts", "w.ts")

	// Overlap 1/9 ≈ 0.11, below the 0.3 floor.
	m := NewMatcher(DefaultMinOverlap)
	res := m.Match([]cluster.Cluster{fresh}, []cluster.Cluster{persisted})

	assert.Empty(t, res.Matches)
	assert.True(t, strings.HasPrefix(res.Clusters[0].ID, "c-"))
	require.Len(t, res.Orphaned, 1)
	assert.Equal(t, "old", res.Orphaned[0].ID)
}

func TestMatchPersistedClusterMatchedAtMostOnce(t *testing.T) {
	persisted := newCluster("core", "a.ts", "b.ts", "c.ts", "d.ts")
	// Both new clusters overlap "core"; the larger overlap must win and the
	// loser is treated as new.
	bigger := newCluster("new-1", "a.ts", "b.ts", "c.ts")
	smaller := newCluster("new-2", "d.ts", "e.ts")

	m := NewMatcher(0.1)
	res := m.Match([]cluster.Cluster{smaller, bigger}, []cluster.Cluster{persisted})

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "new-1", res.Matches[0].SuggestedID)
	assert.Equal(t, "core", res.Matches[0].MatchedID)

	// Input order is preserved: smaller came first and lost.
	assert.True(t, strings.HasPrefix(res.Clusters[0].ID, "c-"))
	assert.Equal(t, "core", res.Clusters[1].ID)
}

func TestMatchTieBreaksOnSmallestPersistedID(t *testing.T) {
	pa := newCluster("beta", "a.ts", "b.ts")
	pb := newCluster("alpha", "a.ts", "b.ts")
	fresh := newCluster("new-1", "a.ts", "b.ts")

	m := NewMatcher(0)
	res := m.Match([]cluster.Cluster{fresh}, []cluster.Cluster{pa, pb})

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "alpha", res.Matches[0].MatchedID)
	require.Len(t, res.Orphaned, 1)
	assert.Equal(t, "beta", res.Orphaned[0].ID)
}

func TestMatchDeterministic(t *testing.T) {
	persisted := []cluster.Cluster{
		newCluster("p1", "a.ts", "b.ts"),
		newCluster("p2", "c.ts", "d.ts"),
		newCluster("p3", "e.ts"),
	}
	fresh := []cluster.Cluster{
		newCluster("new-a", "a.ts", "b.ts", "c.ts"),
		newCluster("new-b", "c.ts", "d.ts"),
		newCluster("new-c", "x.ts"),
	}

	m := NewMatcher(0.2)
	first := m.Match(fresh, persisted)
	second := m.Match(fresh, persisted)

	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.Orphaned, second.Orphaned)
	assert.Equal(t, first.MatchedIDs, second.MatchedIDs)
}

func TestMatchRecomputedFieldsNotInherited(t *testing.T) {
	persisted := newCluster("ui-v2", "a.tsx", "b.tsx")
	persisted.Layer = cluster.LayerBackend // stale classification
	persisted.CompositionHash = "sha256:stale"

	fresh := newCluster("new-ui", "a.tsx", "b.tsx")
	fresh.Layer = cluster.LayerFrontend
	fresh.LayerDetection = cluster.LayerDetection{Confidence: 0.8, Signals: []string{"import:react"}}
	fresh.CompositionHash = cluster.CompositionHash(fresh.Files)

	m := NewMatcher(0)
	res := m.Match([]cluster.Cluster{fresh}, []cluster.Cluster{persisted})

	require.Len(t, res.Matches, 1)
	got := res.Clusters[0]
	assert.Equal(t, "ui-v2", got.ID)
	assert.Equal(t, cluster.LayerFrontend, got.Layer)
	assert.Equal(t, fresh.CompositionHash, got.CompositionHash)
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1.0},
		{"disjoint", []string{"a"}, []string{"b"}, 0.0},
		{"three of four", []string{"a", "b", "c"}, []string{"a", "b", "c", "d"}, 0.75},
		{"both empty", nil, nil, 0.0},
		{"one empty", []string{"a"}, nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(fileSet(tt.a), fileSet(tt.b))
			if got != tt.want {
				t.Fatalf("jaccard = %v, want %v", got, tt.want)
			}
		})
	}
}
