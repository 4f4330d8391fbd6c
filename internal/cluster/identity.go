package cluster

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// CompositionHash digests a cluster's file set. The input list is sorted
// before hashing so member ordering never affects the result. The hash is a
// change detector for persistence decisions, never an identity key.
func CompositionHash(files []string) string {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// ProvisionalID derives a this-scan cluster ID from the cluster name. It is
// deterministic so an unmatched cluster gets the same provisional ID on every
// scan of an unchanged tree, keeping diffs quiet before a stable ID is minted.
func ProvisionalID(name string) string {
	slug := strings.ToLower(name)
	slug = strings.NewReplacer("/", "-", " ", "-", ".", "-").Replace(slug)
	return "new-" + slug
}

// MintID creates a fresh stable cluster ID for a cluster the identity matcher
// could not pair with any persisted record.
func MintID() string {
	return "c-" + uuid.NewString()[:8]
}
