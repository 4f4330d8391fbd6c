package resolve

import "strings"

// AliasEntry is one rewrite rule from a module config's alias table, mapping
// an import-specifier pattern to candidate file-system targets. Order is the
// declaration position within the effective entry list and breaks ties when
// several entries match the same specifier (earliest wins).
type AliasEntry struct {
	Pattern string
	Prefix  string
	Suffix  string
	HasStar bool
	Targets []string
	Order   int
}

// newAliasEntry splits pattern around its wildcard. HasStar is set only when
// the pattern contains exactly one wildcard marker; any other star count
// degrades the entry to an exact-match rule.
func newAliasEntry(pattern string, targets []string, order int) AliasEntry {
	entry := AliasEntry{
		Pattern: pattern,
		Targets: targets,
		Order:   order,
	}
	if strings.Count(pattern, "*") == 1 {
		star := strings.Index(pattern, "*")
		entry.HasStar = true
		entry.Prefix = pattern[:star]
		entry.Suffix = pattern[star+1:]
	}
	return entry
}

// Match reports whether specifier matches this entry. For wildcard entries
// the specifier must start with Prefix and end with Suffix around a non-empty
// middle, which is returned for substitution into targets. Non-wildcard
// entries require an exact match.
func (e AliasEntry) Match(specifier string) (string, bool) {
	if !e.HasStar {
		if specifier == e.Pattern {
			return "", true
		}
		return "", false
	}
	if len(specifier) <= len(e.Prefix)+len(e.Suffix) {
		return "", false
	}
	if !strings.HasPrefix(specifier, e.Prefix) || !strings.HasSuffix(specifier, e.Suffix) {
		return "", false
	}
	return specifier[len(e.Prefix) : len(specifier)-len(e.Suffix)], true
}

// substituteStar replaces the first wildcard in target with middle. Targets
// without a wildcard are used verbatim.
func substituteStar(target, middle string) string {
	if i := strings.Index(target, "*"); i >= 0 {
		return target[:i] + middle + target[i+1:]
	}
	return target
}
