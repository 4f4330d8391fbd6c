package resolve

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// configFileNames are the module config files probed in each directory, in
// preference order.
var configFileNames = []string{"tsconfig.json", "jsconfig.json"}

// ConfigCache discovers and parses module configs for one scan. It memoizes
// nearest-config lookups per directory and effective alias entries per config
// path, and records unusable configs so each is warned about exactly once.
// A cache is created at scan start and discarded at scan end; it is safe for
// concurrent use.
type ConfigCache struct {
	root string // absolute root boundary for upward walks

	mu      sync.Mutex
	nearest map[string]string       // dir → config path, "" when none up to the boundary
	entries map[string][]AliasEntry // config path → effective entries
	invalid map[string]bool         // configs already warned about
	visited int                     // directories examined by upward walks
}

// NewConfigCache creates a cache whose upward walks stop at (and include)
// rootBoundary. rootBoundary must be absolute.
func NewConfigCache(rootBoundary string) *ConfigCache {
	return &ConfigCache{
		root:    filepath.Clean(rootBoundary),
		nearest: make(map[string]string),
		entries: make(map[string][]AliasEntry),
		invalid: make(map[string]bool),
	}
}

// FindNearestConfig walks parent directories of filePath upward to the root
// boundary and returns the closest module config path, or "" when none
// exists. Every directory examined during the walk is memoized to the final
// answer, so repeat lookups from the same subtree cost one map read.
func (c *ConfigCache) FindNearestConfig(filePath string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(filepath.Clean(filePath))
	answer := ""
	var walked []string

	for {
		if cached, ok := c.nearest[dir]; ok {
			answer = cached
			break
		}
		walked = append(walked, dir)
		c.visited++

		if found := findConfigIn(dir); found != "" {
			answer = found
			break
		}
		if dir == c.root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for _, d := range walked {
		c.nearest[d] = answer
	}
	return answer
}

// findConfigIn returns the path of the first config file present in dir.
func findConfigIn(dir string) string {
	for _, name := range configFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadAliasEntries parses configPath, resolves its extends chain, and returns
// the effective alias entries. Unusable configs are warned about once and
// treated as empty. A cyclic extends link contributes no entries; the chain
// still terminates.
func (c *ConfigCache) LoadAliasEntries(configPath string) []AliasEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, _ := c.loadLocked(filepath.Clean(configPath), make(map[string]bool))
	return entries
}

// loadLocked returns the effective entries for configPath. inProgress is the
// set of configs currently on the extends stack; a config already present
// contributes nothing and is not re-entered. Results computed under a broken
// cycle are reported tainted and not memoized, so a later direct load of the
// same config sees its full (non-cyclic from that root) chain.
func (c *ConfigCache) loadLocked(configPath string, inProgress map[string]bool) ([]AliasEntry, bool) {
	if cached, ok := c.entries[configPath]; ok {
		return cached, false
	}
	if inProgress[configPath] {
		return nil, true
	}
	inProgress[configPath] = true
	defer delete(inProgress, configPath)

	entries, tainted := c.parseLocked(configPath, inProgress)
	if !tainted {
		c.entries[configPath] = entries
	}
	return entries, tainted
}

func (c *ConfigCache) parseLocked(configPath string, inProgress map[string]bool) ([]AliasEntry, bool) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		// A missing extends target contributes nothing and is not an error;
		// anything else makes the config unusable.
		if !errors.Is(err, fs.ErrNotExist) {
			c.warnOnce(configPath, err)
		}
		return nil, false
	}

	cfg, err := parseModuleConfig(data)
	if err != nil {
		c.warnOnce(configPath, err)
		return nil, false
	}

	var parent []AliasEntry
	tainted := false
	if cfg.Extends != "" {
		target := resolveExtendsRef(configPath, cfg.Extends)
		parent, tainted = c.loadLocked(target, inProgress)
	}

	own := c.buildEntries(configPath, cfg)

	// Child entries win: a parent entry survives only when no child entry
	// declares the same literal pattern.
	overridden := make(map[string]bool, len(own))
	for _, e := range own {
		overridden[e.Pattern] = true
	}
	effective := own
	for _, e := range parent {
		if !overridden[e.Pattern] {
			effective = append(effective, e)
		}
	}
	for i := range effective {
		effective[i].Order = i
	}
	return effective, tainted
}

// buildEntries converts the config's alias table into entries whose targets
// are repo-relative (config directory and baseUrl baked in).
func (c *ConfigCache) buildEntries(configPath string, cfg *moduleConfig) []AliasEntry {
	if len(cfg.Paths) == 0 {
		return nil
	}

	baseDir := filepath.Dir(configPath)
	if cfg.BaseURL != "" {
		baseDir = filepath.Join(baseDir, cfg.BaseURL)
	}
	relBase, err := filepath.Rel(c.root, baseDir)
	if err != nil {
		relBase = "."
	}
	relBase = filepath.ToSlash(relBase)

	entries := make([]AliasEntry, 0, len(cfg.Paths))
	for i, pair := range cfg.Paths {
		targets := make([]string, 0, len(pair.Targets))
		for _, t := range pair.Targets {
			targets = append(targets, joinSlash(relBase, t))
		}
		entries = append(entries, newAliasEntry(pair.Pattern, targets, i))
	}
	return entries
}

// joinSlash joins repo-relative slash paths, preserving wildcard markers.
func joinSlash(base, rel string) string {
	rel = filepath.ToSlash(rel)
	if base == "" || base == "." {
		return trimDotSlash(rel)
	}
	return base + "/" + trimDotSlash(rel)
}

func trimDotSlash(p string) string {
	for len(p) > 1 && p[0] == '.' && p[1] == '/' {
		p = p[2:]
	}
	return p
}

// resolveExtendsRef resolves an extends reference relative to the extending
// config, appending the implicit .json suffix when absent.
func resolveExtendsRef(fromConfig, ref string) string {
	p := ref
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(fromConfig), p)
	}
	if filepath.Ext(p) == "" {
		p += ".json"
	}
	return filepath.Clean(p)
}

func (c *ConfigCache) warnOnce(configPath string, err error) {
	if c.invalid[configPath] {
		return
	}
	c.invalid[configPath] = true
	log.Printf("WARNING: resolve: module config %s unusable, treating as empty: %v", configPath, err)
}

// --- Config parsing ---

// moduleConfig is the subset of a module config this resolver consumes.
// Paths preserves the declaration order of the alias table.
type moduleConfig struct {
	Extends string
	BaseURL string
	Paths   []pathsPair
}

type pathsPair struct {
	Pattern string
	Targets []string
}

func parseModuleConfig(data []byte) (*moduleConfig, error) {
	var raw struct {
		Extends         string `json:"extends"`
		CompilerOptions struct {
			BaseURL string          `json:"baseUrl"`
			Paths   json.RawMessage `json:"paths"`
		} `json:"compilerOptions"`
	}
	if err := json.Unmarshal(stripLenient(data), &raw); err != nil {
		return nil, err
	}

	cfg := &moduleConfig{
		Extends: raw.Extends,
		BaseURL: raw.CompilerOptions.BaseURL,
	}
	if len(raw.CompilerOptions.Paths) > 0 {
		pairs, err := parseOrderedPaths(raw.CompilerOptions.Paths)
		if err != nil {
			return nil, err
		}
		cfg.Paths = pairs
	}
	return cfg, nil
}

// parseOrderedPaths decodes the paths object with a token decoder so the
// declaration order of patterns survives (a plain map would shuffle it).
func parseOrderedPaths(raw json.RawMessage) ([]pathsPair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("paths: expected object, got %v", tok)
	}

	var pairs []pathsPair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("paths: expected string key, got %v", keyTok)
		}
		var targets []string
		if err := dec.Decode(&targets); err != nil {
			return nil, fmt.Errorf("paths[%q]: %w", key, err)
		}
		pairs = append(pairs, pathsPair{Pattern: key, Targets: targets})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// stripLenient removes line comments, block comments, and trailing commas so
// hand-edited configs with the usual JSON leniencies still parse.
func stripLenient(src []byte) []byte {
	out := make([]byte, 0, len(src))
	inString := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			out = append(out, c)
			switch c {
			case '\\':
				if i+1 < len(src) {
					i++
					out = append(out, src[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i++
		default:
			out = append(out, c)
		}
	}

	return dropTrailingCommas(out)
}

func dropTrailingCommas(src []byte) []byte {
	out := make([]byte, 0, len(src))
	inString := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			out = append(out, c)
			switch c {
			case '\\':
				if i+1 < len(src) {
					i++
					out = append(out, src[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(src) && isJSONSpace(src[j]) {
				j++
			}
			if j < len(src) && (src[j] == '}' || src[j] == ']') {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
