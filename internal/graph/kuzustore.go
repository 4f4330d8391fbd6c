//go:build cgo

package graph

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path, enabling graph indexes that survive across sessions.
// KuzuDB creates the leaf directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		language STRING,
		loc INT64,
		export_count INT64,
		externals STRING,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Cluster(
		id STRING,
		name STRING,
		layer STRING,
		confidence DOUBLE,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEPENDS_ON(FROM File TO File)`,
	`CREATE REL TABLE IF NOT EXISTS MEMBER_OF(FROM File TO Cluster)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// externalsSeparator joins a file's external specifiers into one STRING
// column. Specifiers never contain a newline, so the join is lossless.
const externalsSeparator = "\n"

// PutFile inserts a File node.
func (s *KuzuStore) PutFile(_ context.Context, node FileNode) error {
	return s.exec(
		`CREATE (f:File {
			path: $path,
			language: $lang,
			loc: $loc,
			export_count: $exports,
			externals: $externals
		})`,
		map[string]any{
			"path":      node.Path,
			"lang":      string(node.Language),
			"loc":       int64(node.LinesOfCode),
			"exports":   int64(len(node.Exports)),
			"externals": strings.Join(node.Imports.External, externalsSeparator),
		},
	)
}

// PutDependency inserts a DEPENDS_ON edge between two File nodes.
func (s *KuzuStore) PutDependency(_ context.Context, source, target string) error {
	return s.exec(
		`MATCH (a:File {path: $src}), (b:File {path: $dst})
		 CREATE (a)-[:DEPENDS_ON]->(b)`,
		map[string]any{"src": source, "dst": target},
	)
}

// PutCluster inserts a Cluster node plus MEMBER_OF edges for its files.
func (s *KuzuStore) PutCluster(_ context.Context, node ClusterNode) error {
	err := s.exec(
		"CREATE (c:Cluster {id: $id, name: $name, layer: $layer, confidence: $conf})",
		map[string]any{
			"id":    node.ID,
			"name":  node.Name,
			"layer": node.Layer,
			"conf":  node.Confidence,
		},
	)
	if err != nil {
		return err
	}
	for _, member := range node.Members {
		err := s.exec(
			`MATCH (f:File {path: $path}), (c:Cluster {id: $id})
			 CREATE (f)-[:MEMBER_OF]->(c)`,
			map[string]any{"path": member, "id": node.ID},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

// GetFile retrieves a single File node by path, or nil when not found.
func (s *KuzuStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	rows, err := s.query(
		"MATCH (f:File {path: $path}) RETURN f.path, f.language, f.loc, f.externals",
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	node := rowToFile(rows[0])
	return &node, nil
}

// GetAllFiles returns every File node, ordered by path.
func (s *KuzuStore) GetAllFiles(_ context.Context) ([]FileNode, error) {
	rows, err := s.query(
		"MATCH (f:File) RETURN f.path, f.language, f.loc, f.externals ORDER BY f.path",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]FileNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToFile(r))
	}
	return out, nil
}

// ---------- Graph traversal ----------

// GetDependencies performs a BFS over DEPENDS_ON edges starting from path.
func (s *KuzuStore) GetDependencies(_ context.Context, path string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{path: true}
	queue := []bfsEntry{{path: []string{path}, depth: 0}}
	var chains []DependencyChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.fileNeighbors(tip, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, DependencyChain{
				Nodes: newPath,
				Depth: cur.depth + 1,
			})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

// fileNeighbors returns immediate file neighbors along DEPENDS_ON edges.
// DISTINCT collapses edge multiplicity, which a BFS does not want to revisit.
func (s *KuzuStore) fileNeighbors(path string, dir Direction) ([]string, error) {
	var cypher string
	switch dir {
	case DirectionDependencies:
		cypher = "MATCH (a:File {path: $path})-[:DEPENDS_ON]->(b:File) RETURN DISTINCT b.path"
	case DirectionDependents:
		cypher = "MATCH (a:File)-[:DEPENDS_ON]->(b:File {path: $path}) RETURN DISTINCT a.path"
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	rows, err := s.query(cypher, map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// GetClusters returns all Cluster nodes with their members.
func (s *KuzuStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	rows, err := s.query(
		"MATCH (c:Cluster) RETURN c.id, c.name, c.layer, c.confidence ORDER BY c.name",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ClusterNode, 0, len(rows))
	for _, r := range rows {
		node := ClusterNode{
			ID:         toString(r[0]),
			Name:       toString(r[1]),
			Layer:      toString(r[2]),
			Confidence: toFloat64(r[3]),
		}

		memberRows, err := s.query(
			"MATCH (f:File)-[:MEMBER_OF]->(c:Cluster {id: $id}) RETURN f.path ORDER BY f.path",
			map[string]any{"id": node.ID},
		)
		if err != nil {
			return nil, err
		}
		for _, mr := range memberRows {
			node.Members = append(node.Members, toString(mr[0]))
		}
		out = append(out, node)
	}
	return out, nil
}

// GetAllEdges returns every DEPENDS_ON edge as source/target pairs.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([][2]string, error) {
	rows, err := s.query(
		"MATCH (a:File)-[:DEPENDS_ON]->(b:File) RETURN a.path, b.path",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([][2]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, [2]string{toString(r[0]), toString(r[1])})
	}
	return out, nil
}

// ---------- Stats ----------

// Stats aggregates totals over the stored graph.
func (s *KuzuStore) Stats(_ context.Context) (GraphStats, error) {
	stats := GraphStats{}

	rows, err := s.query("MATCH (f:File) RETURN count(f), sum(f.export_count)", nil)
	if err != nil {
		return stats, err
	}
	if len(rows) > 0 && len(rows[0]) >= 2 {
		stats.TotalFiles = toInt(rows[0][0])
		stats.TotalExports = toInt(rows[0][1])
	}

	rows, err = s.query("MATCH ()-[r:DEPENDS_ON]->() RETURN count(r)", nil)
	if err != nil {
		return stats, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		stats.TotalDependencies = toInt(rows[0][0])
	}

	if stats.TotalFiles > 0 {
		stats.AvgDependencies = float64(stats.TotalDependencies) / float64(stats.TotalFiles)
	}
	return stats, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// rowToFile converts a 4-column result row into a FileNode.
// Column order: path, language, loc, externals.
func rowToFile(r []any) FileNode {
	node := FileNode{
		Path:        toString(r[0]),
		Language:    Language(toString(r[1])),
		LinesOfCode: toInt(r[2]),
	}
	if raw := toString(r[3]); raw != "" {
		node.Imports.External = strings.Split(raw, externalsSeparator)
	}
	return node
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	case *big.Int:
		// sum() over INT64 widens to INT128, surfaced as *big.Int.
		return int(n.Int64())
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
