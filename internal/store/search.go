package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// SearchText performs BM25 full-text search using FTS5
func (s *SQLiteStore) SearchText(ctx context.Context, query string, scope Scope, limit int) ([]KeywordHit, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		return []KeywordHit{}, nil
	}

	sqlQuery := `
		SELECT
			f.id,
			bm25(fragments_fts) as score,
			f.timestamp
		FROM fragments_fts
		INNER JOIN fragments f ON fragments_fts.rowid = f.id
		WHERE fragments_fts MATCH ?
	`
	args := []interface{}{sanitized}
	sqlQuery, args = applyScope(sqlQuery, args, scope)

	// BM25 score is lower-is-better; ties broken by recency
	sqlQuery += " ORDER BY score, f.timestamp DESC, f.id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]KeywordHit, 0, limit)
	for rows.Next() {
		var hit KeywordHit
		if err := rows.Scan(&hit.FragmentID, &hit.Score, &hit.Timestamp); err != nil {
			return nil, err
		}

		// Convert BM25 score (negative, lower is better) to positive normalized score
		// BM25 scores are typically in range [-50, 0]
		hit.Score = 1.0 / (1.0 + math.Abs(hit.Score)/50.0)
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// SearchVector ranks fragments by cosine similarity to the query embedding
func (s *SQLiteStore) SearchVector(ctx context.Context, queryVector []float32, scope Scope, limit int) ([]VectorHit, error) {
	if limit <= 0 {
		return []VectorHit{}, nil
	}

	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return s.searchVectorOptimized(ctx, queryVector, scope, limit)
	}
	// Fall back to Go-based computation for purego builds
	return s.searchVectorFallback(ctx, queryVector, scope, limit)
}

// searchVectorOptimized uses the sqlite-vec extension for SQL-side cosine distance
func (s *SQLiteStore) searchVectorOptimized(ctx context.Context, queryVector []float32, scope Scope, limit int) ([]VectorHit, error) {
	queryVectorBlob := serializeVector(queryVector)

	// sqlite-vec's vec_distance_cosine returns distance (lower is better);
	// convert to similarity (1 - distance)
	query := `
		SELECT
			f.id,
			1.0 - vec_distance_cosine(f.embedding, ?) as similarity,
			f.timestamp
		FROM fragments f
		WHERE 1=1
	`
	args := []interface{}{queryVectorBlob}
	query, args = applyScope(query, args, scope)

	query += " ORDER BY similarity DESC, f.timestamp DESC, f.id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]VectorHit, 0, limit)
	for rows.Next() {
		var hit VectorHit
		if err := rows.Scan(&hit.FragmentID, &hit.Similarity, &hit.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// searchVectorFallback computes cosine similarity in Go. Used when the
// sqlite-vec extension is not available (purego builds).
func (s *SQLiteStore) searchVectorFallback(ctx context.Context, queryVector []float32, scope Scope, limit int) ([]VectorHit, error) {
	query := `
		SELECT f.id, f.embedding, f.timestamp
		FROM fragments f
		WHERE 1=1
	`
	args := []interface{}{}
	query, args = applyScope(query, args, scope)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]VectorHit, 0, 1000)
	for rows.Next() {
		var hit VectorHit
		var blob []byte
		if err := rows.Scan(&hit.FragmentID, &blob, &hit.Timestamp); err != nil {
			return nil, err
		}

		vector := deserializeVector(blob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		hit.Similarity = cosineSimilarity(queryVector, vector)
		candidates = append(candidates, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Sort by similarity (descending), ties broken by recency then id
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		if !candidates[i].Timestamp.Equal(candidates[j].Timestamp) {
			return candidates[i].Timestamp.After(candidates[j].Timestamp)
		}
		return candidates[i].FragmentID < candidates[j].FragmentID
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit], nil
}

// applyScope adds the project partition filter to a query.
// A restricted scope sees its own project's fragments plus global ones.
func applyScope(query string, args []interface{}, scope Scope) (string, []interface{}) {
	if !scope.restricted() {
		return query, args
	}
	query += " AND (f.project_id = ? OR f.project_id IS NULL)"
	args = append(args, *scope.ProjectID)
	return query, args
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FTS5 operator pattern for escaping Boolean operators
var ftsOperatorPattern = regexp.MustCompile(`\b(AND|OR|NOT|NEAR)\b`)

// sanitizeFTSQuery sanitizes a search query for FTS5 to prevent injection attacks.
// Escapes special FTS5 operators and characters that could be used for SQL injection.
func sanitizeFTSQuery(query string) string {
	if query == "" {
		return ""
	}

	replacer := strings.NewReplacer(
		`"`, `\"`, // Quote
		`*`, `\*`, // Wildcard
		`(`, `\(`, // Grouping
		`)`, `\)`, // Grouping
	)
	escaped := replacer.Replace(query)

	escaped = ftsOperatorPattern.ReplaceAllStringFunc(escaped, func(match string) string {
		return `\` + match
	})

	return escaped
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
