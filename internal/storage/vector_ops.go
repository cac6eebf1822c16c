package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// chunkResultColumns is the joined column list shared by both search queries
const chunkResultColumns = `
	c.id, c.video_id, c.content, c.start_time, c.end_time,
	v.title, v.channel, v.youtube_id, v.thumbnail, v.published_at
`

// searchChunksByVector performs nearest-neighbor search over stored embeddings.
// Rows come back ordered by cosine distance ascending. Relevance thresholds
// are the caller's concern.
func searchChunksByVector(ctx context.Context, q querier, queryVector []float32, limit int) ([]VectorHit, error) {
	if limit <= 0 {
		return []VectorHit{}, nil
	}
	// Use SQL-side distance when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, q, queryVector, limit)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, q, queryVector, limit)
}

// searchVectorOptimized uses the sqlite-vec extension to compute cosine
// distance at the database layer
func searchVectorOptimized(ctx context.Context, q querier, queryVector []float32, limit int) ([]VectorHit, error) {
	queryVectorBlob := serializeVector(queryVector)

	query := `
		SELECT ` + chunkResultColumns + `,
			vec_distance_cosine(e.vector, ?) AS distance
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN videos v ON c.video_id = v.id
		ORDER BY distance ASC
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, queryVectorBlob, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]VectorHit, 0, limit)
	for rows.Next() {
		var hit VectorHit
		if err := scanHitRow(rows, &hit.Result, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// searchVectorFallback computes cosine distance in Go. Used when the
// sqlite-vec extension is not available (purego builds).
func searchVectorFallback(ctx context.Context, q querier, queryVector []float32, limit int) ([]VectorHit, error) {
	query := `
		SELECT ` + chunkResultColumns + `,
			e.vector
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN videos v ON c.video_id = v.id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]VectorHit, 0, 256)
	for rows.Next() {
		var hit VectorHit
		var vectorBlob []byte
		if err := scanHitRow(rows, &hit.Result, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		hit.Distance = cosineDistance(queryVector, vector)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Sort by distance ascending, matching the SQL path's ordering
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

// searchChunksByText matches the query as a case-insensitive substring of
// chunk content. Rows come back in store order (chunk id ascending).
func searchChunksByText(ctx context.Context, q querier, query string, limit int) ([]TextHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		return []TextHit{}, nil
	}

	pattern := "%" + escapeLikePattern(query) + "%"
	sqlQuery := `
		SELECT ` + chunkResultColumns + `
		FROM chunks c
		INNER JOIN videos v ON c.video_id = v.id
		WHERE LOWER(c.content) LIKE LOWER(?) ESCAPE '\'
		ORDER BY c.id
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute text search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]TextHit, 0, limit)
	for rows.Next() {
		var hit TextHit
		if err := scanHitRow(rows, &hit.Result); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// scanHitRow scans the shared joined columns into a SearchResult, plus any
// trailing columns (distance or vector blob) the caller appends
func scanHitRow(rows *sql.Rows, result *types.SearchResult, extra ...interface{}) error {
	var startTime, endTime sql.NullFloat64
	var channel, thumbnail sql.NullString
	var publishedAt sql.NullTime

	dest := []interface{}{
		&result.ChunkID, &result.VideoID, &result.Content, &startTime, &endTime,
		&result.VideoTitle, &channel, &result.YouTubeID, &thumbnail, &publishedAt,
	}
	dest = append(dest, extra...)

	if err := rows.Scan(dest...); err != nil {
		return err
	}

	if startTime.Valid {
		result.StartTime = &startTime.Float64
	}
	if endTime.Valid {
		result.EndTime = &endTime.Float64
	}
	if channel.Valid {
		result.Channel = &channel.String
	}
	if thumbnail.Valid {
		result.Thumbnail = &thumbnail.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		result.PublishedAt = &t
	}
	return nil
}

// escapeLikePattern escapes the LIKE metacharacters in a user query so it
// matches literally
func escapeLikePattern(query string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return replacer.Replace(query)
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

// cosineDistance computes the cosine distance (1 - cosine similarity)
// between two vectors. The result lies in [0, 2]. Degenerate zero-norm
// vectors yield the maximum-uncertainty distance 1.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
}

// SerializeVector is an exported helper for embedding producers and tests
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for tests
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineDistance is an exported helper for tests
func CosineDistance(a, b []float32) float64 {
	return cosineDistance(a, b)
}
