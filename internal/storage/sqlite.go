package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Video operations

// upsertVideoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertVideoWithQuerier(ctx context.Context, q querier, video *types.Video) error {
	query := `
		INSERT INTO videos (youtube_id, title, channel, thumbnail, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(youtube_id) DO UPDATE SET
			title = excluded.title,
			channel = excluded.channel,
			thumbnail = excluded.thumbnail,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		video.YouTubeID, video.Title, video.Channel, video.Thumbnail,
		video.PublishedAt, now, now,
	).Scan(&video.ID, &video.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}
	video.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertVideo(ctx context.Context, video *types.Video) error {
	return s.upsertVideoWithQuerier(ctx, s.querier(), video)
}

// getVideoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getVideoWithQuerier(ctx context.Context, q querier, videoID int64) (*types.Video, error) {
	query := `
		SELECT id, youtube_id, title, channel, thumbnail, published_at, created_at, updated_at
		FROM videos
		WHERE id = ?
	`
	return scanVideo(q.QueryRowContext(ctx, query, videoID))
}

func (s *SQLiteStorage) GetVideo(ctx context.Context, videoID int64) (*types.Video, error) {
	return s.getVideoWithQuerier(ctx, s.querier(), videoID)
}

// getVideoByYouTubeIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getVideoByYouTubeIDWithQuerier(ctx context.Context, q querier, youtubeID string) (*types.Video, error) {
	query := `
		SELECT id, youtube_id, title, channel, thumbnail, published_at, created_at, updated_at
		FROM videos
		WHERE youtube_id = ?
	`
	return scanVideo(q.QueryRowContext(ctx, query, youtubeID))
}

func (s *SQLiteStorage) GetVideoByYouTubeID(ctx context.Context, youtubeID string) (*types.Video, error) {
	return s.getVideoByYouTubeIDWithQuerier(ctx, s.querier(), youtubeID)
}

// scanVideo scans a single video row, mapping sql.ErrNoRows to ErrNotFound
func scanVideo(row *sql.Row) (*types.Video, error) {
	var video types.Video
	var channel, thumbnail sql.NullString
	var publishedAt sql.NullTime
	err := row.Scan(
		&video.ID, &video.YouTubeID, &video.Title, &channel, &thumbnail,
		&publishedAt, &video.CreatedAt, &video.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if channel.Valid {
		video.Channel = &channel.String
	}
	if thumbnail.Valid {
		video.Thumbnail = &thumbnail.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		video.PublishedAt = &t
	}
	return &video, nil
}

// listVideosWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listVideosWithQuerier(ctx context.Context, q querier) ([]*types.Video, error) {
	query := `
		SELECT id, youtube_id, title, channel, thumbnail, published_at, created_at, updated_at
		FROM videos
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	videos := make([]*types.Video, 0)
	for rows.Next() {
		var video types.Video
		var channel, thumbnail sql.NullString
		var publishedAt sql.NullTime
		err := rows.Scan(
			&video.ID, &video.YouTubeID, &video.Title, &channel, &thumbnail,
			&publishedAt, &video.CreatedAt, &video.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if channel.Valid {
			video.Channel = &channel.String
		}
		if thumbnail.Valid {
			video.Thumbnail = &thumbnail.String
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			video.PublishedAt = &t
		}
		videos = append(videos, &video)
	}
	return videos, rows.Err()
}

func (s *SQLiteStorage) ListVideos(ctx context.Context) ([]*types.Video, error) {
	return s.listVideosWithQuerier(ctx, s.querier())
}

// deleteVideoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteVideoWithQuerier(ctx context.Context, q querier, videoID int64) error {
	query := `DELETE FROM videos WHERE id = ?`
	_, err := q.ExecContext(ctx, query, videoID)
	return err
}

func (s *SQLiteStorage) DeleteVideo(ctx context.Context, videoID int64) error {
	return s.deleteVideoWithQuerier(ctx, s.querier(), videoID)
}

// Chunk operations

// insertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *types.Chunk) error {
	query := `
		INSERT INTO chunks (video_id, content, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		chunk.VideoID, chunk.Content, chunk.StartTime, chunk.EndTime, now)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	chunk.ID = id
	chunk.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *types.Chunk) error {
	return s.insertChunkWithQuerier(ctx, s.querier(), chunk)
}

// getChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*types.Chunk, error) {
	query := `
		SELECT id, video_id, content, start_time, end_time, created_at
		FROM chunks
		WHERE id = ?
	`
	var chunk types.Chunk
	var startTime, endTime sql.NullFloat64
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&chunk.ID, &chunk.VideoID, &chunk.Content, &startTime, &endTime, &chunk.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if startTime.Valid {
		chunk.StartTime = &startTime.Float64
	}
	if endTime.Valid {
		chunk.EndTime = &endTime.Float64
	}
	return &chunk, nil
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*types.Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// listChunksByVideoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listChunksByVideoWithQuerier(ctx context.Context, q querier, videoID int64) ([]*types.Chunk, error) {
	query := `
		SELECT id, video_id, content, start_time, end_time, created_at
		FROM chunks
		WHERE video_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*types.Chunk, 0)
	for rows.Next() {
		var chunk types.Chunk
		var startTime, endTime sql.NullFloat64
		err := rows.Scan(
			&chunk.ID, &chunk.VideoID, &chunk.Content, &startTime, &endTime, &chunk.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if startTime.Valid {
			chunk.StartTime = &startTime.Float64
		}
		if endTime.Valid {
			chunk.EndTime = &endTime.Float64
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByVideo(ctx context.Context, videoID int64) ([]*types.Chunk, error) {
	return s.listChunksByVideoWithQuerier(ctx, s.querier(), videoID)
}

// deleteChunksByVideoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteChunksByVideoWithQuerier(ctx context.Context, q querier, videoID int64) error {
	query := `DELETE FROM chunks WHERE video_id = ?`
	_, err := q.ExecContext(ctx, query, videoID)
	return err
}

func (s *SQLiteStorage) DeleteChunksByVideo(ctx context.Context, videoID int64) error {
	return s.deleteChunksByVideoWithQuerier(ctx, s.querier(), videoID)
}

// Embedding operations

// upsertEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		embedding.ChunkID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	if embedding.ID == 0 {
		id, err := result.LastInsertId()
		if err == nil {
			embedding.ID = id
		}
	}
	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

// getEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var embedding Embedding
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&embedding.ID, &embedding.ChunkID, &embedding.Vector,
		&embedding.Dimension, &embedding.Provider, &embedding.Model,
		&embedding.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return s.getEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// deleteEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) error {
	query := `DELETE FROM embeddings WHERE chunk_id = ?`
	_, err := q.ExecContext(ctx, query, chunkID)
	return err
}

func (s *SQLiteStorage) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return s.deleteEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// Search operations

func (s *SQLiteStorage) SearchChunksByVector(ctx context.Context, queryVector []float32, limit int) ([]VectorHit, error) {
	// Implementation in vector_ops.go
	return searchChunksByVector(ctx, s.db, queryVector, limit)
}

func (s *SQLiteStorage) SearchChunksByText(ctx context.Context, query string, limit int) ([]TextHit, error) {
	// Implementation in vector_ops.go
	return searchChunksByText(ctx, s.db, query, limit)
}

// Stats operations

func (s *SQLiteStorage) GetStats(ctx context.Context) (*types.Stats, error) {
	var stats types.Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&stats.Videos); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&stats.Chunks); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&stats.Embeddings); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Transaction implementations

func (t *sqliteTx) UpsertVideo(ctx context.Context, video *types.Video) error {
	return t.storage.upsertVideoWithQuerier(ctx, t.querier(), video)
}

func (t *sqliteTx) GetVideo(ctx context.Context, videoID int64) (*types.Video, error) {
	return t.storage.getVideoWithQuerier(ctx, t.querier(), videoID)
}

func (t *sqliteTx) GetVideoByYouTubeID(ctx context.Context, youtubeID string) (*types.Video, error) {
	return t.storage.getVideoByYouTubeIDWithQuerier(ctx, t.querier(), youtubeID)
}

func (t *sqliteTx) ListVideos(ctx context.Context) ([]*types.Video, error) {
	return t.storage.listVideosWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteVideo(ctx context.Context, videoID int64) error {
	return t.storage.deleteVideoWithQuerier(ctx, t.querier(), videoID)
}

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *types.Chunk) error {
	return t.storage.insertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*types.Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByVideo(ctx context.Context, videoID int64) ([]*types.Chunk, error) {
	return t.storage.listChunksByVideoWithQuerier(ctx, t.querier(), videoID)
}

func (t *sqliteTx) DeleteChunksByVideo(ctx context.Context, videoID int64) error {
	return t.storage.deleteChunksByVideoWithQuerier(ctx, t.querier(), videoID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.storage.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return t.storage.getEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return t.storage.deleteEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) SearchChunksByVector(ctx context.Context, queryVector []float32, limit int) ([]VectorHit, error) {
	return searchChunksByVector(ctx, t.tx, queryVector, limit)
}

func (t *sqliteTx) SearchChunksByText(ctx context.Context, query string, limit int) ([]TextHit, error) {
	return searchChunksByText(ctx, t.tx, query, limit)
}

func (t *sqliteTx) GetStats(ctx context.Context) (*types.Stats, error) {
	return t.storage.GetStats(ctx)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
