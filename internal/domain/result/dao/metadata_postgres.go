package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
)

const metadataSchema = `
	CREATE TABLE IF NOT EXISTS fetch_results (
		job_id              TEXT PRIMARY KEY,
		channel_id          TEXT NOT NULL,
		channel_name        TEXT,
		created_at          TIMESTAMPTZ NOT NULL,
		total_comments      INTEGER NOT NULL DEFAULT 0,
		total_videos        INTEGER NOT NULL DEFAULT 0,
		unique_authors      INTEGER NOT NULL DEFAULT 0,
		object_key          TEXT NOT NULL,
		size                BIGINT NOT NULL DEFAULT 0,
		oldest_comment_date TIMESTAMPTZ,
		newest_comment_date TIMESTAMPTZ,
		user_id             TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_fetch_results_user_id ON fetch_results (user_id);
	CREATE INDEX IF NOT EXISTS idx_fetch_results_created_at ON fetch_results (created_at);
`

const metadataColumns = `job_id, channel_id, channel_name, created_at, total_comments, total_videos,
	unique_authors, object_key, size, oldest_comment_date, newest_comment_date, user_id`

// MetadataPostgres implements MetadataRepository for PostgreSQL
type MetadataPostgres struct {
	pool *pgxpool.Pool
}

// NewMetadataPostgres creates a new PostgreSQL metadata repository
func NewMetadataPostgres(pool *pgxpool.Pool) *MetadataPostgres {
	return &MetadataPostgres{pool: pool}
}

// Migrate creates the metadata table if it does not exist
func (r *MetadataPostgres) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, metadataSchema); err != nil {
		return fmt.Errorf("creating fetch_results table: %w", err)
	}
	return nil
}

// Upsert inserts or replaces metadata for a job
func (r *MetadataPostgres) Upsert(ctx context.Context, m *entity.Metadata) error {
	query := `
		INSERT INTO fetch_results (` + metadataColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (job_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			channel_name = EXCLUDED.channel_name,
			created_at = EXCLUDED.created_at,
			total_comments = EXCLUDED.total_comments,
			total_videos = EXCLUDED.total_videos,
			unique_authors = EXCLUDED.unique_authors,
			object_key = EXCLUDED.object_key,
			size = EXCLUDED.size,
			oldest_comment_date = EXCLUDED.oldest_comment_date,
			newest_comment_date = EXCLUDED.newest_comment_date,
			user_id = COALESCE(EXCLUDED.user_id, fetch_results.user_id)
	`

	_, err := r.pool.Exec(ctx, query,
		m.JobID,
		m.ChannelID,
		nullString(m.ChannelName),
		m.CreatedAt,
		m.TotalComments,
		m.TotalVideos,
		m.UniqueAuthors,
		m.ObjectKey,
		m.Size,
		m.OldestCommentDate,
		m.NewestCommentDate,
		nullString(m.UserID),
	)
	if err != nil {
		return fmt.Errorf("upserting result metadata: %w", err)
	}

	return nil
}

// Get retrieves metadata by job ID
func (r *MetadataPostgres) Get(ctx context.Context, jobID string) (*entity.Metadata, error) {
	query := `SELECT ` + metadataColumns + ` FROM fetch_results WHERE job_id = $1`

	m, err := scanMetadata(r.pool.QueryRow(ctx, query, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting result metadata: %w", err)
	}

	return m, nil
}

// List retrieves all metadata, newest first
func (r *MetadataPostgres) List(ctx context.Context) ([]entity.Metadata, error) {
	query := `SELECT ` + metadataColumns + ` FROM fetch_results ORDER BY created_at DESC`
	return r.query(ctx, query)
}

// ListByUser retrieves metadata created by a user, newest first
func (r *MetadataPostgres) ListByUser(ctx context.Context, userID string) ([]entity.Metadata, error) {
	query := `SELECT ` + metadataColumns + ` FROM fetch_results WHERE user_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, userID)
}

// ListOlderThan retrieves metadata created before the cutoff
func (r *MetadataPostgres) ListOlderThan(ctx context.Context, cutoff time.Time) ([]entity.Metadata, error) {
	query := `SELECT ` + metadataColumns + ` FROM fetch_results WHERE created_at < $1 ORDER BY created_at`
	return r.query(ctx, query, cutoff)
}

// Delete removes metadata by job ID
func (r *MetadataPostgres) Delete(ctx context.Context, jobID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fetch_results WHERE job_id = $1`, jobID)
	if err != nil {
		return false, fmt.Errorf("deleting result metadata: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MetadataPostgres) query(ctx context.Context, query string, args ...any) ([]entity.Metadata, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying result metadata: %w", err)
	}
	defer rows.Close()

	var out []entity.Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning result metadata: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result metadata: %w", err)
	}

	return out, nil
}

func scanMetadata(row pgx.Row) (*entity.Metadata, error) {
	var (
		m           entity.Metadata
		channelName *string
		userID      *string
	)
	err := row.Scan(
		&m.JobID,
		&m.ChannelID,
		&channelName,
		&m.CreatedAt,
		&m.TotalComments,
		&m.TotalVideos,
		&m.UniqueAuthors,
		&m.ObjectKey,
		&m.Size,
		&m.OldestCommentDate,
		&m.NewestCommentDate,
		&userID,
	)
	if err != nil {
		return nil, err
	}
	if channelName != nil {
		m.ChannelName = *channelName
	}
	if userID != nil {
		m.UserID = *userID
	}
	return &m, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
