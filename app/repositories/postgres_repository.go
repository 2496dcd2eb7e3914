package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogapi/app/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentsSchema = `
	CREATE TABLE IF NOT EXISTS comments (
		post_slug  TEXT NOT NULL,
		id         TEXT NOT NULL,
		author     TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		PRIMARY KEY (post_slug, id)
	);
	CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_slug, created_at DESC, id DESC);
`

// PostgresCommentRepository implements CommentRepository on PostgreSQL.
// Mutations take a transaction-scoped advisory lock on the post slug.
type PostgresCommentRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresCommentRepository connects to dsn and ensures the schema exists.
func NewPostgresCommentRepository(ctx context.Context, dsn string) (*PostgresCommentRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, commentsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create comments table: %w", err)
	}
	return &PostgresCommentRepository{pool: pool, now: time.Now}, nil
}

// List returns the comments of a post, newest first
func (r *PostgresCommentRepository) List(ctx context.Context, postSlug string) ([]*models.Comment, error) {
	if err := checkSlug(postSlug); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, post_slug, author, content, created_at, updated_at
		FROM comments
		WHERE post_slug = $1
		ORDER BY created_at DESC, id DESC`, postSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Create inserts a new comment
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := prepareCreate(comment, r.now().Truncate(time.Microsecond)); err != nil {
		return err
	}

	return r.inSlugTx(ctx, comment.PostSlug, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO comments (post_slug, id, author, content, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			comment.PostSlug, comment.ID, comment.Author, comment.Content, comment.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		return nil
	})
}

// Update replaces author and content of an existing comment
func (r *PostgresCommentRepository) Update(ctx context.Context, postSlug, commentID, author, content string) (*models.Comment, error) {
	if err := checkUpdate(postSlug, commentID, author, content); err != nil {
		return nil, err
	}

	var updated *models.Comment
	err := r.inSlugTx(ctx, postSlug, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE comments
			SET author = $3, content = $4, updated_at = GREATEST($5::timestamptz, created_at)
			WHERE post_slug = $1 AND id = $2
			RETURNING id, post_slug, author, content, created_at, updated_at`,
			postSlug, commentID, author, content, r.now().Truncate(time.Microsecond))
		c, err := scanComment(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.NotFoundError{Resource: "comment", PostSlug: postSlug, ID: commentID}
		}
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a comment; missing rows are ignored
func (r *PostgresCommentRepository) Delete(ctx context.Context, postSlug, commentID string) error {
	return r.inSlugTx(ctx, postSlug, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_slug = $1 AND id = $2`, postSlug, commentID)
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return nil
	})
}

func (r *PostgresCommentRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresCommentRepository) inSlugTx(ctx context.Context, postSlug string, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, postSlug); err != nil {
			return fmt.Errorf("failed to lock post %q: %w", postSlug, err)
		}
		return fn(tx)
	})
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	var updatedAt *time.Time
	if err := row.Scan(&c.ID, &c.PostSlug, &c.Author, &c.Content, &c.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if updatedAt != nil {
		u := updatedAt.UTC()
		c.UpdatedAt = &u
	}
	return &c, nil
}
